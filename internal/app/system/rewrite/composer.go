// internal/app/system/rewrite/composer.go

// Package rewrite produces audience- and tone-targeted rewrites of a draft
// through a generative text service.
package rewrite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"go.uber.org/zap"
)

// Generator turns a prompt into text. Implementations must be safe for
// concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Composer builds the prompt and calls the Generator.
type Composer struct {
	gen     Generator
	timeout time.Duration
	log     *zap.Logger
}

// NewComposer returns a Composer. timeout <= 0 leaves deadlines to the
// caller's context.
func NewComposer(gen Generator, timeout time.Duration, log *zap.Logger) *Composer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{gen: gen, timeout: timeout, log: log}
}

// Rewrite returns the generator's output unmodified. A generator error,
// deadline, or blank output is reported as errs.ErrRewriteFailed.
func (c *Composer) Rewrite(ctx context.Context, text, audience, tone string, glossary []models.GlossaryEntry) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: text is required", errs.ErrValidation)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := c.gen.Generate(ctx, BuildPrompt(text, audience, tone, glossary))
	if err != nil {
		c.log.Warn("rewrite generation failed",
			zap.Duration("took", time.Since(start)), zap.Error(err))
		return "", fmt.Errorf("%w: %v", errs.ErrRewriteFailed, err)
	}
	if strings.TrimSpace(out) == "" {
		c.log.Warn("rewrite generation returned empty output")
		return "", fmt.Errorf("%w: empty output", errs.ErrRewriteFailed)
	}
	c.log.Debug("rewrite generated",
		zap.Int("input_len", len(text)),
		zap.Int("output_len", len(out)),
		zap.Duration("took", time.Since(start)))
	return out, nil
}
