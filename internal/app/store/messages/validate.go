// internal/app/store/messages/validate.go
package messagestore

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
)

// ValidateContent checks a message body and returns it normalized: spans
// never nil, simplified text dropped when blank.
//
// Span offsets count code points of TextOriginal.
func ValidateContent(c models.MessageContent) (models.MessageContent, error) {
	if strings.TrimSpace(c.TextOriginal) == "" {
		return c, fmt.Errorf("%w: textOriginal is required", errs.ErrValidation)
	}
	if !inUnit(c.JargonScore) {
		return c, fmt.Errorf("%w: jargonScore must be within [0, 1]", errs.ErrValidation)
	}

	n := utf8.RuneCountInString(c.TextOriginal)
	for i, sp := range c.JargonSpans {
		if sp.Start < 0 || sp.Start >= sp.End || sp.End > n {
			return c, fmt.Errorf("%w: jargonSpans[%d] [%d, %d) is outside the text", errs.ErrValidation, i, sp.Start, sp.End)
		}
		if !inUnit(sp.Confidence) {
			return c, fmt.Errorf("%w: jargonSpans[%d] confidence must be within [0, 1]", errs.ErrValidation, i)
		}
	}
	if c.JargonSpans == nil {
		c.JargonSpans = []models.JargonSpan{}
	}

	if c.TextSimplified != nil && strings.TrimSpace(*c.TextSimplified) == "" {
		c.TextSimplified = nil
	}
	if c.UsedSimplified && c.TextSimplified == nil {
		return c, fmt.Errorf("%w: usedSimplified requires textSimplified", errs.ErrValidation)
	}
	return c, nil
}

func inUnit(f float64) bool {
	return !math.IsNaN(f) && f >= 0 && f <= 1
}
