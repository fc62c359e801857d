// internal/app/system/jargon/remote.go
package jargon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RemoteConfig configures a RemoteDetector.
type RemoteConfig struct {
	// BaseURL of the detection service; the detector posts to
	// {BaseURL}/detect-jargon.
	BaseURL string
	// Timeout bounds each call when the caller's context has no earlier
	// deadline. Zero means 10s.
	Timeout time.Duration
	// RequestsPerSecond and Burst throttle outgoing calls. Zero RPS disables
	// throttling.
	RequestsPerSecond float64
	Burst             int
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// RemoteDetector calls the external detection service over HTTP/JSON.
type RemoteDetector struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	limiter  *rate.Limiter
	log      *zap.Logger

	mu      sync.Mutex
	retryAt time.Time
}

func NewRemoteDetector(cfg RemoteConfig, log *zap.Logger) *RemoteDetector {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	d := &RemoteDetector{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/detect-jargon",
		timeout:  timeout,
		client:   client,
		log:      log,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return d
}

type wireGlossaryEntry struct {
	Term          string `json:"term"`
	Explanation   string `json:"explanation,omitempty"`
	PlainLanguage string `json:"plainLanguage"`
}

type detectRequest struct {
	Text     string              `json:"text"`
	Glossary []wireGlossaryEntry `json:"glossary"`
}

type wireSpan struct {
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Term       string  `json:"term"`
	Suggestion string  `json:"suggestion"`
}

type detectResponse struct {
	Spans []wireSpan `json:"jargon_spans"`
	Score *float64   `json:"jargon_score"`
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errs.ErrServiceUnavailable, fmt.Sprintf(format, args...))
}

// wait honours a Retry-After backoff from an earlier 429, then the token
// bucket. Either wait is abandoned when ctx ends.
func (d *RemoteDetector) wait(ctx context.Context) error {
	d.mu.Lock()
	retryAt := d.retryAt
	d.mu.Unlock()

	if delay := time.Until(retryAt); delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if d.limiter == nil {
		return nil
	}
	return d.limiter.Wait(ctx)
}

func (d *RemoteDetector) backoff(h http.Header) {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		secs = 1
	}
	d.mu.Lock()
	d.retryAt = time.Now().Add(time.Duration(secs) * time.Second)
	d.mu.Unlock()
}

func (d *RemoteDetector) Detect(ctx context.Context, text string, glossary []models.GlossaryEntry) (Detection, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.wait(ctx); err != nil {
		return Detection{}, unavailable("throttled: %v", err)
	}

	body := detectRequest{Text: text, Glossary: make([]wireGlossaryEntry, 0, len(glossary))}
	for _, e := range glossary {
		body.Glossary = append(body.Glossary, wireGlossaryEntry{
			Term:          e.Term,
			Explanation:   e.Explanation,
			PlainLanguage: e.PlainLanguage,
		})
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return Detection{}, fmt.Errorf("encode detect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(buf))
	if err != nil {
		return Detection{}, unavailable("build request: %v", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Warn("jargon detector call failed",
			zap.String("request_id", reqID), zap.Error(err))
		return Detection{}, unavailable("%v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		d.backoff(resp.Header)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		d.log.Warn("jargon detector returned non-success status",
			zap.String("request_id", reqID), zap.Int("status", resp.StatusCode))
		return Detection{}, unavailable("detector returned %d", resp.StatusCode)
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Detection{}, unavailable("decode detector response: %v", err)
	}

	det := Detection{Spans: make([]Span, 0, len(out.Spans))}
	for _, s := range out.Spans {
		det.Spans = append(det.Spans, Span{
			Start:      s.Start,
			End:        s.End,
			Confidence: s.Confidence,
			Term:       s.Term,
			Suggestion: s.Suggestion,
		})
	}
	if out.Score != nil {
		det.Score, det.HasScore = *out.Score, true
	}

	d.log.Debug("jargon detector call",
		zap.String("request_id", reqID),
		zap.Int("spans", len(det.Spans)),
		zap.Duration("took", time.Since(start)))
	return det, nil
}
