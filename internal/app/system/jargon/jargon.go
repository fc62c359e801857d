// internal/app/system/jargon/jargon.go

// Package jargon annotates draft text with jargon spans. A Detector finds
// candidate spans; the Annotator validates them, merges the organization
// glossary, and derives the aggregate score.
//
// All offsets count Unicode code points (runes), never bytes.
package jargon

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"go.uber.org/zap"
)

// GlossaryConfidence is assigned to spans produced from glossary matches.
const GlossaryConfidence = 0.95

// Span is an annotated range [Start, End) of the text.
type Span struct {
	Start        int     `json:"start"`
	End          int     `json:"end"`
	Confidence   float64 `json:"confidence"`
	Term         string  `json:"term,omitempty"`
	Suggestion   string  `json:"suggestion,omitempty"`
	FromGlossary bool    `json:"fromGlossary,omitempty"`
}

// Model returns the persisted form of s.
func (s Span) Model() models.JargonSpan {
	return models.JargonSpan{Start: s.Start, End: s.End, Confidence: s.Confidence}
}

// Result is the outcome of Annotate. Spans is never nil.
type Result struct {
	Spans []Span  `json:"jargonSpans"`
	Score float64 `json:"jargonScore"`
}

// Detection is what a Detector reports. HasScore is false when the detector
// does not supply an aggregate.
type Detection struct {
	Spans    []Span
	Score    float64
	HasScore bool
}

// Detector finds candidate jargon spans. Implementations must be safe for
// concurrent use. The glossary is passed through for detectors that use it
// as a hint; the glossary merge itself is done by the Annotator.
type Detector interface {
	Detect(ctx context.Context, text string, glossary []models.GlossaryEntry) (Detection, error)
}

// Aggregator is implemented by detectors that can score an arbitrary span
// set with their own formula. The Annotator uses it to score the merged
// spans when the glossary adds spans the detector did not report.
type Aggregator interface {
	Aggregate(text string, spans []Span) float64
}

// aggregatorOf finds an Aggregator in d or in the detectors it wraps.
func aggregatorOf(d Detector) (Aggregator, bool) {
	for d != nil {
		if agg, ok := d.(Aggregator); ok {
			return agg, true
		}
		u, ok := d.(interface{ Unwrap() Detector })
		if !ok {
			return nil, false
		}
		d = u.Unwrap()
	}
	return nil, false
}

// Annotator turns detector output into a validated, glossary-aware Result.
type Annotator struct {
	detector Detector
	log      *zap.Logger
}

func NewAnnotator(d Detector, log *zap.Logger) *Annotator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Annotator{detector: d, log: log}
}

// Annotate detects jargon in text. Blank text returns an empty result
// without calling the detector. Any detector failure (unreachable, non-2xx,
// deadline, throttled past the deadline) is reported as
// errs.ErrServiceUnavailable; callers treat it as "no annotation".
func (a *Annotator) Annotate(ctx context.Context, text string, glossary []models.GlossaryEntry) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{Spans: []Span{}, Score: 0}, nil
	}

	det, err := a.detector.Detect(ctx, text, glossary)
	if err != nil {
		if !errors.Is(err, errs.ErrServiceUnavailable) {
			err = fmt.Errorf("%w: %v", errs.ErrServiceUnavailable, err)
		}
		return Result{}, err
	}

	runes := []rune(text)
	spans, dropped := validate(det.Spans, runes)
	if dropped > 0 {
		a.log.Debug("dropped invalid detector spans", zap.Int("dropped", dropped))
	}

	spans, added := mergeGlossary(spans, runes, glossary)
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})

	score := MeanConfidence(spans)
	if det.HasScore {
		score = det.Score
		if added > 0 {
			if agg, ok := aggregatorOf(a.detector); ok {
				score = agg.Aggregate(text, spans)
			}
		}
	}
	return Result{Spans: spans, Score: clamp01(score)}, nil
}

// validate drops spans outside [0, len(runes)] or with Start >= End, clamps
// confidences, and fills in the covered term when the detector left it out.
func validate(in []Span, runes []rune) ([]Span, int) {
	out := make([]Span, 0, len(in))
	for _, s := range in {
		if s.Start < 0 || s.End > len(runes) || s.Start >= s.End || math.IsNaN(s.Confidence) {
			continue
		}
		s.Confidence = clamp01(s.Confidence)
		if s.Term == "" {
			s.Term = string(runes[s.Start:s.End])
		}
		s.FromGlossary = false
		out = append(out, s)
	}
	return out, len(in) - len(out)
}

// MeanConfidence is the mean span confidence, 0 for no spans.
func MeanConfidence(spans []Span) float64 {
	if len(spans) == 0 {
		return 0
	}
	var sum float64
	for _, s := range spans {
		sum += s.Confidence
	}
	return sum / float64(len(spans))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
