// internal/app/system/jargon/heuristic.go
package jargon

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/dalemusser/linguashift/internal/domain/models"
)

// HeuristicConfidence is assigned to every rule-based match.
const HeuristicConfidence = 0.7

// DefaultTerms is the built-in business-jargon list. A trailing "*" marks a
// stem that matches through the end of the word ("synerg*" matches
// "synergies").
var DefaultTerms = []string{
	"KPI", "KPIs", "OKR", "OKRs", "MRR", "ARR", "CAC", "LTV",
	"synerg*", "leverage", "bandwidth", "circle back", "touch base",
	"deep dive", "drill down", "move the needle", "low-hanging fruit",
	"paradigm shift", "core competenc*", "best practice", "value-add",
	"deliverable", "action item", "stakeholder", "think outside the box",
	"take it offline", "boil the ocean", "ballpark", "ping",
	"deck", "standup", "sprint", "velocity", "north star metric",
	"unit economics", "burn rate", "runway",
}

type heuristicTerm struct {
	key  []rune
	stem bool
}

// HeuristicDetector is a rule-based detector used when no detection service
// is configured. Matches are case-insensitive and must sit on word
// boundaries.
type HeuristicDetector struct {
	terms []heuristicTerm
}

// NewHeuristicDetector builds a detector over terms; nil means DefaultTerms.
func NewHeuristicDetector(terms []string) *HeuristicDetector {
	if terms == nil {
		terms = DefaultTerms
	}
	d := &HeuristicDetector{}
	for _, t := range terms {
		stem := strings.HasSuffix(t, "*")
		t = strings.TrimSpace(strings.TrimSuffix(t, "*"))
		if t == "" {
			continue
		}
		d.terms = append(d.terms, heuristicTerm{key: lowerRunes([]rune(t)), stem: stem})
	}
	return d
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Detect never fails. The aggregate comes from Aggregate.
func (d *HeuristicDetector) Detect(_ context.Context, text string, _ []models.GlossaryEntry) (Detection, error) {
	runes := []rune(text)
	lower := lowerRunes(runes)

	var found []Span
	for _, t := range d.terms {
		for i := 0; i+len(t.key) <= len(lower); i++ {
			if !runesEqual(lower[i:i+len(t.key)], t.key) {
				continue
			}
			end := i + len(t.key)
			if i > 0 && isWordRune(runes[i-1]) {
				continue
			}
			if t.stem {
				for end < len(runes) && isWordRune(runes[end]) {
					end++
				}
			} else if end < len(runes) && isWordRune(runes[end]) {
				continue
			}
			term := string(runes[i:end])
			found = append(found, Span{
				Start:      i,
				End:        end,
				Confidence: HeuristicConfidence,
				Term:       term,
				Suggestion: fmt.Sprintf("Consider simplifying %q", term),
			})
		}
	}

	// Longest match wins at a given start; later spans starting inside an
	// earlier one are discarded.
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Start != found[j].Start {
			return found[i].Start < found[j].Start
		}
		return found[i].End > found[j].End
	})
	spans := make([]Span, 0, len(found))
	for _, s := range found {
		if n := len(spans); n > 0 && s.Start < spans[n-1].End {
			continue
		}
		spans = append(spans, s)
	}

	return Detection{Spans: spans, Score: d.Aggregate(text, spans), HasScore: true}, nil
}

// Aggregate is min(1, spans/words × meanConfidence × 2), 0 for no spans.
func (d *HeuristicDetector) Aggregate(text string, spans []Span) float64 {
	if len(spans) == 0 {
		return 0
	}
	words := max(len(strings.Fields(text)), 1)
	return min(1, float64(len(spans))/float64(words)*MeanConfidence(spans)*2)
}
