// internal/app/system/jargon/merge.go
package jargon

import (
	"sort"
	"strings"
	"unicode"

	"github.com/dalemusser/linguashift/internal/domain/models"
)

type glossaryTerm struct {
	key   []rune // lower-cased term
	entry models.GlossaryEntry
}

// prepareGlossary lower-cases terms rune by rune (so rune counts match the
// text) and orders them longest first, then alphabetically.
func prepareGlossary(glossary []models.GlossaryEntry) []glossaryTerm {
	out := make([]glossaryTerm, 0, len(glossary))
	for _, e := range glossary {
		term := strings.TrimSpace(e.Term)
		if term == "" {
			continue
		}
		out = append(out, glossaryTerm{key: lowerRunes([]rune(term)), entry: e})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].key) != len(out[j].key) {
			return len(out[i].key) > len(out[j].key)
		}
		return string(out[i].key) < string(out[j].key)
	})
	return out
}

func lowerRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

// occurrences returns the start offsets of non-overlapping matches of key
// in text.
func occurrences(text, key []rune) []int {
	var out []int
	for i := 0; i+len(key) <= len(text); {
		if runesEqual(text[i:i+len(key)], key) {
			out = append(out, i)
			i += len(key)
			continue
		}
		i++
	}
	return out
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func overlaps(a, b Span) bool {
	return a.Start < b.End && b.Start < a.End
}

// mergeGlossary marks detector spans that cover a glossary term and adds a
// span for every glossary occurrence no marked span already covers. Unmarked
// detector spans overlapping an added glossary span are dropped. It returns
// the merged spans and how many glossary spans were added.
func mergeGlossary(spans []Span, text []rune, glossary []models.GlossaryEntry) ([]Span, int) {
	terms := prepareGlossary(glossary)
	if len(terms) == 0 {
		return spans, 0
	}
	lower := lowerRunes(text)

	for i := range spans {
		covered := string(lower[spans[i].Start:spans[i].End])
		if strings.TrimSpace(covered) == "" {
			continue
		}
		for _, t := range terms {
			key := string(t.key)
			if covered == key || strings.Contains(covered, key) || strings.Contains(key, covered) {
				spans[i].FromGlossary = true
				spans[i].Suggestion = t.entry.PlainLanguage
				break
			}
		}
	}

	var added []Span
	for _, t := range terms {
	next:
		for _, start := range occurrences(lower, t.key) {
			g := Span{
				Start:        start,
				End:          start + len(t.key),
				Confidence:   GlossaryConfidence,
				Term:         string(text[start : start+len(t.key)]),
				Suggestion:   t.entry.PlainLanguage,
				FromGlossary: true,
			}
			for _, s := range spans {
				if s.FromGlossary && overlaps(s, g) {
					continue next
				}
			}
			for _, s := range added {
				if overlaps(s, g) {
					continue next
				}
			}
			added = append(added, g)
		}
	}
	if len(added) == 0 {
		return spans, 0
	}

	out := make([]Span, 0, len(spans)+len(added))
	for _, s := range spans {
		keep := true
		if !s.FromGlossary {
			for _, g := range added {
				if overlaps(s, g) {
					keep = false
					break
				}
			}
		}
		if keep {
			out = append(out, s)
		}
	}
	return append(out, added...), len(added)
}
