// internal/app/system/compose/severity.go
package compose

import (
	"fmt"
	"math"
)

// Severity grades an annotation for the composer banner.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMinor
	SeverityModerate
	SeverityHeavy
)

func (s Severity) String() string {
	switch s {
	case SeverityMinor:
		return "minor"
	case SeverityModerate:
		return "moderate"
	case SeverityHeavy:
		return "heavy"
	default:
		return "none"
	}
}

// SeverityFor grades a score: above 0.5 is heavy, above 0.2 moderate, any
// spans at all minor.
func SeverityFor(score float64, spans int) Severity {
	switch {
	case score > 0.5:
		return SeverityHeavy
	case score > 0.2:
		return SeverityModerate
	case spans > 0:
		return SeverityMinor
	default:
		return SeverityNone
	}
}

// Banner is the one-line notice shown above the draft. Empty for
// SeverityNone.
func Banner(sev Severity, score float64, audience string) string {
	pct := int(math.Round(score * 100))
	switch sev {
	case SeverityHeavy:
		return fmt.Sprintf("Heavy jargon detected (%d%%). Consider simplifying for %s.", pct, audience)
	case SeverityModerate:
		return fmt.Sprintf("Some jargon detected (%d%%). The message may need clarification.", pct)
	case SeverityMinor:
		return "Minor jargon detected. The message is mostly clear."
	default:
		return ""
	}
}
