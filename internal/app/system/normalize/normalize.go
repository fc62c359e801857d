// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email trims and lowercases an email address. Stored emails are always in
// this form so the unique index on users.email is case-insensitive.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Term normalizes a glossary term for storage: trimmed, inner whitespace
// collapsed, case preserved.
func Term(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TermKey returns the case/diacritic-insensitive match key for a glossary
// term.
func TermKey(s string) string {
	return text.Fold(Term(s))
}

// QueryParam trims a raw query string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Preset trims an audience or tone label, falling back to def when empty.
func Preset(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}
