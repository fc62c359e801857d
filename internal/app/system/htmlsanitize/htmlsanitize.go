// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize strips markup from user-supplied display strings
// (channel names, glossary entries) before they are stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every element; script/style contents are dropped entirely.
var strict = bluemonday.StrictPolicy()

// PlainText returns s with all HTML removed and entities decoded, trimmed.
// The result is plain text, not HTML: callers must escape it when rendering.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
