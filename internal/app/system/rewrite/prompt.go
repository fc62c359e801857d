// internal/app/system/rewrite/prompt.go
package rewrite

import (
	"strings"

	"github.com/dalemusser/linguashift/internal/domain/models"
)

// EmptyGlossaryLine stands in for the glossary block when an organization
// has no entries.
const EmptyGlossaryLine = "No organization-specific terms defined."

// BuildPrompt renders the generative prompt. The output depends only on its
// arguments: identical input gives byte-identical output. Blank audience or
// tone fall back to the defaults; text is embedded verbatim.
func BuildPrompt(text, audience, tone string, glossary []models.GlossaryEntry) string {
	audience = strings.TrimSpace(audience)
	if audience == "" {
		audience = models.DefaultAudience
	}
	tone = strings.TrimSpace(tone)
	if tone == "" {
		tone = models.DefaultTone
	}

	var b strings.Builder
	b.WriteString("You are a communication expert helping rewrite workplace messages for better clarity.\n\n")

	b.WriteString("ORGANIZATION GLOSSARY (organization-specific terms; use these definitions):\n")
	b.WriteString(GlossaryBlock(glossary))
	b.WriteString("\n\n")

	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("- Target audience: " + audience + "\n")
	b.WriteString("- Desired tone: " + tone + "\n")
	b.WriteString("- Replace glossary terms with the plain-language versions provided\n")
	b.WriteString("- Keep the meaning accurate while making it clearer\n")
	b.WriteString("- Keep important technical details; explain them instead of removing them\n")
	b.WriteString("- Prefer a glossary explanation over a generic one\n")
	b.WriteString("- Reply with the rewritten message only\n\n")

	b.WriteString("ORIGINAL MESSAGE:\n")
	b.WriteString(text)
	b.WriteString("\n\n")

	b.WriteString("REWRITTEN VERSION:\n")
	return b.String()
}

// GlossaryBlock renders one line per entry in the given order:
// "term: plainLanguage (explanation)", or "term: plainLanguage" when there is
// no explanation.
func GlossaryBlock(glossary []models.GlossaryEntry) string {
	lines := make([]string, 0, len(glossary))
	for _, e := range glossary {
		term := strings.TrimSpace(e.Term)
		if term == "" {
			continue
		}
		line := term + ": " + strings.TrimSpace(e.PlainLanguage)
		if ex := strings.TrimSpace(e.Explanation); ex != "" {
			line += " (" + ex + ")"
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return EmptyGlossaryLine
	}
	return strings.Join(lines, "\n")
}
