// Package styles provides the colour theme and lipgloss styles for the
// terminal composer.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dalemusser/linguashift/internal/app/system/compose"
)

// Theme is the colour palette.
type Theme struct {
	Primary    lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
	Highlight  lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#2563EB"), // Blue
		Foreground: lipgloss.Color("#E5E7EB"),
		Muted:      lipgloss.Color("#6B7280"),
		Success:    lipgloss.Color("#86EFAC"),
		Warning:    lipgloss.Color("#FDE68A"),
		Error:      lipgloss.Color("#FCA5A5"),
		Border:     lipgloss.Color("#374151"),
		Highlight:  lipgloss.Color("#FBBF24"), // Amber, for jargon terms
	}
}

// Styles contains the pre-built styles the composer renders with.
type Styles struct {
	theme *Theme

	Title     lipgloss.Style
	Normal    lipgloss.Style
	Muted     lipgloss.Style
	Sender    lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Jargon    lipgloss.Style
	Offer     lipgloss.Style
	Input     lipgloss.Style
	StatusBar lipgloss.Style
	Help      lipgloss.Style
}

// NewStyles builds styles from a theme. A nil theme uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Styles{
		theme: theme,

		Title:   lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Normal:  lipgloss.NewStyle().Foreground(theme.Foreground),
		Muted:   lipgloss.NewStyle().Foreground(theme.Muted),
		Sender:  lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Error:   lipgloss.NewStyle().Foreground(theme.Error),
		Success: lipgloss.NewStyle().Foreground(theme.Success),
		Warning: lipgloss.NewStyle().Foreground(theme.Warning),

		Jargon: lipgloss.NewStyle().
			Underline(true).
			Foreground(theme.Highlight),

		Offer: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(theme.Success).
			PaddingLeft(1),

		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		Help: lipgloss.NewStyle().Foreground(theme.Muted),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// ForSeverity picks the banner style for a severity grade.
func (s *Styles) ForSeverity(sev compose.Severity) lipgloss.Style {
	switch sev {
	case compose.SeverityHeavy:
		return s.Error
	case compose.SeverityModerate:
		return s.Warning
	case compose.SeverityMinor:
		return s.Muted
	default:
		return s.Normal
	}
}
