package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/linguashift/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Quarterly business review", "Quarterly business review"},
		{"trims", "  QBR  ", "QBR"},
		{"strips tags", "<b>QBR</b>", "QBR"},
		{"drops script", "<script>alert('x')</script>release", "release"},
		{"keeps ampersand", "R&D", "R&D"},
		{"strips attributes", `<a href="javascript:alert(1)">click</a>`, "click"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := htmlsanitize.PlainText(tt.input)
			if got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
