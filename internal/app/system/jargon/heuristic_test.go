package jargon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func terms(spans []Span) []string {
	out := make([]string, 0, len(spans))
	for _, s := range spans {
		out = append(out, s.Term)
	}
	return out
}

func TestHeuristicDetector_FindsTerms(t *testing.T) {
	d := NewHeuristicDetector(nil)

	det, err := d.Detect(context.Background(), "We need to leverage our KPIs", nil)
	require.NoError(t, err)
	require.Len(t, det.Spans, 2)

	assert.Equal(t, []string{"leverage", "KPIs"}, terms(det.Spans))
	assert.Equal(t, 11, det.Spans[0].Start)
	assert.Equal(t, 19, det.Spans[0].End)
	assert.Equal(t, 24, det.Spans[1].Start)
	assert.Equal(t, HeuristicConfidence, det.Spans[1].Confidence)

	require.True(t, det.HasScore)
	assert.InDelta(t, 2.0/6.0*HeuristicConfidence*2, det.Score, 1e-9)
}

func TestHeuristicDetector_WordBoundaries(t *testing.T) {
	d := NewHeuristicDetector(nil)

	tests := []struct {
		text string
		want []string
	}{
		{"I pinged her", []string{}},
		{"ping me.", []string{"ping"}},
		{"the deck, please", []string{"deck"}},
		{"a decked hall", []string{}},
		{"real synergies here", []string{"synergies"}},
		{"Circle Back later", []string{"Circle Back"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			det, err := d.Detect(context.Background(), tt.text, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, terms(det.Spans))
		})
	}
}

func TestHeuristicDetector_LongestMatchWins(t *testing.T) {
	d := NewHeuristicDetector([]string{"burn", "burn rate"})

	det, err := d.Detect(context.Background(), "our burn rate is high", nil)
	require.NoError(t, err)
	require.Len(t, det.Spans, 1)
	assert.Equal(t, "burn rate", det.Spans[0].Term)
}

func TestHeuristicDetector_NoMatches(t *testing.T) {
	d := NewHeuristicDetector(nil)

	det, err := d.Detect(context.Background(), "The meeting moved to Tuesday.", nil)
	require.NoError(t, err)
	assert.Empty(t, det.Spans)
	assert.Zero(t, det.Score)
}
