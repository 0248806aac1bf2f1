package assessment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestScoreLogicalConsistency(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"neutral", "the cache stores values", 0.8},
		{"contradiction", "these statements contradict each other", 0.4},
		{"connective", "Therefore the result holds", 0.9},
		{"short conclusion", "The conclusion is yes", 0.7},
		{"conclusion with steps", "step one: the conclusion is yes", 0.8},
		{"self correction", "on second thought the map is fine", 0.85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ScoreLogicalConsistency(tt.text), 1e-9)
		})
	}
}

func TestScoreEvidenceBasis(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"no evidence", "the cache stores values in memory", 0.4},
		{"single keyword", "the data fits in memory", 0.6},
		{"three mentions", "according to the study the data fits", 0.8},
		{"many mentions", "According to the study, data from research shows that [1] holds", 0.9},
		{"citation only", "as shown in Table 3", 0.6},
		{"one unsupported claim", "clearly the map is right", 0.2},
		{"two unsupported claims", "clearly this is obvious", 0.1},
		{"claims with evidence", "clearly the data agrees", 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ScoreEvidenceBasis(tt.text), 1e-9)
		})
	}
}

func TestScoreCompletenessAndClarity(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0.6, ScoreCompleteness("short"), 1e-9)
	assert.InDelta(t, 0.8, ScoreCompleteness(strings.Repeat("a", 501)), 1e-9)
	assert.InDelta(t, 0.9, ScoreCompleteness(strings.Repeat("a", 1001)), 1e-9)

	assert.InDelta(t, 0.7, ScoreClarity("no sentences here"), 1e-9)
	assert.InDelta(t, 0.8, ScoreClarity("a. b. c. d."), 1e-9)
	assert.InDelta(t, 0.9, ScoreClarity("a. b. c. "+strings.Repeat("d", 200)), 1e-9)
}

func TestScoreBiasAwareness(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0.8, ScoreBiasAwareness("Consider another viewpoint"), 1e-9)
	assert.InDelta(t, 0.5, ScoreBiasAwareness("We always do this"), 1e-9)
	assert.InDelta(t, 0.7, ScoreBiasAwareness("Consider that we never lose"), 1e-9)
	// "all" only counts as a whole word
	assert.InDelta(t, 0.6, ScoreBiasAwareness("a small call"), 1e-9)
}

func TestScorers_AlwaysInUnitRange(t *testing.T) {
	t.Parallel()
	reg := NewScorerRegistry()
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		for _, id := range reg.List() {
			s, _ := reg.Get(id)
			v := s.Score(text)
			if v < 0 || v > 1 {
				t.Fatalf("%s scored %v", id, v)
			}
		}
	})
}

func TestScorerRegistry(t *testing.T) {
	t.Parallel()
	reg := NewScorerRegistry()
	require.Equal(t, []string{
		PrincipleBiasAwareness,
		PrincipleClarity,
		PrincipleCompleteness,
		PrincipleEvidenceBased,
		PrincipleLogicalConsistency,
	}, reg.List())

	reg.Register(ScorerFunc{ID: PrincipleClarity, Fn: func(string) float64 { return 7 }})
	s, ok := reg.Get(PrincipleClarity)
	require.True(t, ok)
	assert.Equal(t, 1.0, s.Score("anything"), "ScorerFunc clamps")

	_, ok = reg.Get("novelty")
	assert.False(t, ok)
}
