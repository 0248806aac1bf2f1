package thinking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComplexityScore(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		goal string
		want float64
	}{
		{"plain", "fix it", 0.5},
		{"design", "Design a caching layer", 0.7},
		{"several cues", "analyze and optimize several designs", 1.0},
		{"long", strings.Repeat("x", 101), 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComplexityScore(tt.goal), 1e-9)
		})
	}
}

func TestEstimateConfidence(t *testing.T) {
	t.Parallel()
	tests := []struct {
		current, revisions int
		want               float64
	}{
		{0, 0, 0.7},
		{4, 0, 0.8},
		{6, 0, 0.9},
		{6, 2, 0.8},
		{1, 1, 0.6},
	}
	for _, tt := range tests {
		s := &Session{CurrentThought: tt.current, Metadata: Metadata{TotalRevisions: tt.revisions}}
		assert.InDelta(t, tt.want, estimateConfidence(s), 1e-9)
	}
}

func TestGoalCoverage(t *testing.T) {
	t.Parallel()
	thoughts := []ThoughtStep{{Content: "the cache must evict entries"}}
	assert.Equal(t, 1.0, goalCoverage("a b c", thoughts))
	assert.InDelta(t, 0.5, goalCoverage("cache latency", thoughts), 1e-9)
	assert.Equal(t, 1.0, goalCoverage("Cache cache", thoughts))
}

func TestSynthesizeFinalAnswer(t *testing.T) {
	t.Parallel()

	t.Run("prefers conclusion marker", func(t *testing.T) {
		s := &Session{}
		s.Append("Plain thought. More.", 0.9, false, 0, time.Now())
		s.Append("My conclusion is to shard. Details.", 0.7, false, 0, time.Now())
		got := synthesizeFinalAnswer(s)
		assert.Contains(t, got, `based on the thought "My conclusion is to shard"`)
		assert.NotContains(t, got, "most pertinent")
	})

	t.Run("falls back to last thought", func(t *testing.T) {
		s := &Session{}
		s.Append("Weak idea", 0.5, false, 0, time.Now())
		got := synthesizeFinalAnswer(s)
		assert.Contains(t, got, `"Weak idea"`)
		assert.Contains(t, got, "more definitive answer")
	})

	t.Run("empty ledger", func(t *testing.T) {
		assert.Equal(t, "I was unable to reach a definitive conclusion based on the thinking process.", synthesizeFinalAnswer(&Session{}))
	})

	t.Run("truncated to 500 runes", func(t *testing.T) {
		s := &Session{}
		for i := 0; i < 3; i++ {
			s.Append(strings.Repeat("é", 300), 0.9, false, 0, time.Now())
		}
		got := synthesizeFinalAnswer(s)
		assert.Len(t, []rune(got), 500)
		assert.True(t, strings.HasSuffix(got, "..."))
	})

	t.Run("includes verified hypothesis and branch outcome", func(t *testing.T) {
		s := &Session{}
		s.Append("Short. x", 0.9, false, 0, time.Now())
		s.Hypotheses = []HypothesisTest{{Hypothesis: "h holds", Status: HypothesisVerified, Confidence: 0.8}}
		s.Branches = []ThoughtBranch{{Description: "alt", Outcome: &BranchOutcome{Summary: "alt works. more", Confidence: 0.8}}}
		got := synthesizeFinalAnswer(s)
		assert.Contains(t, got, `confirmed hypothesis: "h holds"`)
		assert.Contains(t, got, `insights like "alt works"`)
	})
}

func TestOverallConfidenceAndPath(t *testing.T) {
	t.Parallel()
	s := &Session{}
	assert.Equal(t, 0.0, overallConfidence(s))

	for i := 0; i < 5; i++ {
		s.Append("t", 0.7, false, 0, time.Now())
	}
	s.Append("r", 0.6, true, 1, time.Now())
	// mean 0.683, -0.1 revisions, +0.1 for >= 5 thoughts
	assert.InDelta(t, (0.7*5+0.6)/6, overallConfidence(s), 1e-9)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, solutionPath(s))
	assert.Contains(t, reasoningExplanation(s), "Conducted 6 sequential thoughts with 1 revisions.")
}
