package thinking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

// TestProperty_StepCapAndConfidenceRange checks that no run exceeds its
// requested thought budget and every generated thought stays in range.
func TestProperty_StepCapAndConfidenceRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		goal := rapid.StringMatching(`[a-z]{1,8}( [a-zA-Z]{1,12}){0,8}`).Draw(rt, "goal")
		maxThoughts := rapid.IntRange(1, 20).Draw(rt, "maxThoughts")
		branching := rapid.Bool().Draw(rt, "branching")
		hypotheses := rapid.Bool().Draw(rt, "hypotheses")

		e := NewEngine(DefaultConfig(), zap.NewNop())
		res, err := e.Start(context.Background(), StartRequest{
			Goal:              goal,
			MaxThoughts:       maxThoughts,
			AllowBranching:    branching,
			RequireHypotheses: hypotheses,
		})
		require.NoError(rt, err)

		s := res.Session
		assert.LessOrEqual(rt, s.CurrentThought, maxThoughts)
		assert.True(rt, s.IsComplete)
		for i, th := range s.Thoughts {
			assert.GreaterOrEqual(rt, th.Confidence, minThoughtConfidence)
			assert.LessOrEqual(rt, th.Confidence, maxThoughtConfidence)
			if i > 0 {
				assert.Greater(rt, th.ThoughtNumber, s.Thoughts[i-1].ThoughtNumber)
			}
		}
		assert.GreaterOrEqual(rt, res.Confidence, 0.0)
		assert.LessOrEqual(rt, res.Confidence, 1.0)
		assert.LessOrEqual(rt, len([]rune(res.FinalAnswer)), maxAnswerLength)
	})
}

func TestProperty_ComplexityScoreBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		goal := rapid.String().Draw(rt, "goal")
		c := ComplexityScore(goal)
		assert.GreaterOrEqual(rt, c, 0.5)
		assert.LessOrEqual(rt, c, 1.0)
	})
}
