package assessment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func craftedAssessment(id string, at time.Time, overall float64, clarity float64, flaws ...Flaw) *SelfAssessment {
	return &SelfAssessment{
		ID:                id,
		TargetID:          "t-" + id,
		Timestamp:         at,
		OverallScore:      overall,
		OverallEvaluation: DefaultFrameworkThresholds.Evaluate(overall),
		PrincipleAssessments: []PrincipleAssessment{
			{PrincipleID: PrincipleClarity, Score: clarity, Evaluation: principleThresholds.Evaluate(clarity)},
			{PrincipleID: PrincipleEvidenceBased, Score: 0.4, Flaws: flaws},
		},
	}
}

func TestAggregator_EmptyWindowIsZero(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewAggregator(24*time.Hour, func() time.Time { return now })
	history := []*SelfAssessment{craftedAssessment("a1", now.Add(-72*time.Hour), 0.9, 0.9)}
	tf := Timeframe{Start: now.Add(-2 * time.Hour), End: now}

	m := g.Calculate(history, nil, tf)
	require.NotNil(t, m)
	assert.Equal(t, tf, m.Timeframe)
	assert.Zero(t, m.TotalAssessments)
	assert.Zero(t, m.AverageScore)
	assert.Zero(t, m.ClarityScore)
	assert.Equal(t, map[Evaluation]int{
		EvaluationExcellent: 0, EvaluationGood: 0, EvaluationAcceptable: 0, EvaluationPoor: 0,
	}, m.ScoreDistribution)
	assert.Empty(t, m.CommonFlaws)
	assert.Empty(t, m.ImprovementTrends)
	assert.Equal(t, Effectiveness{}, m.CorrectionEffectiveness)
}

func TestEngine_QualityMetricsWithoutHistory(t *testing.T) {
	t.Parallel()
	e := NewEngine(DefaultConfig(), zap.NewNop())
	m := e.QualityMetrics(Timeframe{})
	assert.Zero(t, m.TotalAssessments)
	assert.WithinDuration(t, m.Timeframe.End.Add(-24*time.Hour), m.Timeframe.Start, time.Second)
}

func TestAggregator_Calculate(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewAggregator(24*time.Hour, func() time.Time { return now })

	missing := func(sev Severity) Flaw { return Flaw{Type: FlawMissingEvidence, Severity: sev} }
	bias := Flaw{Type: FlawBias, Severity: SeverityMedium}
	history := []*SelfAssessment{
		craftedAssessment("a3", now.Add(-1*time.Hour), 0.85, 0.9, missing(SeverityHigh)),
		craftedAssessment("a1", now.Add(-3*time.Hour), 0.5, 0.2, missing(SeverityMedium), bias),
		craftedAssessment("a2", now.Add(-2*time.Hour), 0.65, 0.8, missing(SeverityMedium)),
		craftedAssessment("old", now.Add(-48*time.Hour), 0.1, 0.1, bias),
	}

	m := g.Calculate(history, nil, Timeframe{})
	assert.Equal(t, 3, m.TotalAssessments)
	assert.InDelta(t, 2.0/3.0, m.AverageScore, 1e-9)
	assert.Equal(t, 1, m.ScoreDistribution[EvaluationExcellent])
	assert.Equal(t, 1, m.ScoreDistribution[EvaluationGood])
	assert.Equal(t, 1, m.ScoreDistribution[EvaluationAcceptable])
	assert.InDelta(t, (0.9+0.2+0.8)/3, m.ClarityScore, 1e-9)
	assert.Equal(t, 1, m.UnclearReasoning)

	require.Len(t, m.CommonFlaws, 2)
	assert.Equal(t, FlawCount{Type: FlawMissingEvidence, Count: 3, AverageSeverity: SeverityMedium}, m.CommonFlaws[0])
	assert.Equal(t, FlawCount{Type: FlawBias, Count: 1, AverageSeverity: SeverityMedium}, m.CommonFlaws[1])

	require.Len(t, m.ImprovementTrends, 1)
	assert.Equal(t, "overall", m.ImprovementTrends[0].Principle)
	assert.Equal(t, TrendImproving, m.ImprovementTrends[0].TrendDirection)
	assert.InDelta(t, 0.35, m.ImprovementTrends[0].ChangeRate, 1e-9)

	t.Run("filter", func(t *testing.T) {
		only := m.Filter([]string{"bias"})
		require.Len(t, only.CommonFlaws, 1)
		assert.Equal(t, FlawBias, only.CommonFlaws[0].Type)
		assert.Empty(t, only.ImprovementTrends)
		assert.Len(t, m.CommonFlaws, 2, "filter does not mutate the source")

		trends := m.Filter([]string{"improvementTrends"})
		assert.Empty(t, trends.CommonFlaws)
		assert.Len(t, trends.ImprovementTrends, 1)

		assert.Same(t, m, m.Filter(nil))
	})
}

func TestTrendDirection(t *testing.T) {
	t.Parallel()
	assert.Equal(t, TrendImproving, trendDirection(0.06))
	assert.Equal(t, TrendDeclining, trendDirection(-0.06))
	assert.Equal(t, TrendStable, trendDirection(0.05))
	assert.Equal(t, TrendStable, trendDirection(-0.05))
}

func TestCritique(t *testing.T) {
	t.Parallel()
	good := newFakeArtifact("thinking-good",
		"Consider another perspective. According to the study, the data shows that caching helps. "+
			"Therefore we add a cache. Research in Table 2 indicates that latency drops.")
	weak := newFakeArtifact("chain-weak", plainTranscript)
	weak.kind = string(TargetReasoningChain)
	arts := map[string]*fakeArtifact{good.id: good, weak.id: weak}

	e := newTestEngine(t, WithResolver(ResolverFunc(func(tt TargetType, id string) (Artifact, bool) {
		a, ok := arts[id]
		if !ok || a.kind != string(tt) {
			return nil, false
		}
		return a, true
	})))

	_, err := e.Critique(context.Background(), CritiqueRequest{})
	require.Error(t, err)

	s, err := e.Critique(context.Background(), CritiqueRequest{
		Goal:      "review caching work",
		TargetIDs: []string{"thinking-good", "ghost", "chain-weak"},
	})
	require.NoError(t, err)
	assert.Equal(t, CritiqueCompleted, s.Status)
	require.NotNil(t, s.EndTime)
	assert.Len(t, s.TargetAssessments, 2)
	assert.Equal(t, []string{"ghost"}, s.Unresolved)
	require.Len(t, s.CorrectionsPlan, 1)
	assert.Equal(t, "chain-weak-1", s.CorrectionsPlan[0].TargetComponent)
	assert.Equal(t, []string{
		"Continue systematic constitutional assessment",
		"Focus on applying high-priority corrections",
	}, s.Recommendations)
	assert.Equal(t, []string{"missing_evidence appeared 1 times (mostly medium severity)"}, s.Learnings)
	assert.Equal(t, 2, s.OverallMetrics.TotalAssessments)
	assert.Empty(t, good.notes, "critique never auto-applies")
	require.Len(t, e.Critiques(), 1)
}
