package learning

import (
	"context"
	"testing"
	"time"

	"github.com/BaSui01/cogniflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewEngine(DefaultTunables(), zap.NewNop(), opts...), clock
}

func arrayPattern() *Pattern {
	return &Pattern{
		ID:          "pattern-array",
		Name:        "Fixed buffer cache",
		Description: "Caches responses in process",
		Body: PatternBody{
			Approach:   "Use a fixed-size array indexed by hash",
			Techniques: []string{"analysis"},
			Sequence:   []string{"hash the key", "store in slot"},
		},
		Performance: Performance{SuccessRate: 0.8, AverageQuality: 0.8},
		Contexts:    Applicability{ProblemTypes: []string{"design"}, Domains: []string{"technical"}},
		LearnedFrom: Provenance{DiscoveryMethod: "seed", Confidence: 0.9},
		Version:     "1.0",
	}
}

func cacheDemonstration() Demonstration {
	return Demonstration{
		Title:            "Cache design",
		Description:      "Pick an eviction policy",
		Input:            "Design a cache for the API",
		Context:          map[string]any{"area": "software"},
		ExpectedApproach: "systematic evaluation of eviction strategies",
		IdealProcess: []string{
			"Analyze the access pattern",
			"Compare LRU and LFU",
			"If the hit rate drops then refine the policy",
			"Evaluate memory use",
		},
		ExpectedOutput: "LRU with a size bound",
	}
}

// =============================================================================
// 反馈
// =============================================================================

func TestSubmitFeedback_CorrectionPenalizesMatchingPattern(t *testing.T) {
	e, _ := newTestEngine(t)
	p := arrayPattern()
	e.Store().AddPattern(p)

	res, err := e.SubmitFeedback(context.Background(), Feedback{
		SessionID:    "thinking-1",
		SessionType:  "sequential_thinking",
		FeedbackType: "correction",
		Rating:       2,
		Corrections: []Correction{{
			Original:   "use a fixed-size array",
			Corrected:  "use an LRU map",
			Reason:     "eviction needed",
			Confidence: 0.9,
		}},
	})
	require.NoError(t, err)

	adj := 0.9 * 0.5 / 1.2
	assert.InDelta(t, 0.8-0.15*adj, p.Performance.AverageQuality, 1e-9)
	assert.InDelta(t, 0.8-0.15*adj, p.Performance.SuccessRate, 1e-9)
	assert.InDelta(t, 0.9-0.1*adj, p.LearnedFrom.Confidence, 1e-9)
	assert.Equal(t, []string{res.FeedbackID}, p.LearnedFrom.FeedbackIDs)
	assert.Equal(t, []string{p.ID}, res.AdjustedPatterns)
	assert.Empty(t, res.CreatedPatterns)

	rules := e.Store().Rules()
	require.Len(t, rules, 1)
	r := rules[0]
	assert.Equal(t, AdjustStrategy, r.Adaptation.AdjustmentType)
	assert.Equal(t, PriorityHigh, r.Priority)
	assert.Equal(t, p.ID, r.Adaptation.Modifications.TargetPatternID)
	assert.InDelta(t, 0.54, r.Trigger.Threshold, 1e-9)
	assert.InDelta(t, 0.235, r.Adaptation.ExpectedImprovement, 1e-9)
	assert.Equal(t, 1, e.Stats().TotalFeedbackProcessed)
	assert.Equal(t, 1, e.Stats().RulesCreated)
}

func TestSubmitFeedback_UnmatchedConfidentCorrectionCreatesPattern(t *testing.T) {
	e, _ := newTestEngine(t)
	res, err := e.SubmitFeedback(context.Background(), Feedback{
		SessionID: "thinking-2",
		Rating:    3,
		Context:   map[string]any{"problemType": "design", "complexity": 5.0},
		Corrections: []Correction{
			{Original: "poll the database", Corrected: "subscribe to changes", Reason: "latency", Confidence: 0.8},
			{Original: "ignored", Corrected: "ignored too", Reason: "weak", Confidence: 0.5},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.CreatedPatterns, 1)

	p, ok := e.Store().Pattern(res.CreatedPatterns[0])
	require.True(t, ok)
	assert.Equal(t, "feedback_correction", p.LearnedFrom.DiscoveryMethod)
	assert.InDelta(t, 0.64, p.Performance.AverageQuality, 1e-9)
	assert.Equal(t, 0, p.Performance.UsageCount)
	assert.Equal(t, []string{"design"}, p.Contexts.ProblemTypes)
	assert.Equal(t, Range{Min: 5, Max: 5}, p.Contexts.ComplexityRange)
	assert.InDelta(t, 0.7, p.Contexts.SimilarityThreshold, 1e-9)
	assert.Equal(t, 1, e.Stats().PatternsRecognized)
}

func TestSubmitFeedback_PreferenceTable(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.SubmitFeedback(context.Background(), Feedback{
		SessionID:   "thinking-3",
		SessionType: "sequential_thinking",
		Rating:      4,
		Preferences: []Preference{
			{Aspect: "reasoning_style", Preference: "concise", Strength: 0.8},
			{Aspect: "level_of_detail", Preference: "high", Strength: 0.5},
			{Aspect: "risk_tolerance", Preference: "cautious", Strength: 1},
			{Aspect: "output_format", Preference: "markdown", Strength: 1},
			{Aspect: "tone", Preference: "friendly", Strength: 1},
		},
	})
	require.NoError(t, err)

	rules := e.Store().Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, AdjustStrategy, rules[0].Adaptation.AdjustmentType)
	assert.InDelta(t, 0.56, rules[0].Trigger.Threshold, 1e-9)
	assert.Equal(t, preferenceFrequency, rules[0].Trigger.Frequency)
	assert.InDelta(t, 0.13, rules[0].Adaptation.ExpectedImprovement, 1e-9)
	assert.Equal(t, PriorityMedium, rules[0].Priority)

	assert.Equal(t, AdjustParameters, rules[1].Adaptation.AdjustmentType)
	require.NotNil(t, rules[1].Adaptation.Modifications.DetailLevelModifier)
	assert.InDelta(t, 0.2, *rules[1].Adaptation.Modifications.DetailLevelModifier, 1e-9)

	assert.Equal(t, PriorityHigh, rules[2].Priority)
	require.NotNil(t, rules[2].Adaptation.Modifications.Style)
	assert.True(t, rules[2].Adaptation.Modifications.Style.PreferHighConfidence)
}

func TestSubmitFeedback_SuggestionEmphasizesTechniques(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.SubmitFeedback(context.Background(), Feedback{
		SessionID:   "thinking-4",
		Rating:      5,
		Suggestions: []string{"Compare the options before you decide", "be nicer"},
	})
	require.NoError(t, err)

	rules := e.Store().Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, AdjustTechniqueEmphasis, rules[0].Adaptation.AdjustmentType)
	assert.Equal(t, []string{"comparison"}, rules[0].Adaptation.Modifications.TechniquesToEmphasize)
}

func TestSubmitFeedback_Validation(t *testing.T) {
	e, _ := newTestEngine(t)
	tests := []struct {
		name string
		fb   Feedback
	}{
		{"missing session", Feedback{Rating: 3}},
		{"rating too high", Feedback{SessionID: "s", Rating: 6}},
		{"negative rating", Feedback{SessionID: "s", Rating: -1}},
		{"empty correction", Feedback{SessionID: "s", Rating: 3, Corrections: []Correction{{Corrected: "x"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.SubmitFeedback(context.Background(), tt.fb)
			require.Error(t, err)
			assert.True(t, types.IsErrorCode(err, types.ErrInvalidArgument))
		})
	}
	assert.Empty(t, e.Feedback())
}

// =============================================================================
// 适应
// =============================================================================

func TestAdapt_FrequencyGate(t *testing.T) {
	e, clock := newTestEngine(t)
	_, err := e.SubmitFeedback(context.Background(), Feedback{
		SessionID:   "s1",
		Rating:      3,
		Preferences: []Preference{{Aspect: "reasoning_style", Preference: "concise", Strength: 1}},
	})
	require.NoError(t, err)

	res, err := e.Adapt(context.Background(), AdaptRequest{})
	require.NoError(t, err)
	assert.Len(t, res.Applied, 1)
	assert.InDelta(t, 1.0, e.Style().Brevity, 1e-9)
	assert.InDelta(t, 0.2, e.Style().Verbosity, 1e-9)

	res, err = e.Adapt(context.Background(), AdaptRequest{})
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	assert.Equal(t, 1, res.Skipped)

	res, err = e.Adapt(context.Background(), AdaptRequest{Force: true})
	require.NoError(t, err)
	assert.Len(t, res.Applied, 1)

	clock.Advance(7 * time.Hour)
	res, err = e.Adapt(context.Background(), AdaptRequest{})
	require.NoError(t, err)
	assert.Len(t, res.Applied, 1)

	assert.Equal(t, 3, e.Stats().AdaptationsApplied)
	assert.Equal(t, 3, e.Store().Rules()[0].Application.AppliedCount)
}

func TestAdapt_CorrectionRuleRewritesPattern(t *testing.T) {
	log := types.NewLearningLog()
	e, _ := newTestEngine(t, WithJournal(log))
	p := arrayPattern()
	e.Store().AddPattern(p)
	_, err := e.SubmitFeedback(context.Background(), Feedback{
		SessionID: "s1",
		Rating:    2,
		Corrections: []Correction{{
			Original: "use a fixed-size array", Corrected: "use an LRU map", Reason: "eviction needed", Confidence: 0.9,
		}},
	})
	require.NoError(t, err)

	res, err := e.Adapt(context.Background(), AdaptRequest{Priority: PriorityLow})
	require.NoError(t, err)
	assert.Empty(t, res.Applied)

	res, err = e.Adapt(context.Background(), AdaptRequest{Priority: PriorityHigh})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, "use an LRU map indexed by hash", p.Body.Approach)
	assert.Equal(t, "1.1", p.Version)
	assert.Len(t, log.Tagged("adaptation"), 1)
}

func TestAdapt_TuningClampsAndDomainFilter(t *testing.T) {
	e, _ := newTestEngine(t)
	high, low := 1.7, -0.5
	e.Store().AddRule(&Rule{
		ID:         "rule-tune",
		Name:       "tune",
		Adaptation: Adaptation{AdjustmentType: AdjustParameters, Modifications: Modifications{FeedbackWeight: &high, PatternThreshold: &low, Domains: []string{"technical"}}},
		Evidence:   Evidence{Confidence: 1},
		Priority:   PriorityMedium,
	})

	res, err := e.Adapt(context.Background(), AdaptRequest{Domains: []string{"medical"}})
	require.NoError(t, err)
	assert.Empty(t, res.Applied)

	res, err = e.Adapt(context.Background(), AdaptRequest{Domains: []string{"technical"}})
	require.NoError(t, err)
	assert.Len(t, res.Applied, 1)
	assert.Equal(t, 1.0, e.Tunables().FeedbackWeight)
	assert.Equal(t, 0.0, e.Tunables().PatternThreshold)

	_, err = e.Adapt(context.Background(), AdaptRequest{Priority: "urgent"})
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidArgument))
}

func TestAdapt_TechniqueEmphasis(t *testing.T) {
	e, _ := newTestEngine(t)
	p := arrayPattern()
	e.Store().AddPattern(p)
	e.Store().AddRule(&Rule{
		ID:   "rule-tech",
		Name: "emphasize analysis",
		Adaptation: Adaptation{AdjustmentType: AdjustTechniqueEmphasis, Modifications: Modifications{
			TechniquesToEmphasize: []string{"analysis"}, EmphasisFactor: 0.1, EmphasizedTechniques: []string{"analysis"},
		}},
		Evidence: Evidence{Confidence: 0.5},
	})

	_, err := e.Adapt(context.Background(), AdaptRequest{})
	require.NoError(t, err)
	assert.InDelta(t, 0.9, p.Performance.AverageQuality, 1e-9)
	assert.InDelta(t, 0.85, p.Performance.SuccessRate, 1e-9)
	r, _ := e.Store().Rule("rule-tech")
	assert.InDelta(t, 0.6, r.Evidence.Confidence, 1e-9)
}

func newTunedEngine(t *testing.T, tune func(*Tunables)) *Engine {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tun := DefaultTunables()
	tune(&tun)
	return NewEngine(tun, zap.NewNop(), WithClock(clock.Now))
}

func TestSubmitFeedback_CorrectionMatchFloor(t *testing.T) {
	tests := []struct {
		name        string
		original    string
		wantAdjusts bool
	}{
		// 只命中方法，恰好 0.5，计为匹配
		{name: "approach only", original: "use a fixed-size array", wantAdjusts: true},
		{name: "description only", original: "caches responses", wantAdjusts: false},
		{name: "approach and step", original: "hash", wantAdjusts: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			p := arrayPattern()
			e.Store().AddPattern(p)

			res, err := e.SubmitFeedback(context.Background(), Feedback{
				SessionID:   "s1",
				Rating:      3,
				Corrections: []Correction{{Original: tt.original, Corrected: "x", Confidence: 0.5}},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantAdjusts, len(res.AdjustedPatterns) == 1)
			assert.Equal(t, tt.wantAdjusts, p.Performance.AverageQuality < 0.8)
			assert.Empty(t, res.CreatedPatterns)
		})
	}
}

func TestSubmitFeedback_FeedbackWeightScalesPenalty(t *testing.T) {
	penalty := func(weight float64) float64 {
		e := newTunedEngine(t, func(tun *Tunables) { tun.FeedbackWeight = weight })
		p := arrayPattern()
		e.Store().AddPattern(p)
		_, err := e.SubmitFeedback(context.Background(), Feedback{
			SessionID:   "s1",
			Rating:      2,
			Corrections: []Correction{{Original: "use a fixed-size array", Corrected: "use an LRU map", Confidence: 0.9}},
		})
		require.NoError(t, err)
		return 0.8 - p.Performance.AverageQuality
	}

	full := penalty(DefaultTunables().FeedbackWeight)
	assert.InDelta(t, 0.15*0.9*0.5/1.2, full, 1e-9)
	assert.InDelta(t, full/2, penalty(DefaultTunables().FeedbackWeight/2), 1e-9)
	assert.Zero(t, penalty(0))
}

func TestAdapt_AggressivenessScalesGate(t *testing.T) {
	tests := []struct {
		aggressiveness float64
		wantApplied    int
	}{
		{aggressiveness: 0, wantApplied: 0},
		{aggressiveness: 0.5, wantApplied: 0},
		{aggressiveness: 1, wantApplied: 1},
	}
	for _, tt := range tests {
		e := newTunedEngine(t, func(tun *Tunables) { tun.AdaptationAggressiveness = tt.aggressiveness })
		e.Store().AddPattern(arrayPattern())
		e.Store().AddRule(&Rule{
			ID:   "rule-gate",
			Name: "emphasize analysis",
			Adaptation: Adaptation{AdjustmentType: AdjustTechniqueEmphasis, Modifications: Modifications{
				TechniquesToEmphasize: []string{"analysis"}, EmphasisFactor: 0.1,
			}},
			Trigger:  Trigger{Threshold: 0.6},
			Evidence: Evidence{Confidence: 0.5},
		})

		res, err := e.Adapt(context.Background(), AdaptRequest{})
		require.NoError(t, err)
		assert.Len(t, res.Applied, tt.wantApplied, "aggressiveness %.1f", tt.aggressiveness)
	}
}

// =============================================================================
// 示范
// =============================================================================

func TestDemonstrate_CreateThenRefine(t *testing.T) {
	e, _ := newTestEngine(t)
	first, err := e.Demonstrate(context.Background(), cacheDemonstration())
	require.NoError(t, err)
	assert.False(t, first.Refined)

	ex := first.Example
	assert.ElementsMatch(t, []string{"analysis", "evaluation", "comparison"}, ex.LearningPoints.Techniques)
	assert.Equal(t, []string{"systematic_approach"}, ex.LearningPoints.Principles)
	assert.ElementsMatch(t, []string{"multi_step_reasoning", "conditional_reasoning", "iterative_refinement"}, ex.LearningPoints.Patterns)
	assert.Equal(t, []string{"design"}, ex.Applicability.ProblemTypes)
	assert.Equal(t, []string{"technical"}, ex.Applicability.Domains)

	p, ok := e.Store().Pattern(first.PatternID)
	require.True(t, ok)
	assert.Equal(t, 1, p.Performance.UsageCount)
	assert.Equal(t, []string{"ProblemType IN (design)", "Domain IN (technical)"}, p.Body.Conditions)
	assert.InDelta(t, 1.0, Similarity(p, ex), 1e-9)

	q := 0.5
	demo := cacheDemonstration()
	demo.QualityRating = &q
	second, err := e.Demonstrate(context.Background(), demo)
	require.NoError(t, err)
	assert.True(t, second.Refined)
	assert.Equal(t, first.PatternID, second.PatternID)
	assert.Equal(t, 2, p.Performance.UsageCount)
	assert.InDelta(t, 0.75, p.Performance.AverageQuality, 1e-9)
	assert.Equal(t, "1.1", p.Version)
	assert.Len(t, p.LearnedFrom.ExampleIDs, 2)

	stats := e.Stats()
	assert.Equal(t, 2, stats.ExamplesLearned)
	assert.Equal(t, 1, stats.PatternsRecognized)
}

func TestDemonstrate_Validation(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Demonstrate(context.Background(), Demonstration{Input: "x"})
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidArgument))

	bad := 1.5
	d := cacheDemonstration()
	d.QualityRating = &bad
	_, err = e.Demonstrate(context.Background(), d)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidArgument))
}

func TestGeneralizeConditions_Fallback(t *testing.T) {
	assert.Equal(t, []string{"General_Applicability"}, generalizeConditions(Applicability{}))
}

// =============================================================================
// 推荐与指标
// =============================================================================

func TestRecommend_EndorsementRule(t *testing.T) {
	e, _ := newTestEngine(t)
	demo, err := e.Demonstrate(context.Background(), cacheDemonstration())
	require.NoError(t, err)

	p, ok := e.Recommend(context.Background(), "s-rec", "Design a storage layer")
	require.True(t, ok)
	assert.Equal(t, demo.PatternID, p.ID)
	assert.Equal(t, 2, p.Performance.UsageCount)

	_, ok = e.Recommend(context.Background(), "s-other", "Predict next quarter")
	assert.False(t, ok)

	_, err = e.SubmitFeedback(context.Background(), Feedback{SessionID: "s-rec", Rating: 5})
	require.NoError(t, err)
	rules := e.Store().Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, AdjustApproachSelection, rules[0].Adaptation.AdjustmentType)
	assert.Equal(t, p.ID, rules[0].Adaptation.Modifications.PrioritizePatternID)
}

func TestMetrics(t *testing.T) {
	quality := map[string]float64{"s1": 0.9}
	e, clock := newTestEngine(t, WithQualityLookup(func(id string) (float64, bool) {
		q, ok := quality[id]
		return q, ok
	}))

	m, err := e.Metrics(TimeframeDay, false)
	require.NoError(t, err)
	assert.Equal(t, NoPerformanceData, m.Message)
	assert.Empty(t, m.Insights)

	_, err = e.SubmitFeedback(context.Background(), Feedback{SessionID: "s1", SessionType: "sequential_thinking", Rating: 5})
	require.NoError(t, err)
	clock.Advance(time.Hour)

	m, err = e.Metrics(TimeframeDay, true)
	require.NoError(t, err)
	assert.Empty(t, m.Message)
	assert.Equal(t, 1, m.Performance.TotalSessions)
	assert.Equal(t, 0.9, m.Performance.AverageQuality)
	assert.Equal(t, 1.0, m.Performance.AverageSatisfaction)
	assert.Equal(t, 0.0, m.Performance.ImprovementRate)
	assert.Equal(t, []string{"High quality reasoning performance maintained", "User satisfaction is high"}, m.Insights)
	require.NotNil(t, m.Breakdown)
	assert.Len(t, m.Breakdown.QualityOverTime, 1)
	assert.Equal(t, 1, m.Learning.TotalFeedbackProcessed)

	_, err = e.Metrics("decade", false)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidArgument))
}

func TestImprovementRate(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	trackers := []*PerformanceTracker{
		{Window: TrackerWindow{Start: start, End: start.Add(24 * time.Hour)}, Metrics: TrackerMetrics{AverageQuality: 0.5}},
		{Window: TrackerWindow{Start: start.Add(24 * time.Hour), End: start.Add(48 * time.Hour)}, Metrics: TrackerMetrics{AverageQuality: 0.7}},
	}
	assert.InDelta(t, 0.1, improvementRate(trackers), 1e-9)
	assert.Equal(t, 0.0, improvementRate(trackers[:1]))
}

func TestSnapshotRestore(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Demonstrate(context.Background(), cacheDemonstration())
	require.NoError(t, err)
	_, err = e.SubmitFeedback(context.Background(), Feedback{SessionID: "s1", Rating: 4})
	require.NoError(t, err)

	snap := e.Snapshot()
	other, _ := newTestEngine(t)
	other.Restore(snap)

	assert.Equal(t, e.Stats(), other.Stats())
	assert.Len(t, other.Store().Patterns(PatternFilter{}), 1)
	assert.Len(t, other.Examples(), 1)
	assert.Len(t, other.Feedback(), 1)
	assert.Len(t, other.Performance(), 1)
}

func TestDemonstrate_ExampleInfluenceScalesRefinement(t *testing.T) {
	quality := func(influence float64) float64 {
		e := newTunedEngine(t, func(tun *Tunables) { tun.ExampleInfluence = influence })
		first, err := e.Demonstrate(context.Background(), cacheDemonstration())
		require.NoError(t, err)

		q := 0.5
		demo := cacheDemonstration()
		demo.QualityRating = &q
		second, err := e.Demonstrate(context.Background(), demo)
		require.NoError(t, err)
		require.True(t, second.Refined)

		p, _ := e.Store().Pattern(first.PatternID)
		return p.Performance.AverageQuality
	}

	assert.InDelta(t, 0.75, quality(DefaultTunables().ExampleInfluence), 1e-9)
	assert.InDelta(t, 0.5, quality(0.8), 1e-9, "weight is capped at 1")
	assert.InDelta(t, 0.875, quality(0.2), 1e-9)
}

func TestMetrics_ReportsAdaptationState(t *testing.T) {
	e, _ := newTestEngine(t)
	m, err := e.Metrics(TimeframeDay, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultTunables(), m.Tunables)
	assert.Equal(t, e.Style(), m.Style)
}
