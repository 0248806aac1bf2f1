package thinking

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/BaSui01/cogniflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// --- test doubles ---

type fakeMemory struct {
	items    []Recollection
	recorded []ThoughtStep
	panicOn  int
}

func (m *fakeMemory) Search(_ context.Context, _ string, maxResults int, minRelevance float64) []Recollection {
	var out []Recollection
	for _, it := range m.items {
		if it.Relevance > minRelevance && len(out) < maxResults {
			out = append(out, it)
		}
	}
	return out
}

func (m *fakeMemory) RecordThought(_ context.Context, _ string, t ThoughtStep) {
	if m.panicOn > 0 && t.ThoughtNumber == m.panicOn {
		panic("graph unavailable")
	}
	m.recorded = append(m.recorded, t)
}

type fixedAdvisor struct{ s Suggestion }

func (a fixedAdvisor) Suggest(context.Context, string) (Suggestion, bool) { return a.s, true }

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *types.LearningLog) {
	t.Helper()
	log := types.NewLearningLog()
	opts = append([]Option{WithJournal(log)}, opts...)
	return NewEngine(DefaultConfig(), zaptest.NewLogger(t), opts...), log
}

// craftedSession builds an active session with the given thought confidences.
func craftedSession(maxThoughts int, contents []string, confidences []float64) *Session {
	s := &Session{
		ID:                    "thinking-test",
		Goal:                  "abc",
		MaxThoughts:           maxThoughts,
		TotalThoughtsEstimate: maxThoughts,
		Status:                StatusActive,
		Metadata:              Metadata{StartTime: time.Now(), ComplexityScore: 0.5},
	}
	for i, c := range contents {
		s.Append(c, confidences[i], false, 0, time.Now())
	}
	return s
}

// --- Start ---

func TestEngine_Start_CachingLayerGoal(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	res, err := e.Start(context.Background(), StartRequest{
		Goal:           "Design a caching layer for a web service",
		MaxThoughts:    5,
		AllowBranching: true,
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	s := res.Session
	assert.Contains(t, []Status{StatusCompleted, StatusAwaitingInput}, s.Status)
	assert.LessOrEqual(t, s.CurrentThought, 5)
	assert.Equal(t, 5, s.TotalThoughtsEstimate)
	assert.InDelta(t, 0.7, s.Metadata.ComplexityScore, 1e-9)
	assert.NotEmpty(t, res.FinalAnswer)
	assert.LessOrEqual(t, len([]rune(res.FinalAnswer)), 500)
	assert.Equal(t, s.CurrentThought, res.Metadata.ThoughtCount)

	_, stillActive := e.Active(s.ID)
	assert.False(t, stillActive, "finished sessions leave the active set")
	found, ok := e.Lookup(s.ID)
	require.True(t, ok)
	assert.Same(t, s, found)
}

func TestEngine_Start_Validation(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	_, err := e.Start(context.Background(), StartRequest{Goal: "   "})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidArgument))
}

func TestEngine_Start_DefaultMaxThoughts(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	res, err := e.Start(context.Background(), StartRequest{Goal: "a b c"})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Session.MaxThoughts)
	assert.Equal(t, 8, res.Session.TotalThoughtsEstimate)
	assert.Equal(t, StatusCompleted, res.Session.Status)
}

func TestEngine_Start_KeywordFreeGoalTerminates(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	for _, max := range []int{1, 2, 3, 7, 15} {
		res, err := e.Start(context.Background(), StartRequest{Goal: "x y z", MaxThoughts: max, AllowBranching: true, RequireHypotheses: true})
		require.NoError(t, err)
		assert.LessOrEqual(t, res.Session.CurrentThought, max)
		assert.True(t, res.Session.IsComplete)
	}
}

func TestEngine_Start_HypothesisLifecycle(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	res, err := e.Start(context.Background(), StartRequest{
		Goal:              "Design a caching layer",
		MaxThoughts:       10,
		RequireHypotheses: true,
	})
	require.NoError(t, err)

	s := res.Session
	require.Len(t, s.Hypotheses, 1)
	h := s.Hypotheses[0]
	assert.Equal(t, HypothesisVerified, h.Status)
	assert.Len(t, h.Evidence, 2)
	assert.Empty(t, h.CounterEvidence)
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Contains(t, res.FinalAnswer, "confirmed hypothesis")
}

func TestEngine_Start_MirrorsThoughtsAndRecallsMemory(t *testing.T) {
	t.Parallel()
	mem := &fakeMemory{items: []Recollection{
		{Content: "Caches need an eviction policy. Otherwise they grow.", Relevance: 0.9},
		{Content: "too low", Relevance: 0.2},
	}}
	e, _ := newTestEngine(t, WithMemory(mem), WithAdvisor(fixedAdvisor{Suggestion{Name: "lru-first", Approach: "start from an LRU map"}}))

	res, err := e.Start(context.Background(), StartRequest{Goal: "Design a caching layer", MaxThoughts: 5})
	require.NoError(t, err)

	assert.Len(t, mem.recorded, res.Session.CurrentThought)
	approach := res.Session.Thoughts[2].Content
	assert.Contains(t, approach, `memory item "Caches need an eviction policy"`)
	assert.Contains(t, approach, `A learned pattern "lru-first" recommends: start from an LRU map.`)
	assert.NotContains(t, approach, "too low")
}

func TestEngine_Start_PanicMarksFailed(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, WithMemory(&fakeMemory{panicOn: 2}))

	res, err := e.Start(context.Background(), StartRequest{Goal: "Design a caching layer"})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, types.IsErrorCode(err, types.ErrInternalError))

	assert.Empty(t, e.ActiveSessions())
	hist := e.History()
	require.Len(t, hist, 1)
	assert.Equal(t, StatusFailed, hist[0].Status)
	assert.NotNil(t, hist[0].Metadata.EndTime)
}

func TestEngine_Start_CancelledContextPauses(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := e.Start(ctx, StartRequest{Goal: "Design a caching layer", MaxThoughts: 6})
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, res.Session.Status)
	assert.Zero(t, res.Session.CurrentThought)

	resumed, err := e.Resume(context.Background(), res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, resumed.Session.Status)
}

// --- Step ---

func TestEngine_Step_LowConfidenceRevisionAndEscalation(t *testing.T) {
	t.Parallel()
	e, log := newTestEngine(t)

	s := craftedSession(6,
		[]string{"First framing of the task.", "Second look at the inputs.", "Shaky guess at a fix."},
		[]float64{0.7, 0.7, 0.3})
	e.Restore([]*Session{s}, nil)

	more := e.Step(context.Background(), s)
	assert.False(t, more)

	require.Len(t, s.Thoughts, 4)
	rev := s.Thoughts[3]
	assert.True(t, rev.IsRevision)
	assert.Equal(t, 3, rev.RevisesThought)
	assert.Equal(t, "Revisiting thought 3 due to low confidence (0.30).", rev.Content)
	assert.InDelta(t, 0.6, rev.Confidence, 1e-9)
	assert.Equal(t, 1, s.Metadata.TotalRevisions)

	assert.Equal(t, StatusAwaitingInput, s.Status)
	entries := log.Tagged("intervention_needed")
	require.Len(t, entries, 1)
	assert.Equal(t, s.ID, entries[0].SessionID)
	assert.Equal(t, types.SeverityWarning, entries[0].Severity)
}

func TestEngine_Step_UncertaintyMarker(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	s := craftedSession(10,
		[]string{"Opening move.", "I am not sure this holds."},
		[]float64{0.7, 0.7})

	e.Step(context.Background(), s)
	require.GreaterOrEqual(t, len(s.Thoughts), 3)
	assert.Equal(t, "Addressing uncertainty from thought 2.", s.Thoughts[2].Content)
	assert.InDelta(t, 0.65, s.Thoughts[2].Confidence, 1e-9)
	assert.Equal(t, 2, s.Thoughts[2].RevisesThought)
}

func TestEngine_Step_StagnationForcesBranch(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	same := "Repeating the same observation about the system again and again."
	s := craftedSession(12,
		[]string{"Start.", same, same, same},
		[]float64{0.7, 0.7, 0.7, 0.7})
	s.Options.AllowBranching = true

	e.Step(context.Background(), s)
	assert.Equal(t, "Detected potential stagnation. Attempting to break the loop by exploring a new angle.", s.Thoughts[4].Content)
	assert.True(t, s.Thoughts[4].IsRevision)
	assert.Equal(t, 1, s.Metadata.BranchingPoints)
	require.NotEmpty(t, s.Branches)
	assert.Equal(t, BranchExploring, s.Branches[0].Status)
}

func TestEngine_Step_BranchExplorationResolves(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	s := craftedSession(12,
		[]string{"Alpha one.", "Beta two.", "Gamma three.", "Delta four."},
		[]float64{0.7, 0.7, 0.7, 0.7})
	s.Branches = append(s.Branches, ThoughtBranch{
		ID: "branch-1", ParentThought: 3, Description: "Alternative perspective from thought 3",
		Confidence: 0.7, IsActive: true, Status: BranchExploring,
	})

	require.True(t, e.Step(context.Background(), s))
	assert.Equal(t, "branch-1", s.Thoughts[4].BranchID)
	require.Len(t, s.Branches[0].Thoughts, 1)

	e.Step(context.Background(), s)
	br := s.Branches[0]
	assert.Equal(t, BranchResolved, br.Status)
	assert.False(t, br.IsActive)
	require.NotNil(t, br.Outcome)
	assert.InDelta(t, 0.8, br.Outcome.Confidence, 1e-9)
}

func TestEngine_Step_RespectsCap(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	s := craftedSession(3,
		[]string{"One.", "Two.", "Three."},
		[]float64{0.7, 0.7, 0.2})
	assert.False(t, e.Step(context.Background(), s))
	assert.Equal(t, 3, s.CurrentThought)
}

func TestEngine_Resume_Errors(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	_, err := e.Resume(context.Background(), "missing")
	assert.True(t, types.IsErrorCode(err, types.ErrTargetNotFound))

	s := craftedSession(6, nil, nil)
	s.Status = StatusAwaitingInput
	e.Restore([]*Session{s}, nil)
	_, err = e.Resume(context.Background(), s.ID)
	assert.True(t, types.IsErrorCode(err, types.ErrSessionNotActive))
}

// --- Intervene ---

func TestEngine_Intervene(t *testing.T) {
	t.Parallel()

	escalated := func(t *testing.T) (*Engine, *Session) {
		e, _ := newTestEngine(t)
		s := craftedSession(6,
			[]string{"First framing of the task.", "Second look at the inputs.", "Shaky guess at a fix."},
			[]float64{0.7, 0.7, 0.3})
		e.Restore([]*Session{s}, nil)
		e.Step(context.Background(), s)
		require.Equal(t, StatusAwaitingInput, s.Status)
		return e, s
	}

	t.Run("thought correction truncates and continues", func(t *testing.T) {
		e, s := escalated(t)
		res, err := e.Intervene(context.Background(), Intervention{
			SessionID: s.ID, Type: InterventionThoughtCorrection, ThoughtNumber: 3, Content: "Use an LRU map.",
		})
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, res.Session.Status)
		assert.Equal(t, "User Correction: Use an LRU map.", res.Session.Thoughts[2].Content)
		assert.InDelta(t, 0.95, res.Session.Thoughts[2].Confidence, 1e-9)
		assert.LessOrEqual(t, res.Session.CurrentThought, 6)
		for i := 1; i < len(res.Session.Thoughts); i++ {
			assert.Greater(t, res.Session.Thoughts[i].ThoughtNumber, res.Session.Thoughts[i-1].ThoughtNumber)
		}
	})

	t.Run("resume keeps the ledger", func(t *testing.T) {
		e, s := escalated(t)
		res, err := e.Intervene(context.Background(), Intervention{SessionID: s.ID, Type: InterventionResume})
		require.NoError(t, err)
		assert.NotEqual(t, StatusAwaitingInput, res.Session.Status)
		assert.True(t, strings.HasPrefix(res.Session.Thoughts[3].Content, "Revisiting thought 3"))
	})

	t.Run("session not waiting", func(t *testing.T) {
		e, _ := newTestEngine(t)
		s := craftedSession(6, nil, nil)
		e.Restore([]*Session{s}, nil)
		_, err := e.Intervene(context.Background(), Intervention{SessionID: s.ID, Type: InterventionResume})
		assert.True(t, types.IsErrorCode(err, types.ErrSessionNotActive))
	})

	t.Run("unknown thought", func(t *testing.T) {
		e, s := escalated(t)
		_, err := e.Intervene(context.Background(), Intervention{
			SessionID: s.ID, Type: InterventionThoughtCorrection, ThoughtNumber: 42, Content: "x",
		})
		assert.True(t, types.IsErrorCode(err, types.ErrTargetNotFound))
		assert.Equal(t, StatusAwaitingInput, s.Status)
	})

	t.Run("action override rejected", func(t *testing.T) {
		e, s := escalated(t)
		thoughts := len(s.Thoughts)
		_, err := e.Intervene(context.Background(), Intervention{SessionID: s.ID, Type: InterventionActionOverride})
		assert.True(t, types.IsErrorCode(err, types.ErrInvalidArgument))
		assert.Equal(t, StatusAwaitingInput, s.Status)
		assert.Len(t, s.Thoughts, thoughts)
	})
}
