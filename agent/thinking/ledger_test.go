package thinking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Append(t *testing.T) {
	t.Parallel()
	s := &Session{ID: "s1", MaxThoughts: 10}
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	first := s.Append("one", 1.7, false, 0, at)
	second := s.Append("two", -0.2, true, 1, at)

	assert.Equal(t, 1, first.ThoughtNumber)
	assert.Equal(t, "thought-s1-1", first.ID)
	assert.Equal(t, 1.0, first.Confidence)
	assert.Equal(t, 0.0, second.Confidence)
	assert.Equal(t, 1, second.RevisesThought)
	assert.Equal(t, 1, s.Metadata.TotalRevisions)
	assert.Equal(t, 2, s.CurrentThought)
	assert.Equal(t, at, s.LastUpdated)
}

func TestSession_Queries(t *testing.T) {
	t.Parallel()
	s := &Session{ID: "s1"}
	s.Append("low", 0.4, false, 0, time.Now())
	s.Append("high", 0.9, false, 0, time.Now())
	s.Append("rev", 0.9, true, 1, time.Now())
	s.Branches = []ThoughtBranch{
		{ID: "b1", IsActive: true, Status: BranchExploring},
		{ID: "b2", IsActive: false, Status: BranchResolved},
	}
	s.Hypotheses = []HypothesisTest{
		{ID: "h1", Status: HypothesisVerified},
		{ID: "h2", Status: HypothesisTesting},
	}

	confident := s.ConfidentThoughts(0.65)
	require.Len(t, confident, 1)
	assert.Equal(t, "high", confident[0].Content)

	require.Len(t, s.ActiveBranches(), 1)
	assert.Equal(t, "b1", s.ExploringBranch().ID)
	require.Len(t, s.OpenHypotheses(), 1)
	assert.Equal(t, "h2", s.OpenHypotheses()[0].ID)

	th, ok := s.Thought(2)
	require.True(t, ok)
	assert.Equal(t, "high", th.Content)
	_, ok = s.Thought(9)
	assert.False(t, ok)
}

func TestSession_AppendCorrection(t *testing.T) {
	t.Parallel()
	s := &Session{ID: "s1", Goal: "goal text", MaxThoughts: 1}
	first := s.Append("first", 0.7, false, 0, time.Now())
	before := s.Transcript()

	assert.Equal(t, first.ID, s.AnchorID())
	assert.True(t, s.AppendCorrection(first.ID, "cite the benchmark", time.Now()))
	assert.True(t, s.AppendCorrection(s.ID, "session level", time.Now()))
	assert.False(t, s.AppendCorrection("thought-s1-99", "x", time.Now()))

	require.Len(t, s.Thoughts, 1, "corrections do not consume thought steps")
	assert.Equal(t, 1, s.CurrentThought)
	assert.Equal(t, 0, s.Metadata.TotalRevisions)
	assert.Equal(t, before, s.Transcript())

	require.Len(t, s.Corrections, 2)
	notes := s.CorrectionsFor(first.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, 1, notes[0].ThoughtNumber)
	assert.Equal(t, "cite the benchmark", notes[0].Note)
	assert.Equal(t, 0, s.Corrections[1].ThoughtNumber)
}

func TestSession_Transcript(t *testing.T) {
	t.Parallel()
	s := &Session{ID: "s1", Goal: "goal text", FinalAnswer: "final"}
	s.Append("thought body", 0.7, false, 0, time.Now())
	s.Branches = []ThoughtBranch{{Outcome: &BranchOutcome{Summary: "branch summary"}}}

	tr := s.Transcript()
	assert.Equal(t, "goal text\nthought body\nbranch summary\nfinal", tr)
	assert.False(t, strings.Contains(tr, "{"), "transcript is plain text")
	assert.Equal(t, "sequential_thinking", s.TargetType())
	assert.Equal(t, "s1", s.ArtifactID())
}
