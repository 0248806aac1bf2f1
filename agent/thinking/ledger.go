package thinking

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a thinking session.
type Status string

const (
	StatusActive         Status = "active"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusPaused         Status = "paused"
	StatusAwaitingInput  Status = "awaiting_user_input"
	StatusNeedsRevision  Status = "needs_revision"
	StatusNeedsExtension Status = "needs_extension"
)

// Terminal reports whether the session has left the active set for good.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// BranchStatus is the exploration state of a branch.
type BranchStatus string

const (
	BranchExploring BranchStatus = "exploring"
	BranchResolved  BranchStatus = "resolved"
	BranchAbandoned BranchStatus = "abandoned"
)

// HypothesisStatus is the lifecycle state of a hypothesis.
type HypothesisStatus string

const (
	HypothesisForming  HypothesisStatus = "forming"
	HypothesisTesting  HypothesisStatus = "testing"
	HypothesisVerified HypothesisStatus = "verified"
	HypothesisRefuted  HypothesisStatus = "refuted"
)

// Open reports whether the hypothesis still awaits a verdict.
func (s HypothesisStatus) Open() bool {
	return s == HypothesisForming || s == HypothesisTesting
}

// ThoughtStep is one entry of the ledger.
type ThoughtStep struct {
	ID             string    `json:"id"`
	ThoughtNumber  int       `json:"thought_number"`
	Content        string    `json:"content"`
	Confidence     float64   `json:"confidence"`
	Timestamp      time.Time `json:"timestamp"`
	IsRevision     bool      `json:"is_revision"`
	RevisesThought int       `json:"revises_thought,omitempty"`
	BranchID       string    `json:"branch_id,omitempty"`
}

// CorrectionNote is an assessment correction attached to a thought. Notes
// sit outside the step sequence: they never take a thought number and are
// not part of the transcript.
type CorrectionNote struct {
	ThoughtID     string    `json:"thought_id"`
	ThoughtNumber int       `json:"thought_number,omitempty"`
	Note          string    `json:"note"`
	Timestamp     time.Time `json:"timestamp"`
}

// BranchOutcome summarizes a resolved branch.
type BranchOutcome struct {
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
}

// ThoughtBranch is an alternate sub-ledger forked from a main-line thought.
type ThoughtBranch struct {
	ID            string         `json:"id"`
	ParentThought int            `json:"parent_thought"`
	Description   string         `json:"description"`
	Confidence    float64        `json:"confidence"`
	Thoughts      []ThoughtStep  `json:"thoughts"`
	IsActive      bool           `json:"is_active"`
	Status        BranchStatus   `json:"status"`
	Outcome       *BranchOutcome `json:"outcome,omitempty"`
}

// HypothesisTest is a claim under test during a session.
type HypothesisTest struct {
	ID              string           `json:"id"`
	Hypothesis      string           `json:"hypothesis"`
	Evidence        []string         `json:"evidence"`
	CounterEvidence []string         `json:"counter_evidence"`
	Confidence      float64          `json:"confidence"`
	Status          HypothesisStatus `json:"status"`
	Timestamp       time.Time        `json:"timestamp"`
}

// Metadata carries session bookkeeping.
type Metadata struct {
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	TotalRevisions  int        `json:"total_revisions"`
	BranchingPoints int        `json:"branching_points"`
	ComplexityScore float64    `json:"complexity_score"`
}

// Options are the per-session switches chosen at start.
type Options struct {
	AllowBranching    bool `json:"allow_branching"`
	RequireHypotheses bool `json:"require_hypotheses"`
}

// Session is a sequential thinking session and its ledger.
type Session struct {
	ID                    string           `json:"id"`
	Goal                  string           `json:"goal"`
	Context               map[string]any   `json:"context,omitempty"`
	CurrentThought        int              `json:"current_thought"`
	TotalThoughtsEstimate int              `json:"total_thoughts_estimate"`
	MaxThoughts           int              `json:"max_thoughts"`
	Thoughts              []ThoughtStep    `json:"thoughts"`
	Branches              []ThoughtBranch  `json:"branches"`
	Hypotheses            []HypothesisTest `json:"hypotheses"`
	Corrections           []CorrectionNote `json:"corrections,omitempty"`
	IsComplete            bool             `json:"is_complete"`
	FinalAnswer           string           `json:"final_answer,omitempty"`
	Status                Status           `json:"status"`
	Metadata              Metadata         `json:"metadata"`
	Options               Options          `json:"options"`
	// Escalated is set while a low-confidence streak has already been
	// handed to the user.
	Escalated   bool      `json:"escalated,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// Append records a new thought with the next thought number and returns it.
// Earlier entries are never reordered.
func (s *Session) Append(content string, confidence float64, isRevision bool, revises int, at time.Time) ThoughtStep {
	s.CurrentThought++
	t := ThoughtStep{
		ID:            fmt.Sprintf("thought-%s-%d", s.ID, s.CurrentThought),
		ThoughtNumber: s.CurrentThought,
		Content:       content,
		Confidence:    clamp(confidence, 0, 1),
		Timestamp:     at,
		IsRevision:    isRevision,
	}
	if isRevision {
		t.RevisesThought = revises
		s.Metadata.TotalRevisions++
	}
	s.Thoughts = append(s.Thoughts, t)
	s.LastUpdated = at
	return t
}

// LastThought returns a copy of the most recent thought.
func (s *Session) LastThought() (ThoughtStep, bool) {
	if len(s.Thoughts) == 0 {
		return ThoughtStep{}, false
	}
	return s.Thoughts[len(s.Thoughts)-1], true
}

// Thought looks a thought up by number.
func (s *Session) Thought(number int) (ThoughtStep, bool) {
	for _, t := range s.Thoughts {
		if t.ThoughtNumber == number {
			return t, true
		}
	}
	return ThoughtStep{}, false
}

// ActiveBranches returns the branches still marked active.
func (s *Session) ActiveBranches() []*ThoughtBranch {
	var out []*ThoughtBranch
	for i := range s.Branches {
		if s.Branches[i].IsActive {
			out = append(out, &s.Branches[i])
		}
	}
	return out
}

// ExploringBranch returns the first branch still being explored.
func (s *Session) ExploringBranch() *ThoughtBranch {
	for i := range s.Branches {
		if s.Branches[i].Status == BranchExploring {
			return &s.Branches[i]
		}
	}
	return nil
}

// OpenHypotheses returns hypotheses still forming or under test.
func (s *Session) OpenHypotheses() []*HypothesisTest {
	var out []*HypothesisTest
	for i := range s.Hypotheses {
		if s.Hypotheses[i].Status.Open() {
			out = append(out, &s.Hypotheses[i])
		}
	}
	return out
}

// ConfidentThoughts returns non-revision thoughts at or above threshold.
func (s *Session) ConfidentThoughts(threshold float64) []ThoughtStep {
	var out []ThoughtStep
	for _, t := range s.Thoughts {
		if !t.IsRevision && t.Confidence >= threshold {
			out = append(out, t)
		}
	}
	return out
}

// Transcript renders the ledger as plain text for scoring.
func (s *Session) Transcript() string {
	var b strings.Builder
	b.WriteString(s.Goal)
	for _, t := range s.Thoughts {
		b.WriteString("\n")
		b.WriteString(t.Content)
	}
	for _, br := range s.Branches {
		if br.Outcome != nil {
			b.WriteString("\n")
			b.WriteString(br.Outcome.Summary)
		}
	}
	if s.FinalAnswer != "" {
		b.WriteString("\n")
		b.WriteString(s.FinalAnswer)
	}
	return b.String()
}

// ArtifactID identifies the session as an assessable artifact.
func (s *Session) ArtifactID() string { return s.ID }

// TargetType names the artifact kind.
func (s *Session) TargetType() string { return "sequential_thinking" }

// AnchorID returns the id corrections attach to by default.
func (s *Session) AnchorID() string {
	if t, ok := s.LastThought(); ok {
		return t.ID
	}
	return s.ID
}

// AppendCorrection attaches a correction note to the thought identified by
// anchorID, or to the session as a whole when anchorID is the session id.
// The ledger and CurrentThought are left untouched. Unknown anchors are
// rejected.
func (s *Session) AppendCorrection(anchorID, note string, at time.Time) bool {
	n := 0
	if anchorID != s.ID {
		t, ok := s.thoughtByID(anchorID)
		if !ok {
			return false
		}
		n = t.ThoughtNumber
	}
	s.Corrections = append(s.Corrections, CorrectionNote{
		ThoughtID:     anchorID,
		ThoughtNumber: n,
		Note:          note,
		Timestamp:     at,
	})
	s.LastUpdated = at
	return true
}

// CorrectionsFor returns the notes attached to thoughtID in order.
func (s *Session) CorrectionsFor(thoughtID string) []CorrectionNote {
	var out []CorrectionNote
	for _, c := range s.Corrections {
		if c.ThoughtID == thoughtID {
			out = append(out, c)
		}
	}
	return out
}

func (s *Session) thoughtByID(id string) (ThoughtStep, bool) {
	for _, t := range s.Thoughts {
		if t.ID == id {
			return t, true
		}
	}
	return ThoughtStep{}, false
}

// end stamps the end time.
func (s *Session) end(at time.Time) {
	s.Metadata.EndTime = &at
	s.LastUpdated = at
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
