package thinking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/cogniflow/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	reviseBelow              = 0.5
	escalateBelow            = 0.4
	stagnationLookback       = 3
	minThoughtConfidence     = 0.3
	maxThoughtConfidence     = 0.95
	minThoughtsForCompletion = 4
	phaseConfidence          = 0.65
	goalCoverageRatio        = 0.7
	maxAnswerLength          = 500
	maxActiveBranches        = 2
	branchResolveAfter       = 2
	hypothesisTrials         = 2
	recallLimit              = 3
	recallMinRelevance       = 0.6
)

// Recollection is a working-memory item surfaced as context.
type Recollection struct {
	Content   string
	Relevance float64
}

// Memory is the working-memory collaborator. Search is read during content
// generation; RecordThought mirrors each thought into the knowledge graph.
type Memory interface {
	Search(ctx context.Context, query string, maxResults int, minRelevance float64) []Recollection
	RecordThought(ctx context.Context, sessionID string, thought ThoughtStep)
}

// Suggestion is a learned approach offered for a goal.
type Suggestion struct {
	PatternID  string
	Name       string
	Approach   string
	Confidence float64
}

// PatternAdvisor offers learned patterns while approaches are identified.
type PatternAdvisor interface {
	Suggest(ctx context.Context, goal string) (Suggestion, bool)
}

// Config configures the thinking engine.
type Config struct {
	DefaultMaxThoughts int  `json:"default_max_thoughts"`
	AllowBranching     bool `json:"allow_branching"`
	RequireHypotheses  bool `json:"require_hypotheses"`
	// HistoryLimit caps finished sessions kept for assessment lookups.
	HistoryLimit int `json:"history_limit"`
}

// DefaultConfig returns the stock engine settings.
func DefaultConfig() Config {
	return Config{DefaultMaxThoughts: 10, AllowBranching: true, HistoryLimit: 100}
}

// StartRequest opens a new session.
type StartRequest struct {
	Goal              string         `json:"problem"`
	Context           map[string]any `json:"context,omitempty"`
	MaxThoughts       int            `json:"max_thoughts,omitempty"`
	AllowBranching    bool           `json:"allow_branching"`
	RequireHypotheses bool           `json:"require_hypotheses"`
}

// ResultMetadata summarizes a run.
type ResultMetadata struct {
	ThoughtCount  int   `json:"thought_count"`
	RevisionCount int   `json:"revision_count"`
	BranchCount   int   `json:"branch_count"`
	SolutionPath  []int `json:"solution_path"`
}

// Result is returned after the loop yields.
type Result struct {
	Session     *Session       `json:"thinking"`
	FinalAnswer string         `json:"final_answer"`
	Confidence  float64        `json:"confidence"`
	Reasoning   string         `json:"reasoning"`
	Metadata    ResultMetadata `json:"metadata"`
}

// Engine drives thinking sessions. It is not safe for concurrent use; the
// owning service serializes calls.
type Engine struct {
	cfg     Config
	memory  Memory
	advisor PatternAdvisor
	journal types.Journal
	now     func() time.Time
	logger  *zap.Logger

	active  []*Session
	history []*Session
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMemory wires the working-memory collaborator.
func WithMemory(m Memory) Option { return func(e *Engine) { e.memory = m } }

// WithAdvisor wires learned pattern suggestions.
func WithAdvisor(a PatternAdvisor) Option { return func(e *Engine) { e.advisor = a } }

// WithJournal sets where escalations are logged.
func WithJournal(j types.Journal) Option { return func(e *Engine) { e.journal = j } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// NewEngine creates a thinking engine.
func NewEngine(cfg Config, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultMaxThoughts <= 0 {
		cfg.DefaultMaxThoughts = DefaultConfig().DefaultMaxThoughts
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultConfig().HistoryLimit
	}
	e := &Engine{
		cfg:     cfg,
		journal: types.NopJournal{},
		now:     time.Now,
		logger:  logger.With(zap.String("component", "thinking_engine")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine settings.
func (e *Engine) Config() Config { return e.cfg }

// Start opens a session and runs it until it completes, fails, pauses or
// waits for the user.
func (e *Engine) Start(ctx context.Context, req StartRequest) (*Result, error) {
	goal := strings.TrimSpace(req.Goal)
	if goal == "" {
		return nil, types.NewInvalidArgumentError("problem", "goal is required")
	}
	maxThoughts := req.MaxThoughts
	if maxThoughts <= 0 {
		maxThoughts = e.cfg.DefaultMaxThoughts
	}
	now := e.now()
	s := &Session{
		ID:                    "thinking-" + uuid.NewString(),
		Goal:                  goal,
		Context:               req.Context,
		MaxThoughts:           maxThoughts,
		TotalThoughtsEstimate: min(maxThoughts, 8),
		Thoughts:              []ThoughtStep{},
		Branches:              []ThoughtBranch{},
		Hypotheses:            []HypothesisTest{},
		Status:                StatusActive,
		Options: Options{
			AllowBranching:    req.AllowBranching,
			RequireHypotheses: req.RequireHypotheses,
		},
		Metadata: Metadata{
			StartTime:       now,
			ComplexityScore: ComplexityScore(goal),
		},
		LastUpdated: now,
	}
	e.active = append(e.active, s)

	e.logger.Info("thinking session started",
		zap.String("session_id", s.ID),
		zap.Int("max_thoughts", maxThoughts),
		zap.Float64("complexity", s.Metadata.ComplexityScore))

	return e.drive(ctx, s)
}

// Resume continues an active or paused session.
func (e *Engine) Resume(ctx context.Context, sessionID string) (*Result, error) {
	s, ok := e.Active(sessionID)
	if !ok {
		return nil, types.NewTargetNotFoundError("thinking session", sessionID)
	}
	switch s.Status {
	case StatusActive:
	case StatusPaused:
		s.Status = StatusActive
	default:
		return nil, types.Errorf(types.ErrSessionNotActive, "session %q is %s and cannot resume", s.ID, s.Status)
	}
	return e.drive(ctx, s)
}

func (e *Engine) drive(ctx context.Context, s *Session) (*Result, error) {
	err := e.run(types.WithSessionID(ctx, s.ID), s)
	if s.Status.Terminal() {
		e.retire(s)
	}
	if err != nil {
		return nil, err
	}
	return e.result(s), nil
}

// run steps the session while it is active and under the step cap.
func (e *Engine) run(ctx context.Context, s *Session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.Status = StatusFailed
			s.IsComplete = true
			s.end(e.now())
			e.logger.Error("thinking session failed",
				zap.String("session_id", s.ID),
				zap.Any("panic", r))
			err = types.Errorf(types.ErrInternalError, "sequential thinking failed: %v", r).
				WithOperation("sequential_thinking")
		}
	}()

	for !s.IsComplete && s.CurrentThought < s.MaxThoughts && s.Status == StatusActive {
		if ctx.Err() != nil {
			s.Status = StatusPaused
			s.LastUpdated = e.now()
			e.logger.Info("thinking session paused", zap.String("session_id", s.ID), zap.Error(ctx.Err()))
			break
		}
		if !e.Step(ctx, s) {
			break
		}
	}
	if s.Status == StatusActive {
		e.finalize(s)
	}
	return nil
}

// Step advances the session by one step and reports whether another step
// is warranted.
func (e *Engine) Step(ctx context.Context, s *Session) bool {
	if s.Status != StatusActive {
		return false
	}
	last, hasLast := s.LastThought()

	if hasLast && last.Confidence < reviseBelow && s.CurrentThought > 1 {
		msg := fmt.Sprintf("Revisiting thought %d due to low confidence (%.2f).", last.ThoughtNumber, last.Confidence)
		if !e.addThought(ctx, s, msg, true, 0.6, last.ThoughtNumber) {
			return false
		}
	}
	if hasLast && containsAny(last.Content, uncertaintyMarkers) {
		msg := fmt.Sprintf("Addressing uncertainty from thought %d.", last.ThoughtNumber)
		if !e.addThought(ctx, s, msg, true, 0.65, last.ThoughtNumber) {
			return false
		}
	}
	if len(s.Thoughts) > stagnationLookback && stagnating(s.Thoughts[len(s.Thoughts)-stagnationLookback:]) {
		msg := "Detected potential stagnation. Attempting to break the loop by exploring a new angle."
		if !e.addThought(ctx, s, msg, true, 0.6, last.ThoughtNumber) {
			return false
		}
		if s.Options.AllowBranching && !e.openBranch(ctx, s) {
			return false
		}
	}

	if hasLast && last.Confidence < escalateBelow && s.CurrentThought > 2 && !s.Escalated {
		e.escalate(s, last)
		return false
	}

	content, ph := e.nextContent(ctx, s)
	confidence := estimateConfidence(s)
	if !e.addThought(ctx, s, content, false, confidence, 0) {
		return false
	}
	s.Escalated = false
	e.trackProgress(s, ph)

	if s.Options.RequireHypotheses && len(s.Hypotheses) == 0 && s.CurrentThought >= 3 && confidence > 0.6 {
		if !e.openHypothesis(ctx, s) {
			return false
		}
	}
	if s.Options.AllowBranching && s.CurrentThought%3 == 0 && confidence > 0.5 && len(s.ActiveBranches()) < maxActiveBranches {
		if !e.openBranch(ctx, s) {
			return false
		}
	}

	more := needsMoreThoughts(s)
	if !more && s.CurrentThought >= 3 {
		e.finalize(s)
		return false
	}
	return more
}

// stagnating reports whether the window shows fewer than two distinct openings.
func stagnating(window []ThoughtStep) bool {
	seen := make(map[string]struct{}, len(window))
	for _, t := range window {
		prefix := t.Content
		if len(prefix) > 50 {
			prefix = prefix[:50]
		}
		seen[prefix] = struct{}{}
	}
	return float64(len(seen)) < float64(stagnationLookback)/2
}

// addThought appends to the ledger unless the step cap is reached.
func (e *Engine) addThought(ctx context.Context, s *Session, content string, isRevision bool, confidence float64, revises int) bool {
	if s.CurrentThought >= s.MaxThoughts {
		return false
	}
	t := s.Append(content, confidence, isRevision, revises, e.now())
	if e.memory != nil {
		e.memory.RecordThought(ctx, s.ID, t)
	}
	e.logger.Debug("thought recorded",
		zap.String("session_id", s.ID),
		zap.Int("number", t.ThoughtNumber),
		zap.Bool("revision", isRevision),
		zap.Float64("confidence", t.Confidence))
	return true
}

// trackProgress folds the newest thought into the branch or hypothesis it
// was generated for.
func (e *Engine) trackProgress(s *Session, ph phase) {
	t := &s.Thoughts[len(s.Thoughts)-1]

	switch ph {
	case phaseBranch:
		br := s.ExploringBranch()
		if br == nil {
			return
		}
		t.BranchID = br.ID
		br.Thoughts = append(br.Thoughts, *t)
		if len(br.Thoughts) < branchResolveAfter {
			return
		}
		var sum float64
		for _, bt := range br.Thoughts {
			sum += bt.Confidence
		}
		br.Outcome = &BranchOutcome{
			Summary:    fmt.Sprintf("Branch from thought %d converged after %d thoughts. %s", br.ParentThought, len(br.Thoughts), mainPoint(t.Content)),
			Confidence: sum / float64(len(br.Thoughts)),
		}
		br.Confidence = br.Outcome.Confidence
		br.Status = BranchResolved
		br.IsActive = false

	case phaseHypothesis:
		hyps := s.OpenHypotheses()
		if len(hyps) == 0 {
			return
		}
		h := hyps[0]
		note := fmt.Sprintf("thought %d (confidence %.2f)", t.ThoughtNumber, t.Confidence)
		if t.Confidence >= phaseConfidence {
			h.Evidence = append(h.Evidence, note)
		} else {
			h.CounterEvidence = append(h.CounterEvidence, note)
		}
		h.Confidence = clamp(0.6+0.1*float64(len(h.Evidence)-len(h.CounterEvidence)), 0, 1)
		if len(h.Evidence)+len(h.CounterEvidence) < hypothesisTrials {
			return
		}
		if h.Confidence > 0.7 {
			h.Status = HypothesisVerified
		} else {
			h.Status = HypothesisRefuted
		}
		e.logger.Debug("hypothesis resolved",
			zap.String("session_id", s.ID),
			zap.String("hypothesis_id", h.ID),
			zap.String("status", string(h.Status)))
	}
}

func (e *Engine) openHypothesis(ctx context.Context, s *Session) bool {
	basis := "the current line of analysis"
	for i := len(s.Thoughts) - 1; i >= 0; i-- {
		if containsAny(s.Thoughts[i].Content, approachMarkers) {
			basis = fmt.Sprintf("the approach from thought %d", s.Thoughts[i].ThoughtNumber)
			break
		}
	}
	h := HypothesisTest{
		ID:              "hyp-" + uuid.NewString(),
		Hypothesis:      basis + " satisfies the goal",
		Evidence:        []string{},
		CounterEvidence: []string{},
		Confidence:      0.6,
		Status:          HypothesisForming,
		Timestamp:       e.now(),
	}
	s.Hypotheses = append(s.Hypotheses, h)
	return e.addThought(ctx, s, fmt.Sprintf("I'm forming a hypothesis: %s. Let me gather evidence to test this.", h.Hypothesis), false, 0.7, 0)
}

func (e *Engine) openBranch(ctx context.Context, s *Session) bool {
	parent := s.CurrentThought
	s.Metadata.BranchingPoints++
	s.Branches = append(s.Branches, ThoughtBranch{
		ID:            "branch-" + uuid.NewString(),
		ParentThought: parent,
		Description:   fmt.Sprintf("Alternative perspective from thought %d", parent),
		Confidence:    0.7,
		Thoughts:      []ThoughtStep{},
		IsActive:      true,
		Status:        BranchExploring,
	})
	return e.addThought(ctx, s,
		"Let me explore an alternative perspective on this problem to ensure I'm not missing important considerations.",
		false, 0.7, 0)
}

func (e *Engine) escalate(s *Session, last ThoughtStep) {
	now := e.now()
	s.Status = StatusAwaitingInput
	s.Escalated = true
	s.LastUpdated = now
	e.logger.Warn("thinking session needs user intervention",
		zap.String("session_id", s.ID),
		zap.Int("thought", last.ThoughtNumber),
		zap.Float64("confidence", last.Confidence))
	e.journal.Record(types.JournalEntry{
		ID:        fmt.Sprintf("intervention_needed_%s_%d", s.ID, now.UnixMilli()),
		Timestamp: now,
		Message:   fmt.Sprintf("Sequential thinking session %s requires user intervention due to low confidence.", s.ID),
		SessionID: s.ID,
		Tags:      []string{"intervention_needed", "sequential_thinking", "low_confidence"},
		Severity:  types.SeverityWarning,
	})
}

func (e *Engine) finalize(s *Session) {
	s.IsComplete = true
	s.Status = StatusCompleted
	s.FinalAnswer = synthesizeFinalAnswer(s)
	s.end(e.now())
	e.logger.Info("thinking session completed",
		zap.String("session_id", s.ID),
		zap.Int("thoughts", s.CurrentThought),
		zap.Int("revisions", s.Metadata.TotalRevisions))
}

func (e *Engine) result(s *Session) *Result {
	answer := s.FinalAnswer
	if answer == "" {
		answer = "Thinking process did not complete with a final answer."
	}
	return &Result{
		Session:     s,
		FinalAnswer: answer,
		Confidence:  overallConfidence(s),
		Reasoning:   reasoningExplanation(s),
		Metadata: ResultMetadata{
			ThoughtCount:  s.CurrentThought,
			RevisionCount: s.Metadata.TotalRevisions,
			BranchCount:   s.Metadata.BranchingPoints,
			SolutionPath:  solutionPath(s),
		},
	}
}

// retire moves a finished session from the active set into history.
func (e *Engine) retire(s *Session) {
	for i, a := range e.active {
		if a.ID == s.ID {
			e.active = append(e.active[:i], e.active[i+1:]...)
			break
		}
	}
	e.history = append(e.history, s)
	if over := len(e.history) - e.cfg.HistoryLimit; over > 0 {
		e.history = e.history[over:]
	}
}

// =============================================================================
// Lookups and snapshots
// =============================================================================

// Active returns an active (unfinished) session.
func (e *Engine) Active(id string) (*Session, bool) {
	for _, s := range e.active {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Lookup finds a session among active and finished ones.
func (e *Engine) Lookup(id string) (*Session, bool) {
	if s, ok := e.Active(id); ok {
		return s, true
	}
	for i := len(e.history) - 1; i >= 0; i-- {
		if e.history[i].ID == id {
			return e.history[i], true
		}
	}
	return nil, false
}

// ActiveSessions lists unfinished sessions.
func (e *Engine) ActiveSessions() []*Session { return append([]*Session(nil), e.active...) }

// History lists finished sessions, oldest first.
func (e *Engine) History() []*Session { return append([]*Session(nil), e.history...) }

// Restore replaces the engine's sessions with persisted ones.
func (e *Engine) Restore(active, history []*Session) {
	e.active = append([]*Session(nil), active...)
	e.history = append([]*Session(nil), history...)
}
