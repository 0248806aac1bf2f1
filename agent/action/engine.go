package action

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/cogniflow/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config configures the ReAct engine.
type Config struct {
	DefaultMaxCycles int `json:"default_max_cycles"`
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config { return Config{DefaultMaxCycles: defaultMaxCycles} }

// Engine runs ReAct sessions. Handlers registered for an action type do the
// real work; everything else is simulated when the caller asks for it.
// Not safe for concurrent use.
type Engine struct {
	cfg      Config
	registry *Registry
	journal  types.Journal
	now      func() time.Time
	newID    func() string
	logger   *zap.Logger

	sessions []*Session
	history  []*Cycle
}

// Option customizes an Engine.
type Option func(*Engine)

// WithJournal sets where cycle learnings are logged.
func WithJournal(j types.Journal) Option { return func(e *Engine) { e.journal = j } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// NewEngine creates a ReAct engine. A nil registry means every action falls
// through to simulation.
func NewEngine(cfg Config, registry *Registry, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultMaxCycles <= 0 {
		cfg.DefaultMaxCycles = defaultMaxCycles
	}
	if registry == nil {
		registry = NewRegistry(logger)
	}
	e := &Engine{
		cfg:      cfg,
		registry: registry,
		journal:  types.NopJournal{},
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   logger.With(zap.String("component", "react_engine")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry exposes the handler registry.
func (e *Engine) Registry() *Registry { return e.registry }

// StartSession opens a session with a keyword-driven initial plan.
func (e *Engine) StartSession(ctx context.Context, goal string, maxCycles int) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(goal) == "" {
		return nil, types.NewInvalidArgumentError("goal", "goal is required")
	}
	if maxCycles <= 0 {
		maxCycles = e.cfg.DefaultMaxCycles
	}
	now := e.now()
	id := "react-" + e.newID()
	s := &Session{
		ID:               id,
		Goal:             goal,
		Cycles:           []*Cycle{},
		Status:           SessionActive,
		MaxCycles:        maxCycles,
		StartTime:        now,
		LastUpdated:      now,
		LearningsSummary: []string{},
		Plan: &Plan{
			ID:          "plan-" + id,
			Goal:        goal,
			Actions:     initialActions(goal, now, e.newID),
			Status:      PlanExecuting,
			StartTime:   now,
			LastUpdated: now,
		},
	}
	e.sessions = append(e.sessions, s)
	e.logger.Info("react session started",
		zap.String("session_id", s.ID),
		zap.Int("max_cycles", maxCycles),
		zap.Int("planned_actions", len(s.Plan.Actions)))
	return s, nil
}

// ExecuteRequest describes one action to run inside a session.
type ExecuteRequest struct {
	SessionID       string         `json:"session_id"`
	Name            string         `json:"action_name"`
	Type            string         `json:"action_type"`
	Parameters      map[string]any `json:"parameters,omitempty"`
	Reasoning       string         `json:"reasoning,omitempty"`
	ExpectedOutcome string         `json:"expected_outcome,omitempty"`
	Simulation      bool           `json:"simulation_mode"`
}

// ExecuteResult reports the cycle and the session state after it.
type ExecuteResult struct {
	Cycle           *Cycle        `json:"cycle"`
	CyclesCompleted int           `json:"cycles_completed"`
	Status          SessionStatus `json:"status"`
	Plan            *Plan         `json:"plan"`
}

// Execute runs one reason-act-observe-reflect cycle.
func (e *Engine) Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := e.active(req.SessionID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, types.NewInvalidArgumentError("action_name", "action name is required")
	}
	kind, err := ParseType(req.Name, req.Type)
	if err != nil {
		return nil, types.NewInvalidArgumentError("action_type", err.Error())
	}

	now := e.now()
	expected := req.ExpectedOutcome
	if expected == "" {
		expected = "Expected outcome for " + req.Name
	}
	params := req.Parameters
	if params == nil {
		params = map[string]any{}
	}
	a := Action{
		ID:              "action-" + e.newID(),
		Name:            req.Name,
		Type:            kind,
		Parameters:      params,
		ExpectedOutcome: expected,
		Confidence:      0.8,
		Timestamp:       now,
	}

	obs := e.dispatch(ctx, s, a, req.Simulation)
	c := &Cycle{
		ID:          "cycle-" + e.newID(),
		SessionID:   s.ID,
		Reasoning:   req.Reasoning,
		Action:      a,
		Observation: obs,
		Reflection:  reflect(a, obs, s.Goal),
		Timestamp:   e.now(),
		Confidence:  (a.Confidence + obs.Confidence) / 2,
	}
	s.Cycles = append(s.Cycles, c)
	c.NextStep = e.planNext(s, c)
	s.LastUpdated = e.now()
	e.history = append(e.history, c)
	e.learnFrom(s, c)

	e.logger.Debug("react cycle completed",
		zap.String("session_id", s.ID),
		zap.String("cycle_id", c.ID),
		zap.String("action", a.Name),
		zap.Bool("success", obs.Success),
		zap.String("status", string(s.Status)))
	return &ExecuteResult{Cycle: c, CyclesCompleted: len(s.Cycles), Status: s.Status, Plan: s.Plan}, nil
}

// dispatch runs the registered handler or a simulation. Handler errors and
// panics become failed observations.
func (e *Engine) dispatch(ctx context.Context, s *Session, a Action, simulation bool) (obs Observation) {
	obs = Observation{
		ID:        "obs-" + e.newID(),
		ActionID:  a.ID,
		Timestamp: e.now(),
	}
	var res Result
	defer func() {
		if r := recover(); r != nil {
			res = failure(a, fmt.Errorf("panic: %v", r))
			e.logger.Error("action handler panicked",
				zap.String("action", a.Name),
				zap.Any("recover", r))
		}
		obs.Outcome = res.Outcome
		obs.Success = res.Success
		obs.LearningPoints = res.LearningPoints
		obs.Content = res.Content
		obs.Confidence = 0.3
		if res.Success {
			obs.Confidence = 0.85
		}
	}()

	if h, ok := e.registry.Get(a.Type); ok {
		out, err := h.Handle(ctx, s, a)
		if err != nil {
			res = failure(a, err)
			e.logger.Warn("action failed", zap.String("action", a.Name), zap.Error(err))
			return
		}
		res = out
		return
	}

	params := a.Parameters
	switch {
	case a.Type == TypeToolCall && !simulation:
		res = Result{
			Outcome: fmt.Sprintf("Simulated call to external tool: %s.", a.Name),
			Success: true,
			LearningPoints: []string{
				fmt.Sprintf("External tool call initiated for %s.", a.Name),
				fmt.Sprintf("External tool call for %s was simulated.", a.Name),
			},
			Content: map[string]any{"simulated_external_call": true, "tool_name": a.Name, "params": params},
		}
	case simulation:
		res = Result{
			Outcome: fmt.Sprintf("Simulated action '%s' of type '%s' executed successfully.", a.Name, a.Type),
			Success: true,
			LearningPoints: []string{
				fmt.Sprintf("Action '%s' was simulated.", a.Name),
				fmt.Sprintf("Action '%s' was simulated as no specific internal handler matched.", a.Name),
			},
			Content: map[string]any{"simulated_generic": true, "action_name": a.Name, "action_type": a.Type, "params": params},
		}
	default:
		outcome := fmt.Sprintf("Action '%s' (type: '%s') is not recognized or cannot be executed by internal handlers.", a.Name, a.Type)
		res = Result{
			Outcome:        outcome,
			LearningPoints: []string{fmt.Sprintf("Unrecognized or unexecutable action: %s.", a.Name)},
			Content:        map[string]any{"error": outcome, "action_name": a.Name, "action_type": a.Type},
		}
	}
	return
}

func failure(a Action, err error) Result {
	outcome := fmt.Sprintf("Error executing action %s: %v", a.Name, err)
	return Result{
		Outcome:        outcome,
		LearningPoints: []string{fmt.Sprintf("Failed to execute action '%s' due to error: %v.", a.Name, err)},
		Content:        map[string]any{"error": outcome},
	}
}

// learnFrom appends the cycle summary and journals it.
func (e *Engine) learnFrom(s *Session, c *Cycle) {
	s.LearningsSummary = append(s.LearningsSummary, fmt.Sprintf(
		"From action '%s' (in cycle %s): Observation - %s... Success: %t. Reflection: %s...",
		c.Action.Name, c.ID, truncate(c.Observation.Outcome, summaryLimit),
		c.Observation.Success, truncate(c.Reflection, summaryLimit)))

	outcome := "failure"
	if c.Observation.Success {
		outcome = "success"
	}
	e.journal.Record(types.JournalEntry{
		ID:               "learnlog-" + c.ID,
		Timestamp:        e.now(),
		Message:          fmt.Sprintf("ReAct cycle %s completed for session %s. Action: %s. Outcome success: %t.", c.ID, s.ID, c.Action.Name, c.Observation.Success),
		SourceActionID:   c.Action.ID,
		SourceActionName: c.Action.Name,
		SessionID:        s.ID,
		CycleID:          c.ID,
		Tags:             []string{"react_cycle", "learning", outcome},
		Severity:         types.SeverityInfo,
	})
}

// ReflectResult is returned by Reflect.
type ReflectResult struct {
	Reflection       Reflection    `json:"reflection"`
	Status           SessionStatus `json:"status"`
	TotalCycles      int           `json:"total_cycles"`
	LearningsSummary []string      `json:"learnings_summary"`
	GoalAchieved     bool          `json:"goal_achieved"`
	Adjustments      []string      `json:"strategic_adjustments"`
}

// Reflect records a session-level reflection, applies strategic adjustments
// and closes the session when the goal has been reached.
func (e *Engine) Reflect(ctx context.Context, sessionID, reflection string, adjustments []string) (*ReflectResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, ok := e.Session(sessionID)
	if !ok {
		return nil, types.NewTargetNotFoundError("react_session", sessionID)
	}
	r := Reflection{
		OverallAssessment:   reflection,
		Adjustments:         append([]string{}, adjustments...),
		SessionProgress:     fmt.Sprintf("Completed %d cycles", len(s.Cycles)),
		NextRecommendations: []string{"Continue with planned approach", "Monitor progress closely"},
		Timestamp:           e.now(),
	}
	s.Reflections = append(s.Reflections, r)
	for _, adj := range adjustments {
		s.Adjustments = append(s.Adjustments, adj)
		e.logger.Info("applying strategic adjustment",
			zap.String("session_id", s.ID),
			zap.String("adjustment", adj))
	}

	achieved := s.GoalAchieved()
	if achieved && s.Status == SessionActive {
		e.finish(s, SessionCompleted, "Goal successfully achieved through ReAct cycles")
	}
	s.LastUpdated = e.now()
	return &ReflectResult{
		Reflection:       r,
		Status:           s.Status,
		TotalCycles:      len(s.Cycles),
		LearningsSummary: append([]string{}, s.LearningsSummary...),
		GoalAchieved:     achieved,
		Adjustments:      r.Adjustments,
	}, nil
}

func (e *Engine) finish(s *Session, status SessionStatus, outcome string) {
	end := e.now()
	s.Status = status
	s.EndTime = &end
	s.FinalOutcome = outcome
	e.logger.Info("react session finished",
		zap.String("session_id", s.ID),
		zap.String("status", string(status)),
		zap.Int("cycles", len(s.Cycles)))
}

func (e *Engine) active(id string) (*Session, error) {
	s, ok := e.Session(id)
	if !ok {
		return nil, types.NewTargetNotFoundError("react_session", id)
	}
	if s.Status != SessionActive {
		return nil, types.NewSessionNotActiveError(id, string(s.Status))
	}
	return s, nil
}

// Session looks a session up by id.
func (e *Engine) Session(id string) (*Session, bool) {
	for _, s := range e.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Sessions returns every session in start order.
func (e *Engine) Sessions() []*Session { return append([]*Session(nil), e.sessions...) }

// Cycle looks a cycle up across sessions and the cycle history.
func (e *Engine) Cycle(id string) (*Cycle, bool) {
	for _, s := range e.sessions {
		if c, ok := s.Cycle(id); ok {
			return c, true
		}
	}
	for _, c := range e.history {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// CycleHistory returns every executed cycle in order.
func (e *Engine) CycleHistory() []*Cycle { return append([]*Cycle(nil), e.history...) }

// Snapshot is the persistable engine state.
type Snapshot struct {
	Sessions     []*Session `json:"sessions"`
	CycleHistory []*Cycle   `json:"cycle_history"`
}

// Snapshot exports the engine state. Cycles shared between sessions and the
// history are re-linked on Restore.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{Sessions: e.Sessions(), CycleHistory: e.CycleHistory()}
}

// Restore replaces the engine state.
func (e *Engine) Restore(s Snapshot) {
	e.sessions = e.sessions[:0]
	byID := make(map[string]*Cycle)
	for _, sess := range s.Sessions {
		if sess == nil {
			continue
		}
		if sess.Plan == nil {
			sess.Plan = &Plan{ID: "plan-" + sess.ID, Goal: sess.Goal, Status: PlanExecuting}
		}
		if sess.MaxCycles <= 0 {
			sess.MaxCycles = e.cfg.DefaultMaxCycles
		}
		for _, c := range sess.Cycles {
			byID[c.ID] = c
		}
		e.sessions = append(e.sessions, sess)
	}
	e.history = e.history[:0]
	for _, c := range s.CycleHistory {
		if c == nil {
			continue
		}
		if linked, ok := byID[c.ID]; ok {
			c = linked
		}
		e.history = append(e.history, c)
	}
}

// MarshalContent is a helper for handlers that want a JSON-shaped content
// value from a typed result.
func MarshalContent(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if json.Unmarshal(b, &out) != nil {
		return v
	}
	return out
}
