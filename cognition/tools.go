package cognition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BaSui01/cogniflow/agent/action"
	"github.com/BaSui01/cogniflow/agent/assessment"
	"github.com/BaSui01/cogniflow/agent/learning"
	"github.com/BaSui01/cogniflow/agent/memory"
	"github.com/BaSui01/cogniflow/agent/reasoning"
	"github.com/BaSui01/cogniflow/agent/thinking"
	"github.com/BaSui01/cogniflow/internal/telemetry"
	"github.com/BaSui01/cogniflow/types"
)

// Args is the flat argument record of a tool call.
type Args = map[string]any

type toolFunc func(ctx context.Context, args Args) (any, error)

type tool struct {
	info ToolInfo
	fn   toolFunc
}

// ToolInfo describes one callable operation.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// toolTable lists every operation the service exposes.
func (s *Service) toolTable() map[string]tool {
	list := []tool{
		{ToolInfo{"reason", "Run a three-step analysis, synthesis and evaluation reasoning chain over a query."}, s.toolReason},
		{ToolInfo{"memory_store", "Store content in working memory and link it into the knowledge graph."}, s.toolMemoryStore},
		{ToolInfo{"memory_retrieve", "Retrieve working-memory items and related entities for a query."}, s.toolMemoryRetrieve},
		{ToolInfo{"cognitive_state", "Dump the full cognitive state."}, s.toolCognitiveState},
		{ToolInfo{"knowledge_create_entity", "Create or replace a knowledge-graph entity."}, s.toolCreateEntity},
		{ToolInfo{"knowledge_create_relation", "Relate two existing knowledge-graph entities."}, s.toolCreateRelation},
		{ToolInfo{"knowledge_semantic_search", "Search knowledge-graph entities by name, type and observations."}, s.toolSemanticSearch},
		{ToolInfo{"sequential_thinking", "Run a sequential thinking session on a problem."}, s.toolSequentialThinking},
		{ToolInfo{"user_intervention", "Correct a thought in a paused thinking session or resume it."}, s.toolUserIntervention},
		{ToolInfo{"react_start_session", "Open a ReAct session with an initial action plan."}, s.toolReActStart},
		{ToolInfo{"react_execute_action", "Execute one reason-act-observe-reflect cycle in a ReAct session."}, s.toolReActExecute},
		{ToolInfo{"react_reflect", "Record a session-level reflection and strategic adjustments."}, s.toolReActReflect},
		{ToolInfo{"constitutional_assess", "Assess a thinking session, reasoning chain or ReAct cycle against the framework."}, s.toolAssess},
		{ToolInfo{"constitutional_critique", "Assess several targets and summarize them in a critique session."}, s.toolCritique},
		{ToolInfo{"constitutional_metrics", "Aggregate assessment quality metrics over a timeframe."}, s.toolQualityMetrics},
		{ToolInfo{"learning_feedback", "Submit user feedback on a session."}, s.toolFeedback},
		{ToolInfo{"learning_adapt", "Apply adaptation rules that pass their gates."}, s.toolAdapt},
		{ToolInfo{"learning_demonstrate", "Learn from a worked example."}, s.toolDemonstrate},
		{ToolInfo{"learning_patterns", "List recognized patterns and adaptation rules."}, s.toolPatterns},
		{ToolInfo{"learning_metrics", "Summarize learning performance over a timeframe."}, s.toolLearningMetrics},
		{ToolInfo{"persist_cognitive_state", "Save the cognitive state to the configured store now."}, s.toolPersist},
	}
	out := make(map[string]tool, len(list))
	for _, t := range list {
		out[t.info.Name] = t
	}
	return out
}

// Tools lists the callable operations sorted by name.
func (s *Service) Tools() []ToolInfo {
	out := make([]ToolInfo, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, t.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Call runs the named tool and returns its JSON-encoded result. The result
// is encoded before the lock is released, so it never aliases live state.
// Failures come back as *types.Error; panics become INTERNAL_ERROR.
func (s *Service) Call(ctx context.Context, name string, args Args) (out json.RawMessage, err error) {
	t, ok := s.tools[name]
	if !ok {
		if s.collector != nil {
			s.collector.RecordToolCall(name, string(types.ErrUnknownOperation), 0)
		}
		return nil, types.NewUnknownOperationError(name)
	}

	ctx = types.WithTool(ctx, name)
	ctx, span := telemetry.StartSpan(ctx, "cognition."+name, attribute.String("tool.name", name))
	start := time.Now()

	s.mu.Lock()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool panicked", zap.String("tool", name), zap.Any("recover", r))
			out = nil
			err = types.Errorf(types.ErrInternalError, "tool %s failed: %v", name, r)
		}
		if err != nil {
			err = classify(err, name).WithOperation(name)
		}
		s.refreshGauges()
		s.mu.Unlock()

		if s.collector != nil {
			s.collector.RecordToolCall(name, string(types.GetErrorCode(err)), time.Since(start))
		}
		telemetry.EndSpan(span, err)
	}()

	if args == nil {
		args = Args{}
	}
	res, err := t.fn(ctx, args)
	if err != nil {
		return nil, err
	}
	return json.Marshal(res)
}

// classify gives every failure a code.
func classify(err error, name string) *types.Error {
	if e, ok := types.AsError(err); ok {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return types.NewError(types.ErrTimeout, name+" interrupted").WithCause(err)
	}
	return types.NewError(types.ErrInternalError, name+" failed").WithCause(err)
}

// decodeArgs maps the flat argument record onto a request struct.
func decodeArgs(args Args, v any) error {
	b, err := json.Marshal(args)
	if err != nil {
		return types.NewInvalidArgumentError("arguments", err.Error())
	}
	if err := json.Unmarshal(b, v); err != nil {
		return types.NewInvalidArgumentError("arguments", err.Error())
	}
	return nil
}

// =============================================================================
// Shared operations
// =============================================================================

func (s *Service) semanticSearch(ctx context.Context, q memory.SearchQuery) (*memory.SearchResult, error) {
	res, err := s.graph.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if s.collector != nil {
		s.collector.RecordSemanticSearch(res.FromCache)
	}
	return res, nil
}

func (s *Service) think(ctx context.Context, req thinking.StartRequest) (*thinking.Result, error) {
	res, err := s.thinking.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	s.recordThinking(res)
	return res, nil
}

func (s *Service) recordThinking(res *thinking.Result) {
	if s.collector != nil && res != nil && res.Session != nil {
		s.collector.RecordThinkingRun(string(res.Session.Status), len(res.Session.Thoughts))
	}
}

func (s *Service) assess(ctx context.Context, targetType, targetID string, opts assessment.AssessOptions) (*assessment.Output, error) {
	if targetID == "" {
		return nil, types.NewInvalidArgumentError("target_id", "target id is required")
	}
	out, err := s.assessment.AssessTarget(ctx, targetType, targetID, opts)
	if err != nil {
		return nil, err
	}
	s.recordAssessment(out.Assessment)
	return out, nil
}

func (s *Service) recordAssessment(a *assessment.SelfAssessment) {
	if s.collector == nil || a == nil {
		return
	}
	flaws := a.Flaws()
	kinds := make([]string, 0, len(flaws))
	for _, f := range flaws {
		kinds = append(kinds, string(f.Type))
	}
	s.collector.RecordAssessment(string(a.TargetType), a.OverallScore, kinds)
}

// =============================================================================
// Reasoning & memory
// =============================================================================

func (s *Service) toolReason(ctx context.Context, args Args) (any, error) {
	var req reasoning.Request
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	return s.reasoner.Reason(ctx, req)
}

type memoryStoreArgs struct {
	Content   string  `json:"content"`
	Context   string  `json:"context"`
	Relevance float64 `json:"relevance"`
}

func (s *Service) toolMemoryStore(ctx context.Context, args Args) (any, error) {
	var req memoryStoreArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	return s.graph.Store(ctx, req.Content, req.Context, req.Relevance)
}

type memoryRetrieveArgs struct {
	Query   string `json:"query"`
	Context string `json:"context"`
	Limit   int    `json:"limit"`
}

func (s *Service) toolMemoryRetrieve(ctx context.Context, args Args) (any, error) {
	var req memoryRetrieveArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	return s.graph.Retrieve(ctx, req.Query, req.Context, req.Limit)
}

func (s *Service) toolCognitiveState(context.Context, Args) (any, error) {
	return s.snapshot(), nil
}

type entityArgs struct {
	Name         string   `json:"name"`
	EntityType   string   `json:"entity_type"`
	Observations []string `json:"observations"`
}

func (s *Service) toolCreateEntity(ctx context.Context, args Args) (any, error) {
	var req entityArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	e, err := s.graph.CreateEntity(ctx, req.Name, req.EntityType, req.Observations)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success": true,
		"entity":  e,
		"message": fmt.Sprintf("Entity '%s' of type '%s' created.", e.Name, e.Type),
	}, nil
}

type relationArgs struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Type     string   `json:"type"`
	Strength *float64 `json:"strength"`
}

func (s *Service) toolCreateRelation(ctx context.Context, args Args) (any, error) {
	var req relationArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	if req.Type == "" {
		return nil, types.NewInvalidArgumentError("type", "relation type is required")
	}
	strength := 0.5
	if req.Strength != nil {
		strength = *req.Strength
	}
	r, err := s.graph.CreateRelation(ctx, req.From, req.To, req.Type, strength)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success":  true,
		"relation": r,
		"message":  fmt.Sprintf("Relation '%s' from '%s' to '%s' created.", r.Type, r.From, r.To),
	}, nil
}

func (s *Service) toolSemanticSearch(ctx context.Context, args Args) (any, error) {
	var q memory.SearchQuery
	if err := decodeArgs(args, &q); err != nil {
		return nil, err
	}
	if q.Query == "" {
		return nil, types.NewInvalidArgumentError("query", "search query is required")
	}
	return s.semanticSearch(ctx, q)
}

// =============================================================================
// Thinking
// =============================================================================

type sequentialArgs struct {
	Problem           string         `json:"problem"`
	Context           map[string]any `json:"context"`
	MaxThoughts       int            `json:"max_thoughts"`
	AllowBranching    *bool          `json:"allow_branching"`
	RequireHypotheses *bool          `json:"require_hypotheses"`
}

func (s *Service) toolSequentialThinking(ctx context.Context, args Args) (any, error) {
	var req sequentialArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	cfg := s.thinking.Config()
	start := thinking.StartRequest{
		Goal:              req.Problem,
		Context:           req.Context,
		MaxThoughts:       req.MaxThoughts,
		AllowBranching:    cfg.AllowBranching,
		RequireHypotheses: cfg.RequireHypotheses,
	}
	if req.AllowBranching != nil {
		start.AllowBranching = *req.AllowBranching
	}
	if req.RequireHypotheses != nil {
		start.RequireHypotheses = *req.RequireHypotheses
	}
	return s.think(ctx, start)
}

func (s *Service) toolUserIntervention(ctx context.Context, args Args) (any, error) {
	var in thinking.Intervention
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.SessionID == "" {
		return nil, types.NewInvalidArgumentError("session_id", "session id is required")
	}
	res, err := s.thinking.Intervene(ctx, in)
	if err != nil {
		return nil, err
	}
	s.recordThinking(res)
	return res, nil
}

// =============================================================================
// ReAct
// =============================================================================

type reactStartArgs struct {
	Goal      string `json:"goal"`
	MaxCycles int    `json:"max_cycles"`
}

func (s *Service) toolReActStart(ctx context.Context, args Args) (any, error) {
	var req reactStartArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	sess, err := s.react.StartSession(ctx, req.Goal, req.MaxCycles)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"session_id":   sess.ID,
		"goal":         sess.Goal,
		"status":       sess.Status,
		"initial_plan": sess.Plan,
		"message":      fmt.Sprintf("ReAct session started for goal: %q. Ready to execute action cycles.", sess.Goal),
	}, nil
}

func (s *Service) toolReActExecute(ctx context.Context, args Args) (any, error) {
	var req action.ExecuteRequest
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	res, err := s.react.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.collector != nil {
		s.collector.RecordReActCycle(res.Cycle.Observation.Success)
	}
	return res, nil
}

type reflectArgs struct {
	SessionID   string   `json:"session_id"`
	Reflection  string   `json:"reflection"`
	Adjustments []string `json:"strategic_adjustments"`
}

func (s *Service) toolReActReflect(ctx context.Context, args Args) (any, error) {
	var req reflectArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	return s.react.Reflect(ctx, req.SessionID, req.Reflection, req.Adjustments)
}

// =============================================================================
// Assessment
// =============================================================================

type assessArgs struct {
	TargetID           string `json:"target_id"`
	TargetType         string `json:"target_type"`
	FrameworkID        string `json:"framework_id"`
	IncludeCorrections *bool  `json:"include_corrections"`
	AutoApply          bool   `json:"auto_apply_corrections"`
}

func (s *Service) toolAssess(ctx context.Context, args Args) (any, error) {
	var req assessArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	opts := assessment.AssessOptions{
		FrameworkID:        req.FrameworkID,
		IncludeCorrections: true,
		AutoApply:          req.AutoApply,
	}
	if req.IncludeCorrections != nil {
		opts.IncludeCorrections = *req.IncludeCorrections
	}
	return s.assess(ctx, req.TargetType, req.TargetID, opts)
}

func (s *Service) toolCritique(ctx context.Context, args Args) (any, error) {
	var req assessment.CritiqueRequest
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	cs, err := s.assessment.Critique(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, a := range cs.TargetAssessments {
		s.recordAssessment(a)
	}
	return cs, nil
}

type qualityMetricsArgs struct {
	Timeframe   assessment.Timeframe `json:"timeframe"`
	MetricTypes []string             `json:"metric_types"`
}

func (s *Service) toolQualityMetrics(_ context.Context, args Args) (any, error) {
	var req qualityMetricsArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	return s.assessment.QualityMetrics(req.Timeframe).Filter(req.MetricTypes), nil
}

// =============================================================================
// Learning
// =============================================================================

func (s *Service) toolFeedback(ctx context.Context, args Args) (any, error) {
	var fb learning.Feedback
	if err := decodeArgs(args, &fb); err != nil {
		return nil, err
	}
	res, err := s.learning.SubmitFeedback(ctx, fb)
	if err != nil {
		return nil, err
	}
	if s.collector != nil {
		s.collector.RecordFeedback(fb.FeedbackType)
	}
	return res, nil
}

func (s *Service) toolAdapt(ctx context.Context, args Args) (any, error) {
	var req learning.AdaptRequest
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	res, err := s.learning.Adapt(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.collector != nil {
		s.collector.RecordAdaptations(len(res.Applied))
	}
	return res, nil
}

func (s *Service) toolDemonstrate(ctx context.Context, args Args) (any, error) {
	var d learning.Demonstration
	if err := decodeArgs(args, &d); err != nil {
		return nil, err
	}
	return s.learning.Demonstrate(ctx, d)
}

type patternsArgs struct {
	learning.PatternFilter
	IncludePerformance bool `json:"include_performance"`
}

// PatternSummary is one row of the learning_patterns listing.
type PatternSummary struct {
	ID                string                `json:"id"`
	Name              string                `json:"name"`
	Description       string                `json:"description"`
	SuccessRate       float64               `json:"success_rate"`
	UsageCount        int                   `json:"usage_count"`
	Confidence        float64               `json:"confidence"`
	LastUsed          time.Time             `json:"last_used"`
	ApplicableDomains []string              `json:"applicable_domains"`
	Performance       *learning.Performance `json:"performance,omitempty"`
}

// PatternListing is the learning_patterns result.
type PatternListing struct {
	Patterns []PatternSummary       `json:"patterns"`
	Rules    []learning.RuleSummary `json:"adaptation_rules"`
	Message  string                 `json:"message"`
}

func (s *Service) toolPatterns(_ context.Context, args Args) (any, error) {
	var req patternsArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	patterns := s.learning.Store().Patterns(req.PatternFilter)
	out := &PatternListing{
		Patterns: make([]PatternSummary, 0, len(patterns)),
		Rules:    s.learning.Store().RuleSummaries(),
	}
	for _, p := range patterns {
		row := PatternSummary{
			ID:                p.ID,
			Name:              p.Name,
			Description:       p.Description,
			SuccessRate:       p.Performance.SuccessRate,
			UsageCount:        p.Performance.UsageCount,
			Confidence:        p.LearnedFrom.Confidence,
			LastUsed:          p.Performance.LastUsed,
			ApplicableDomains: p.Contexts.Domains,
		}
		if req.IncludePerformance {
			perf := p.Performance
			row.Performance = &perf
		}
		out.Patterns = append(out.Patterns, row)
	}
	out.Message = fmt.Sprintf("Found %d recognized patterns and %d adaptation rules.", len(out.Patterns), len(out.Rules))
	return out, nil
}

type learningMetricsArgs struct {
	Timeframe        string `json:"timeframe"`
	IncludeBreakdown bool   `json:"include_breakdown"`
}

func (s *Service) toolLearningMetrics(_ context.Context, args Args) (any, error) {
	var req learningMetricsArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	return s.learning.Metrics(req.Timeframe, req.IncludeBreakdown)
}

// =============================================================================
// Persistence
// =============================================================================

func (s *Service) toolPersist(ctx context.Context, _ Args) (any, error) {
	if err := s.saveLocked(ctx, TriggerManual); err != nil {
		return nil, err
	}
	return map[string]any{
		"message":  "Cognitive state persistence triggered successfully and saved.",
		"saved_at": s.lastSaved,
	}, nil
}
