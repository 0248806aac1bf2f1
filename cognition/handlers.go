package cognition

import (
	"context"
	"fmt"

	"github.com/BaSui01/cogniflow/agent/action"
	"github.com/BaSui01/cogniflow/agent/assessment"
	"github.com/BaSui01/cogniflow/agent/memory"
	"github.com/BaSui01/cogniflow/agent/reasoning"
	"github.com/BaSui01/cogniflow/agent/thinking"
	"github.com/BaSui01/cogniflow/types"
)

// registerHandlers routes ReAct actions to the same operations the tools
// use. Handlers run while the service lock is already held.
func (s *Service) registerHandlers(r *action.Registry) {
	r.Register(action.TypeKnowledgeRetrieval, action.HandlerFunc(s.actSearch))
	r.Register(action.TypeMemoryStore, action.HandlerFunc(s.actStore))
	r.Register(action.TypeMemoryRetrieve, action.HandlerFunc(s.actRetrieve))
	r.Register(action.TypeReasoningStep, action.HandlerFunc(s.actReason))
	r.Register(action.TypeSequentialThinking, action.HandlerFunc(s.actThink))
	r.Register(action.TypeGraphModification, action.HandlerFunc(s.actCreateEntity))
	r.Register(action.TypeQualityAssessment, action.HandlerFunc(s.actAssess))
}

func (s *Service) actSearch(ctx context.Context, sess *action.Session, a action.Action) (action.Result, error) {
	query := a.Param("query", sess.Goal)
	res, err := s.semanticSearch(ctx, memory.SearchQuery{
		Query:        query,
		EntityTypes:  paramStrings(a.Parameters, "entity_types"),
		MaxResults:   paramInt(a.Parameters, "max_results", 0),
		MinRelevance: paramFloat(a.Parameters, "min_relevance", 0),
	})
	if err != nil {
		return action.Result{}, err
	}
	return action.Result{
		Outcome:        fmt.Sprintf("Semantic search for %q completed. Found %d entities.", query, len(res.Entities)),
		Success:        true,
		LearningPoints: []string{fmt.Sprintf("Semantic search provided %d initial entities.", len(res.Entities))},
		Content:        action.MarshalContent(res),
	}, nil
}

func (s *Service) actStore(ctx context.Context, _ *action.Session, a action.Action) (action.Result, error) {
	res, err := s.graph.Store(ctx,
		a.Param("content", "Default content from ReAct"),
		a.Param("context", "react_action"),
		paramFloat(a.Parameters, "relevance", 0))
	if err != nil {
		return action.Result{}, err
	}
	return action.Result{
		Outcome:        fmt.Sprintf("Stored content in memory. Item ID: %s.", res.ItemID),
		Success:        true,
		LearningPoints: []string{"Content successfully stored in working memory."},
		Content:        action.MarshalContent(res),
	}, nil
}

func (s *Service) actRetrieve(ctx context.Context, sess *action.Session, a action.Action) (action.Result, error) {
	res, err := s.graph.Retrieve(ctx,
		a.Param("query", sess.Goal),
		a.Param("context", ""),
		paramInt(a.Parameters, "limit", 0))
	if err != nil {
		return action.Result{}, err
	}
	return action.Result{
		Outcome:        fmt.Sprintf("Retrieved %d memory items and %d semantic entities.", len(res.Items), len(res.Entities)),
		Success:        true,
		LearningPoints: []string{"Memory retrieval operation completed."},
		Content:        action.MarshalContent(res),
	}, nil
}

func (s *Service) actReason(ctx context.Context, sess *action.Session, a action.Action) (action.Result, error) {
	reqCtx, _ := a.Parameters["context"].(map[string]any)
	if reqCtx == nil {
		reqCtx = map[string]any{"current_action": a.Name, "session_goal": sess.Goal}
	}
	out, err := s.reasoner.Reason(ctx, reasoning.Request{
		Query:   a.Param("query", fmt.Sprintf("Reason about: %s after %s", sess.Goal, a.Name)),
		Context: reqCtx,
	})
	if err != nil {
		return action.Result{}, err
	}
	return action.Result{
		Outcome:        fmt.Sprintf("Reasoning step '%s' completed. Result: %s", a.Name, out.Result),
		Success:        true,
		LearningPoints: []string{"Reasoning provided new insights or conclusions."},
		Content:        action.MarshalContent(out),
	}, nil
}

func (s *Service) actThink(ctx context.Context, sess *action.Session, a action.Action) (action.Result, error) {
	reqCtx, _ := a.Parameters["context"].(map[string]any)
	if reqCtx == nil {
		reqCtx = map[string]any{"session_goal": sess.Goal}
	}
	res, err := s.think(ctx, thinking.StartRequest{
		Goal:              a.Param("problem", "Think sequentially about: "+sess.Goal),
		Context:           reqCtx,
		MaxThoughts:       paramInt(a.Parameters, "max_thoughts", 7),
		AllowBranching:    paramBool(a.Parameters, "allow_branching", true),
		RequireHypotheses: paramBool(a.Parameters, "require_hypotheses", false),
	})
	if err != nil {
		return action.Result{}, err
	}
	return action.Result{
		Outcome:        "Sequential thinking process completed. Final answer: " + res.FinalAnswer,
		Success:        true,
		LearningPoints: []string{fmt.Sprintf("Sequential thinking generated %d thoughts.", len(res.Session.Thoughts))},
		Content:        action.MarshalContent(res),
	}, nil
}

func (s *Service) actCreateEntity(ctx context.Context, _ *action.Session, a action.Action) (action.Result, error) {
	e, err := s.graph.CreateEntity(ctx,
		a.Param("name", ""),
		a.Param("entity_type", a.Param("type", "")),
		paramStrings(a.Parameters, "observations"))
	if err != nil {
		return action.Result{}, err
	}
	outcome := fmt.Sprintf("Entity '%s' created.", e.Name)
	return action.Result{
		Outcome:        outcome,
		Success:        true,
		LearningPoints: []string{outcome},
		Content:        action.MarshalContent(e),
	}, nil
}

// actAssess grades a target; without one it grades the session's latest cycle.
func (s *Service) actAssess(ctx context.Context, sess *action.Session, a action.Action) (action.Result, error) {
	targetID := a.Param("target_id", "")
	targetType := a.Param("target_type", string(assessment.TargetReActCycle))
	if targetID == "" {
		last, ok := sess.LastCycle()
		if !ok {
			return action.Result{}, types.NewInvalidArgumentError("target_id", "no cycle to assess yet")
		}
		targetID = last.ID
		targetType = string(assessment.TargetReActCycle)
	}
	out, err := s.assess(ctx, targetType, targetID, assessment.AssessOptions{
		FrameworkID:        a.Param("framework_id", ""),
		IncludeCorrections: paramBool(a.Parameters, "include_corrections", true),
		AutoApply:          paramBool(a.Parameters, "auto_apply_corrections", false),
	})
	if err != nil {
		return action.Result{}, err
	}
	return action.Result{
		Outcome:        fmt.Sprintf("Constitutional assessment completed. Overall score: %.2f.", out.Assessment.OverallScore),
		Success:        true,
		LearningPoints: []string{fmt.Sprintf("Assessment provided %d corrections.", len(out.Corrections))},
		Content:        action.MarshalContent(out),
	}, nil
}

// =============================================================================
// parameter helpers
// =============================================================================

func paramInt(p map[string]any, key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

func paramFloat(p map[string]any, key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func paramBool(p map[string]any, key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

func paramStrings(p map[string]any, key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if str, ok := x.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
