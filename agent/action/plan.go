package action

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultMaxCycles       = 10
	goalCycles             = 3
	reflectionContentLimit = 200
	summaryLimit           = 100
)

// initialActions picks a first step from goal keywords and always follows it
// with a generic planning step.
func initialActions(goal string, now time.Time, newID func() string) []Action {
	lower := strings.ToLower(goal)
	var first Action
	switch {
	case containsAny(lower, "research", "find information", "search"):
		first = Action{
			Name:            "initial_knowledge_search",
			Type:            TypeKnowledgeRetrieval,
			Parameters:      map[string]any{"query": goal, "context": "initial_goal_research"},
			ExpectedOutcome: "Gather initial relevant information about the goal.",
			Confidence:      0.8,
		}
	case containsAny(lower, "create", "develop", "build"):
		first = Action{
			Name:            "create_initial_outline",
			Type:            TypePlanningStep,
			Parameters:      map[string]any{"task": goal},
			ExpectedOutcome: "A high-level outline or structure for the task.",
			Confidence:      0.75,
		}
	default:
		first = Action{
			Name:            "analyze_goal_requirements",
			Type:            TypeReasoningStep,
			Parameters:      map[string]any{"goal_to_analyze": goal},
			ExpectedOutcome: "Clarified understanding of the goal and its sub-components.",
			Confidence:      0.85,
		}
	}
	next := Action{
		Name:            "decide_next_specific_action",
		Type:            TypePlanningStep,
		Parameters:      map[string]any{},
		ExpectedOutcome: "Determine the most appropriate next concrete action.",
		Confidence:      0.7,
	}
	actions := []Action{first, next}
	for i := range actions {
		actions[i].ID = "action-" + newID()
		actions[i].Timestamp = now
	}
	return actions
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// reflect renders the per-cycle reflection text.
func reflect(a Action, o Observation, goal string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reflection on action '%s':\n", a.Name)
	fmt.Fprintf(&b, "  - Expected Outcome: %s\n", a.ExpectedOutcome)
	fmt.Fprintf(&b, "  - Actual Outcome: %s\n", o.Outcome)
	fmt.Fprintf(&b, "  - Success: %t\n", o.Success)
	if o.Success {
		fmt.Fprintf(&b, "  - Learning: %s\n", strings.Join(o.LearningPoints, ". "))
		if s, ok := summarize(o.Content); ok {
			fmt.Fprintf(&b, "  - Observation Content Summary: %s\n", s)
		} else {
			b.WriteString("  - Observation Content: (Content too large to display fully in reflection summary)\n")
		}
		fmt.Fprintf(&b, "  - Progress towards goal '%s': This action appears to have moved us forward.", goal)
		return b.String()
	}
	b.WriteString("  - Problem: The action did not achieve the expected outcome.\n")
	fmt.Fprintf(&b, "  - Learning: %s\n", strings.Join(o.LearningPoints, ". "))
	fmt.Fprintf(&b, "  - Progress towards goal '%s': This was a setback. We need to re-evaluate the approach.", goal)
	return b.String()
}

// planNext advances the plan after the latest cycle has been appended and
// returns the next-step text. It may finish the session.
func (e *Engine) planNext(s *Session, last *Cycle) string {
	now := e.now()
	plan := s.Plan
	plan.LastUpdated = now

	if !last.Observation.Success {
		plan.Status = PlanNeedsRevision
		return fmt.Sprintf("The previous action failed. Revising plan. Consider alternative to '%s' or analyze failure.", last.Action.Name)
	}
	if plan.CurrentActionIndex < len(plan.Actions)-1 {
		plan.CurrentActionIndex++
		return fmt.Sprintf("Proceeding with planned action: '%s'.", plan.Actions[plan.CurrentActionIndex].Name)
	}

	n := len(s.Cycles)
	switch {
	case s.GoalAchieved():
		plan.Status = PlanCompleted
		plan.EndTime = &now
		e.finish(s, SessionCompleted, fmt.Sprintf("Goal '%s' achieved after %d cycles.", s.Goal, n))
		return fmt.Sprintf("Goal '%s' appears to be achieved. Concluding ReAct session.", s.Goal)
	case n >= s.MaxCycles:
		plan.Status = PlanFailed
		plan.EndTime = &now
		e.finish(s, SessionFailedMaxCycles, fmt.Sprintf("Max cycles reached for goal '%s'.", s.Goal))
		return fmt.Sprintf("Maximum cycles reached. Concluding ReAct session for goal '%s'.", s.Goal)
	default:
		plan.Status = PlanNeedsExtension
		plan.Actions = append(plan.Actions, Action{
			ID:              "action-" + e.newID(),
			Name:            "evaluate_overall_progress_and_plan_further",
			Type:            TypePlanningStep,
			Parameters:      map[string]any{"current_goal_status": fmt.Sprintf("After %d cycles, progress on '%s' needs assessment.", n, s.Goal)},
			ExpectedOutcome: "A clear plan for the next phase of actions or determination if goal is unachievable with current strategy.",
			Confidence:      0.7,
			Timestamp:       now,
		})
		plan.CurrentActionIndex = len(plan.Actions) - 1
		return fmt.Sprintf("Initial plan completed, but goal '%s' not yet fully achieved. Added 'evaluate_overall_progress_and_plan_further' to plan.", s.Goal)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
