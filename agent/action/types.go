package action

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Type is the closed set of action kinds a ReAct cycle can execute.
type Type string

const (
	TypeKnowledgeRetrieval Type = "knowledge_retrieval"
	TypeMemoryStore        Type = "memory_operation_store"
	TypeMemoryRetrieve     Type = "memory_operation"
	TypeReasoningStep      Type = "reasoning_step"
	TypeSequentialThinking Type = "cognitive_process_sequential"
	TypeGraphModification  Type = "knowledge_graph_modification"
	TypeQualityAssessment  Type = "quality_assessment"
	TypeToolCall           Type = "tool_call"
	TypePlanningStep       Type = "planning_step"
)

// Types lists every action type.
var Types = []Type{
	TypeKnowledgeRetrieval, TypeMemoryStore, TypeMemoryRetrieve, TypeReasoningStep,
	TypeSequentialThinking, TypeGraphModification, TypeQualityAssessment,
	TypeToolCall, TypePlanningStep,
}

// nameAliases maps well-known action names onto their type. A name alias
// wins over the declared type.
var nameAliases = map[string]Type{
	"knowledge_semantic_search": TypeKnowledgeRetrieval,
	"memory_store":              TypeMemoryStore,
	"memory_retrieve":           TypeMemoryRetrieve,
	"reason":                    TypeReasoningStep,
	"sequential_thinking":       TypeSequentialThinking,
	"knowledge_create_entity":   TypeGraphModification,
	"constitutional_assess":     TypeQualityAssessment,
}

// Valid reports whether t is a known action type.
func (t Type) Valid() bool {
	for _, k := range Types {
		if k == t {
			return true
		}
	}
	return false
}

// ParseType accepts a declared type, falling back to the name alias when the
// type is empty.
func ParseType(name, declared string) (Type, error) {
	if t, ok := nameAliases[name]; ok {
		return t, nil
	}
	if declared == "" {
		return "", fmt.Errorf("action %q has no type", name)
	}
	t := Type(declared)
	if !t.Valid() {
		return "", fmt.Errorf("unknown action type %q", declared)
	}
	return t, nil
}

// SessionStatus is the lifecycle state of a ReAct session.
type SessionStatus string

const (
	SessionActive          SessionStatus = "active"
	SessionCompleted       SessionStatus = "completed"
	SessionFailedMaxCycles SessionStatus = "failed_max_cycles"
)

// PlanStatus tracks the action plan.
type PlanStatus string

const (
	PlanExecuting      PlanStatus = "executing"
	PlanNeedsRevision  PlanStatus = "needs_revision"
	PlanNeedsExtension PlanStatus = "needs_extension"
	PlanCompleted      PlanStatus = "completed"
	PlanFailed         PlanStatus = "failed"
)

// Action is one step the session decides to take.
type Action struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Type            Type           `json:"type"`
	Parameters      map[string]any `json:"parameters,omitempty"`
	ExpectedOutcome string         `json:"expected_outcome"`
	Confidence      float64        `json:"confidence"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Param returns a string parameter or def.
func (a Action) Param(key, def string) string {
	if v, ok := a.Parameters[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Observation is what executing an action produced.
type Observation struct {
	ID             string    `json:"id"`
	ActionID       string    `json:"action_id"`
	Outcome        string    `json:"outcome"`
	Success        bool      `json:"success"`
	Timestamp      time.Time `json:"timestamp"`
	LearningPoints []string  `json:"learning_points"`
	Confidence     float64   `json:"confidence"`
	Content        any       `json:"content,omitempty"`
}

// Cycle is one reason-act-observe-reflect iteration. Cycles are assessable.
type Cycle struct {
	ID          string      `json:"id"`
	SessionID   string      `json:"session_id"`
	Reasoning   string      `json:"reasoning,omitempty"`
	Action      Action      `json:"action"`
	Observation Observation `json:"observation"`
	Reflection  string      `json:"reflection"`
	NextStep    string      `json:"next_step_plan"`
	Timestamp   time.Time   `json:"timestamp"`
	Confidence  float64     `json:"confidence"`
	Corrections []string    `json:"corrections,omitempty"`
}

// ArtifactID implements assessment.Artifact.
func (c *Cycle) ArtifactID() string { return c.ID }

// TargetType implements assessment.Artifact.
func (c *Cycle) TargetType() string { return "react_cycle" }

// Transcript renders the cycle as plain text. Correction notes are not
// included.
func (c *Cycle) Transcript() string {
	parts := []string{
		c.Reasoning,
		fmt.Sprintf("Action %s: expected %s", c.Action.Name, c.Action.ExpectedOutcome),
		c.Observation.Outcome,
		strings.Join(c.Observation.LearningPoints, ". "),
		c.Reflection,
		c.NextStep,
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

// AnchorID is the cycle itself.
func (c *Cycle) AnchorID() string { return c.ID }

// AppendCorrection records a correction note on the cycle.
func (c *Cycle) AppendCorrection(anchorID, note string, _ time.Time) bool {
	if anchorID != c.ID {
		return false
	}
	c.Corrections = append(c.Corrections, "Correction applied: "+note)
	return true
}

// Plan is the ordered list of actions a session intends to take.
type Plan struct {
	ID                 string     `json:"id"`
	Goal               string     `json:"goal"`
	Actions            []Action   `json:"actions"`
	CurrentActionIndex int        `json:"current_action_index"`
	Status             PlanStatus `json:"status"`
	StartTime          time.Time  `json:"start_time"`
	LastUpdated        time.Time  `json:"last_updated"`
	EndTime            *time.Time `json:"end_time,omitempty"`
}

// Current returns the action the plan points at.
func (p *Plan) Current() (Action, bool) {
	if p.CurrentActionIndex < 0 || p.CurrentActionIndex >= len(p.Actions) {
		return Action{}, false
	}
	return p.Actions[p.CurrentActionIndex], true
}

// Reflection is a session-level reflection recorded by Reflect.
type Reflection struct {
	OverallAssessment   string    `json:"overall_assessment"`
	Adjustments         []string  `json:"adjustments"`
	SessionProgress     string    `json:"session_progress"`
	NextRecommendations []string  `json:"next_recommendations"`
	Timestamp           time.Time `json:"timestamp"`
}

// Session is a goal-directed sequence of ReAct cycles.
type Session struct {
	ID               string        `json:"id"`
	Goal             string        `json:"goal"`
	Cycles           []*Cycle      `json:"cycles"`
	Plan             *Plan         `json:"action_plan"`
	Status           SessionStatus `json:"status"`
	MaxCycles        int           `json:"max_cycles"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          *time.Time    `json:"end_time,omitempty"`
	LastUpdated      time.Time     `json:"last_updated"`
	FinalOutcome     string        `json:"final_outcome,omitempty"`
	LearningsSummary []string      `json:"learnings_summary"`
	Adjustments      []string      `json:"strategic_adjustments,omitempty"`
	Reflections      []Reflection  `json:"reflections,omitempty"`
}

// Cycle looks a cycle up by id.
func (s *Session) Cycle(id string) (*Cycle, bool) {
	for _, c := range s.Cycles {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// LastCycle returns the most recent cycle.
func (s *Session) LastCycle() (*Cycle, bool) {
	if n := len(s.Cycles); n > 0 {
		return s.Cycles[n-1], true
	}
	return nil, false
}

// GoalAchieved reports at least three cycles, all successful.
func (s *Session) GoalAchieved() bool {
	if len(s.Cycles) < goalCycles {
		return false
	}
	for _, c := range s.Cycles {
		if !c.Observation.Success {
			return false
		}
	}
	return true
}

// Result is what a handler reports back for one action.
type Result struct {
	Outcome        string
	Success        bool
	LearningPoints []string
	Content        any
}

func summarize(content any) (string, bool) {
	b, err := json.Marshal(content)
	if err != nil || len(b) >= reflectionContentLimit {
		return "", false
	}
	return string(b), true
}
