package assessment

import (
	"time"
)

// TargetType names what kind of artifact is assessed.
type TargetType string

const (
	TargetSequentialThinking TargetType = "sequential_thinking"
	TargetReasoningChain     TargetType = "reasoning_chain"
	TargetReActCycle         TargetType = "react_cycle"
)

// TargetTypes lists every assessable artifact kind in resolution order.
var TargetTypes = []TargetType{TargetSequentialThinking, TargetReasoningChain, TargetReActCycle}

// Valid reports whether t is a known target type.
func (t TargetType) Valid() bool {
	for _, k := range TargetTypes {
		if k == t {
			return true
		}
	}
	return false
}

// ParseTargetType accepts the canonical names plus the legacy "reasoning"
// alias used by older clients.
func ParseTargetType(s string) (TargetType, bool) {
	if s == "reasoning" {
		return TargetReasoningChain, true
	}
	t := TargetType(s)
	return t, t.Valid()
}

// Evaluation buckets a score.
type Evaluation string

const (
	EvaluationExcellent  Evaluation = "excellent"
	EvaluationGood       Evaluation = "good"
	EvaluationAcceptable Evaluation = "acceptable"
	EvaluationPoor       Evaluation = "poor"
)

// FlawType classifies a detected weakness.
type FlawType string

const (
	FlawLogicalFallacy     FlawType = "logical_fallacy"
	FlawMissingEvidence    FlawType = "missing_evidence"
	FlawBias               FlawType = "bias"
	FlawInconsistency      FlawType = "inconsistency"
	FlawIncompleteAnalysis FlawType = "incomplete_analysis"
	FlawCircularReasoning  FlawType = "circular_reasoning"
	FlawUnclearReasoning   FlawType = "unclear_reasoning"
	FlawPotentialBias      FlawType = "potential_bias"
)

// Severity grades a flaw.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// CorrectionType is the remedy family of a correction.
type CorrectionType string

const (
	CorrectionGatherEvidence         CorrectionType = "gather_evidence"
	CorrectionAlternativePerspective CorrectionType = "alternative_perspective"
	CorrectionLogicalRestructure     CorrectionType = "logical_restructure"
	CorrectionBiasMitigation         CorrectionType = "bias_mitigation"
	CorrectionCompleteAnalysis       CorrectionType = "complete_analysis"
	CorrectionGeneralImprovement     CorrectionType = "general_improvement"
)

// Priority orders corrections.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Thresholds are descending score cut-offs. Poor is informational; anything
// under Acceptable evaluates as poor.
type Thresholds struct {
	Excellent  float64 `json:"excellent"`
	Good       float64 `json:"good"`
	Acceptable float64 `json:"acceptable"`
	Poor       float64 `json:"poor,omitempty"`
}

// Evaluate maps a score onto the threshold buckets.
func (t Thresholds) Evaluate(score float64) Evaluation {
	switch {
	case score >= t.Excellent:
		return EvaluationExcellent
	case score >= t.Good:
		return EvaluationGood
	case score >= t.Acceptable:
		return EvaluationAcceptable
	default:
		return EvaluationPoor
	}
}

// Principle is one weighted reasoning criterion.
type Principle struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	Weight             float64    `json:"weight"`
	Guidelines         []string   `json:"guidelines,omitempty"`
	EvaluationCriteria []string   `json:"evaluation_criteria,omitempty"`
	Thresholds         Thresholds `json:"thresholds"`
}

// Framework is a named set of principles.
type Framework struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Principles  []Principle `json:"principles"`
	Thresholds  Thresholds  `json:"thresholds"`
	Created     time.Time   `json:"created"`
	LastUpdated time.Time   `json:"last_updated"`
}

// Flaw is a detected weakness in an artifact.
type Flaw struct {
	ID          string   `json:"id"`
	Type        FlawType `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Evidence    []string `json:"evidence,omitempty"`
	Confidence  float64  `json:"confidence"`
	PrincipleID string   `json:"principle_id"`
}

// Correction is an actionable remedy for one flaw.
type Correction struct {
	ID                  string         `json:"id"`
	FlawID              string         `json:"flaw_id"`
	Type                CorrectionType `json:"type"`
	Description         string         `json:"description"`
	Implementation      string         `json:"implementation"`
	ExpectedImprovement float64        `json:"expected_improvement"`
	Priority            Priority       `json:"priority"`
	TargetComponent     string         `json:"target_component"`
	SuggestedChange     string         `json:"suggested_change,omitempty"`
}

// PrincipleAssessment is the verdict for one principle.
type PrincipleAssessment struct {
	PrincipleID string       `json:"principle_id"`
	Score       float64      `json:"score"`
	Evaluation  Evaluation   `json:"evaluation"`
	Evidence    []string     `json:"evidence"`
	Flaws       []Flaw       `json:"flaws"`
	Suggestions []Correction `json:"suggestions"`
	Confidence  float64      `json:"confidence"`
}

// SelfAssessment is the immutable record of one assessment.
type SelfAssessment struct {
	ID                   string                `json:"id"`
	TargetID             string                `json:"target_id"`
	TargetType           TargetType            `json:"target_type"`
	FrameworkID          string                `json:"framework_id"`
	OverallScore         float64               `json:"overall_score"`
	OverallEvaluation    Evaluation            `json:"overall_evaluation"`
	PrincipleAssessments []PrincipleAssessment `json:"principle_assessments"`
	TotalFlaws           int                   `json:"total_flaws"`
	TotalSuggestions     int                   `json:"total_suggestions"`
	Critique             string                `json:"critique"`
	Timestamp            time.Time             `json:"timestamp"`
	DurationMS           int64                 `json:"assessment_duration_ms"`
}

// Principle returns the assessment of principle id.
func (a *SelfAssessment) Principle(id string) (PrincipleAssessment, bool) {
	for _, pa := range a.PrincipleAssessments {
		if pa.PrincipleID == id {
			return pa, true
		}
	}
	return PrincipleAssessment{}, false
}

// Flaws returns every flaw across principles.
func (a *SelfAssessment) Flaws() []Flaw {
	var out []Flaw
	for _, pa := range a.PrincipleAssessments {
		out = append(out, pa.Flaws...)
	}
	return out
}

// AppliedCorrection records a correction written back into an artifact.
type AppliedCorrection struct {
	CorrectionID string    `json:"correction_id"`
	AssessmentID string    `json:"assessment_id"`
	TargetID     string    `json:"target_id"`
	PrincipleID  string    `json:"principle_id"`
	ScoreBefore  float64   `json:"score_before"`
	AppliedAt    time.Time `json:"applied_at"`
}

// Timeframe bounds a metrics query. Both ends are inclusive.
type Timeframe struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether ts lies inside the window.
func (tf Timeframe) Contains(ts time.Time) bool {
	return !ts.Before(tf.Start) && !ts.After(tf.End)
}

// FlawCount is an aggregated flaw frequency.
type FlawCount struct {
	Type            FlawType `json:"type"`
	Count           int      `json:"count"`
	AverageSeverity Severity `json:"average_severity"`
}

// Trend is the score movement of one principle over a window.
type Trend struct {
	Principle      string  `json:"principle"`
	TrendDirection string  `json:"trend_direction"`
	ChangeRate     float64 `json:"change_rate"`
}

// Effectiveness summarizes how often applied corrections paid off.
type Effectiveness struct {
	Applied       int     `json:"applied"`
	Successful    int     `json:"successful"`
	Effectiveness float64 `json:"effectiveness"`
}

// QualityMetrics aggregates assessments over a window.
type QualityMetrics struct {
	Timeframe               Timeframe          `json:"timeframe"`
	TotalAssessments        int                `json:"total_assessments"`
	AverageScore            float64            `json:"average_score"`
	ScoreDistribution       map[Evaluation]int `json:"score_distribution"`
	ClarityScore            float64            `json:"clarity_score"`
	UnclearReasoning        int                `json:"unclear_reasoning"`
	CommonFlaws             []FlawCount        `json:"common_flaws"`
	ImprovementTrends       []Trend            `json:"improvement_trends"`
	CorrectionEffectiveness Effectiveness      `json:"correction_effectiveness"`
}

// CritiqueStatus tracks a critique session.
type CritiqueStatus string

const (
	CritiqueActive    CritiqueStatus = "active"
	CritiqueCompleted CritiqueStatus = "completed"
)

// CritiqueSession groups assessments of several targets under one goal.
type CritiqueSession struct {
	ID                string            `json:"id"`
	Goal              string            `json:"goal"`
	TargetAssessments []*SelfAssessment `json:"target_assessments"`
	Unresolved        []string          `json:"unresolved,omitempty"`
	OverallMetrics    *QualityMetrics   `json:"overall_metrics"`
	Recommendations   []string          `json:"recommendations"`
	CorrectionsPlan   []Correction      `json:"corrections_plan"`
	Learnings         []string          `json:"learnings"`
	Status            CritiqueStatus    `json:"status"`
	StartTime         time.Time         `json:"start_time"`
	EndTime           *time.Time        `json:"end_time,omitempty"`
}
