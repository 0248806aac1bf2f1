package assessment

import (
	"fmt"
	"time"
)

// DefaultFrameworkID is the framework used when a request names none.
const DefaultFrameworkID = "default-framework"

// Principle identifiers understood by the built-in scorers.
const (
	PrincipleLogicalConsistency = "logical_consistency"
	PrincipleEvidenceBased      = "evidence_based"
	PrincipleCompleteness       = "completeness"
	PrincipleClarity            = "clarity"
	PrincipleBiasAwareness      = "bias_awareness"
)

// DefaultFrameworkThresholds are the overall evaluation buckets.
var DefaultFrameworkThresholds = Thresholds{Excellent: 0.8, Good: 0.6, Acceptable: 0.4}

var principleThresholds = Thresholds{Excellent: 0.8, Good: 0.6, Acceptable: 0.5, Poor: 0.3}

// DefaultFramework returns the stock five-principle framework.
func DefaultFramework(now time.Time) Framework {
	return Framework{
		ID:          DefaultFrameworkID,
		Name:        "Default Constitutional Framework",
		Description: "Provides basic reasoning principles.",
		Version:     "1.0",
		Thresholds:  DefaultFrameworkThresholds,
		Created:     now,
		LastUpdated: now,
		Principles: []Principle{
			{
				ID:          PrincipleLogicalConsistency,
				Name:        "Logical Consistency",
				Description: "Reasoning should be free of contradictions and follow valid inference.",
				Weight:      0.25,
				Guidelines:  []string{"Avoid contradictions", "Make each step follow from the previous one"},
				Thresholds:  principleThresholds,
			},
			{
				ID:          PrincipleEvidenceBased,
				Name:        "Evidence-Based Reasoning",
				Description: "Claims should be supported by evidence or sources.",
				Weight:      0.25,
				Guidelines:  []string{"Cite data or sources", "Avoid unsupported absolute claims"},
				Thresholds:  principleThresholds,
			},
			{
				ID:          PrincipleCompleteness,
				Name:        "Completeness",
				Description: "Analysis should cover the relevant facets of the problem.",
				Weight:      0.2,
				Guidelines:  []string{"Address every part of the goal"},
				Thresholds:  principleThresholds,
			},
			{
				ID:          PrincipleClarity,
				Name:        "Clarity",
				Description: "Reasoning should be expressed clearly and be easy to follow.",
				Weight:      0.15,
				Guidelines:  []string{"Use short, well-formed sentences", "Define terms"},
				Thresholds:  principleThresholds,
			},
			{
				ID:          PrincipleBiasAwareness,
				Name:        "Bias Awareness",
				Description: "Reasoning should acknowledge alternative perspectives and avoid absolutes.",
				Weight:      0.15,
				Guidelines:  []string{"Consider other viewpoints", "Avoid absolute language"},
				Thresholds:  principleThresholds,
			},
		},
	}
}

// TotalWeight sums principle weights.
func (f *Framework) TotalWeight() float64 {
	var w float64
	for _, p := range f.Principles {
		w += p.Weight
	}
	return w
}

// Principle returns the principle with id.
func (f *Framework) Principle(id string) (Principle, bool) {
	for _, p := range f.Principles {
		if p.ID == id {
			return p, true
		}
	}
	return Principle{}, false
}

// Validate checks weights and thresholds.
func (f *Framework) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("framework id is required")
	}
	if len(f.Principles) == 0 {
		return fmt.Errorf("framework %s has no principles", f.ID)
	}
	seen := make(map[string]struct{}, len(f.Principles))
	for _, p := range f.Principles {
		if p.ID == "" {
			return fmt.Errorf("framework %s: principle id is required", f.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("framework %s: duplicate principle %s", f.ID, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Weight < 0 || p.Weight > 1 {
			return fmt.Errorf("framework %s: principle %s weight %.2f out of [0,1]", f.ID, p.ID, p.Weight)
		}
		if err := p.Thresholds.validate(); err != nil {
			return fmt.Errorf("framework %s: principle %s: %w", f.ID, p.ID, err)
		}
	}
	if f.TotalWeight() <= 0 {
		return fmt.Errorf("framework %s: principle weights must sum to more than zero", f.ID)
	}
	return f.Thresholds.validate()
}

func (t Thresholds) validate() error {
	if !(t.Excellent >= t.Good && t.Good >= t.Acceptable && t.Acceptable >= t.Poor) {
		return fmt.Errorf("thresholds must descend: %.2f/%.2f/%.2f/%.2f", t.Excellent, t.Good, t.Acceptable, t.Poor)
	}
	return nil
}

// WithThresholds returns a copy of f with overall buckets replaced.
func (f Framework) WithThresholds(t Thresholds) Framework {
	f.Thresholds = t
	f.Principles = append([]Principle(nil), f.Principles...)
	return f
}
