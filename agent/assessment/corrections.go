package assessment

import (
	"fmt"
	"math"
)

var correctionTypes = map[FlawType]CorrectionType{
	FlawLogicalFallacy:     CorrectionLogicalRestructure,
	FlawInconsistency:      CorrectionLogicalRestructure,
	FlawCircularReasoning:  CorrectionLogicalRestructure,
	FlawMissingEvidence:    CorrectionGatherEvidence,
	FlawBias:               CorrectionBiasMitigation,
	FlawPotentialBias:      CorrectionBiasMitigation,
	FlawIncompleteAnalysis: CorrectionCompleteAnalysis,
	FlawUnclearReasoning:   CorrectionGeneralImprovement,
}

var flawGuidance = map[FlawType]string{
	FlawLogicalFallacy:     "Identify the fallacy and rephrase the argument to be logically sound.",
	FlawMissingEvidence:    "Provide supporting data, sources, or examples for claims made.",
	FlawBias:               "Acknowledge potential biases and consider alternative perspectives.",
	FlawInconsistency:      "Resolve contradictory statements or ensure consistent terminology/logic.",
	FlawIncompleteAnalysis: "Explore additional facets of the topic or consider unaddressed factors.",
	FlawCircularReasoning:  "Ensure the conclusion is not merely a restatement of the premise; provide independent support.",
	FlawUnclearReasoning:   "Rephrase for clarity, define terms, or simplify complex sentences.",
	FlawPotentialBias:      "Explicitly state potential biases and how they might influence reasoning. Consider counter-arguments.",
}

const defaultGuidance = "Review the section for general clarity, coherence, and accuracy."

// CorrectionTypeFor maps a flaw type onto its remedy family.
func CorrectionTypeFor(t FlawType) CorrectionType {
	if c, ok := correctionTypes[t]; ok {
		return c
	}
	return CorrectionGeneralImprovement
}

// Guidance returns the remediation hint for a flaw type.
func Guidance(t FlawType) string {
	if g, ok := flawGuidance[t]; ok {
		return g
	}
	return defaultGuidance
}

func priorityFor(s Severity) Priority {
	switch s {
	case SeverityCritical, SeverityHigh:
		return PriorityHigh
	case SeverityMedium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// buildCorrections turns the flaws of every principle scoring under its good
// threshold into corrections.
func (e *Engine) buildCorrections(f *Framework, a *SelfAssessment) []Correction {
	var out []Correction
	for _, pa := range a.PrincipleAssessments {
		p, ok := f.Principle(pa.PrincipleID)
		if !ok || pa.Score >= p.Thresholds.Good {
			continue
		}
		for _, flaw := range pa.Flaws {
			out = append(out, Correction{
				ID:                  fmt.Sprintf("correction_%s_%s", flaw.ID, e.newID()),
				FlawID:              flaw.ID,
				Type:                CorrectionTypeFor(flaw.Type),
				Description:         fmt.Sprintf("Address %s: %s. Consider revising the section at '%s'.", flaw.Type, flaw.Description, flaw.Location),
				Implementation:      fmt.Sprintf("Review the content related to '%s' focusing on %s. %s", flaw.Location, pa.PrincipleID, Guidance(flaw.Type)),
				ExpectedImprovement: math.Max(0.1, 0.8-pa.Score),
				Priority:            priorityFor(flaw.Severity),
				TargetComponent:     flaw.Location,
				SuggestedChange:     fmt.Sprintf("Refine content at '%s' to better align with %s.", flaw.Location, pa.PrincipleID),
			})
		}
	}
	return out
}

// flawOf finds the flaw a correction fixes and the principle that produced it.
func flawOf(a *SelfAssessment, flawID string) (Flaw, PrincipleAssessment, bool) {
	for _, pa := range a.PrincipleAssessments {
		for _, f := range pa.Flaws {
			if f.ID == flawID {
				return f, pa, true
			}
		}
	}
	return Flaw{}, PrincipleAssessment{}, false
}

// correctionNote is the text appended to the artifact ledger.
func correctionNote(c Correction, flaw Flaw) string {
	return fmt.Sprintf("%s for %s. %s", c.Type, flaw.Type, Guidance(flaw.Type))
}
