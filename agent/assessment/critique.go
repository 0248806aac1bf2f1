package assessment

import (
	"context"
	"fmt"

	"github.com/BaSui01/cogniflow/types"
	"go.uber.org/zap"
)

// CritiqueRequest asks for a critique over several targets.
type CritiqueRequest struct {
	Goal      string    `json:"goal"`
	TargetIDs []string  `json:"target_ids"`
	Timeframe Timeframe `json:"timeframe"`
}

// Critique assesses every resolvable target with corrections enabled and
// stores the resulting session. Ids that resolve to no artifact of any type
// are reported in Unresolved.
func (e *Engine) Critique(ctx context.Context, req CritiqueRequest) (*CritiqueSession, error) {
	if req.Goal == "" {
		return nil, types.NewInvalidArgumentError("goal", "critique goal is required")
	}
	s := &CritiqueSession{
		ID:                "critique_" + e.newID(),
		Goal:              req.Goal,
		TargetAssessments: []*SelfAssessment{},
		Recommendations:   []string{},
		CorrectionsPlan:   []Correction{},
		Learnings:         []string{},
		Status:            CritiqueActive,
		StartTime:         e.now(),
	}

	for _, id := range req.TargetIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		artifact, ok := e.resolveAny(id)
		if !ok {
			s.Unresolved = append(s.Unresolved, id)
			continue
		}
		out, err := e.Assess(ctx, artifact, AssessOptions{IncludeCorrections: true})
		if err != nil {
			e.logger.Warn("critique target assessment failed", zap.String("target_id", id), zap.Error(err))
			s.Unresolved = append(s.Unresolved, id)
			continue
		}
		s.TargetAssessments = append(s.TargetAssessments, out.Assessment)
		s.CorrectionsPlan = append(s.CorrectionsPlan, out.Corrections...)
	}

	s.OverallMetrics = e.QualityMetrics(req.Timeframe)
	s.Recommendations = sessionRecommendations(s)
	s.Learnings = sessionLearnings(s)
	end := e.now()
	s.EndTime = &end
	s.Status = CritiqueCompleted
	e.critiques = append(e.critiques, s)

	e.logger.Info("critique completed",
		zap.String("critique_id", s.ID),
		zap.Int("assessed", len(s.TargetAssessments)),
		zap.Int("unresolved", len(s.Unresolved)))
	return s, nil
}

func (e *Engine) resolveAny(id string) (Artifact, bool) {
	if e.resolver == nil {
		return nil, false
	}
	for _, tt := range TargetTypes {
		if a, ok := e.resolver.Resolve(tt, id); ok {
			return a, true
		}
	}
	return nil, false
}

func recommendations(a *SelfAssessment) []string {
	var out []string
	if a.OverallScore < 0.6 {
		out = append(out, "Overall reasoning quality needs improvement")
	}
	for _, pa := range a.PrincipleAssessments {
		if pa.Score < 0.5 {
			out = append(out, "Focus on improving "+pa.PrincipleID)
		}
	}
	if len(out) == 0 {
		out = append(out, "Continue maintaining high reasoning quality")
	}
	return out
}

func improvementPlan() []string {
	return []string{
		"1. Review low-scoring principles from assessment",
		"2. Apply suggested corrections in order of priority",
		"3. Practice reasoning with constitutional principles in mind",
		"4. Regularly assess progress through constitutional evaluation",
	}
}

func sessionRecommendations(s *CritiqueSession) []string {
	var out []string
	if n := len(s.TargetAssessments); n > 0 {
		var sum float64
		for _, a := range s.TargetAssessments {
			sum += a.OverallScore
		}
		if sum/float64(n) < 0.6 {
			out = append(out, "Overall session quality is below acceptable threshold")
		}
	}
	return append(out,
		"Continue systematic constitutional assessment",
		"Focus on applying high-priority corrections")
}

// sessionLearnings names the most frequent flaw types seen in the session.
func sessionLearnings(s *CritiqueSession) []string {
	out := []string{}
	for _, f := range commonFlaws(s.TargetAssessments) {
		out = append(out, fmt.Sprintf("%s appeared %d times (mostly %s severity)", f.Type, f.Count, f.AverageSeverity))
	}
	return out
}
