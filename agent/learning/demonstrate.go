package learning

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/cogniflow/types"
	"go.uber.org/zap"
)

// Demonstration 用户提交的示范
type Demonstration struct {
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Input            string         `json:"input"`
	Context          map[string]any `json:"context,omitempty"`
	ExpectedApproach string         `json:"expected_approach"`
	IdealProcess     []string       `json:"ideal_process,omitempty"`
	ExpectedOutput   string         `json:"expected_output"`
	QualityRating    *float64       `json:"quality_rating,omitempty"`
	Annotations      []string       `json:"annotations,omitempty"`
}

// DemonstrationResult 示范学习结果
type DemonstrationResult struct {
	Example    *Example `json:"example"`
	PatternID  string   `json:"pattern_id"`
	Refined    bool     `json:"refined"`
	Similarity float64  `json:"similarity"`
	Message    string   `json:"message"`
}

// Demonstrate 从示范中提取要点，精炼最相似的模式或创建新模式
func (e *Engine) Demonstrate(ctx context.Context, d Demonstration) (*DemonstrationResult, error) {
	if strings.TrimSpace(d.Title) == "" {
		return nil, types.NewInvalidArgumentError("title", "demonstration title is required")
	}
	if strings.TrimSpace(d.Input) == "" {
		return nil, types.NewInvalidArgumentError("input", "demonstration input is required")
	}
	quality := 1.0
	if d.QualityRating != nil {
		if *d.QualityRating < 0 || *d.QualityRating > 1 {
			return nil, types.NewInvalidArgumentError("quality_rating", "quality rating must be within [0,1]")
		}
		quality = *d.QualityRating
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := e.now()
	ex := &Example{
		ID:               e.newID("example_"),
		Title:            d.Title,
		Description:      d.Description,
		Input:            d.Input,
		Context:          d.Context,
		ExpectedApproach: d.ExpectedApproach,
		IdealProcess:     append([]string{}, d.IdealProcess...),
		ExpectedOutput:   d.ExpectedOutput,
		QualityRating:    quality,
		Annotations:      d.Annotations,
		LearningPoints: LearningPoints{
			Techniques:   e.extractors.Techniques.Extract(d.IdealProcess...),
			Principles:   e.extractors.Principles.Extract(d.ExpectedApproach),
			Patterns:     union(structuralPatterns(d.IdealProcess), e.extractors.Patterns.Extract(d.IdealProcess...)...),
			AntiPatterns: []string{},
		},
		Applicability: Applicability{
			ProblemTypes:        e.extractors.ProblemTypes.Extract(d.Input),
			Domains:             e.extractors.Domains.Extract(contextText(d.Context)),
			ComplexityRange:     Range{Min: 1, Max: 10},
			UserTypes:           []string{},
			SimilarityThreshold: 0.8,
		},
		Impact:  Impact{InfluencedPatterns: []string{}, LastUsed: now},
		Source:  "user_demonstration",
		Created: now,
	}
	e.examples = append(e.examples, ex)

	res := &DemonstrationResult{Example: ex}
	best, score := e.mostSimilar(ex)
	res.Similarity = score
	if best != nil && score >= e.tunables.SimilarityThreshold {
		e.refine(best, ex)
		res.PatternID, res.Refined = best.ID, true
	} else {
		p := e.patternFromExample(ex)
		e.store.AddPattern(p)
		e.stats.PatternsRecognized++
		res.PatternID = p.ID
	}
	ex.Impact.InfluencedPatterns = append(ex.Impact.InfluencedPatterns, res.PatternID)
	ex.Impact.TimesReferenced++
	ex.Impact.LastUsed = e.now()

	e.stats.ExamplesLearned++
	e.activity.ExampleIntegration = e.now()
	e.activity.PatternAnalysis = e.now()

	res.Message = fmt.Sprintf("Learning example %q processed successfully. Extracted %d techniques, %d principles, and %d patterns.",
		d.Title, len(ex.LearningPoints.Techniques), len(ex.LearningPoints.Principles), len(ex.LearningPoints.Patterns))
	e.logger.Info("demonstration learned",
		zap.String("example_id", ex.ID),
		zap.String("pattern_id", res.PatternID),
		zap.Bool("refined", res.Refined),
		zap.Float64("similarity", score))
	return res, nil
}

func (e *Engine) mostSimilar(ex *Example) (*Pattern, float64) {
	var best *Pattern
	bestScore := 0.0
	for _, p := range e.store.Patterns(PatternFilter{}) {
		if s := Similarity(p, ex); s > bestScore {
			best, bestScore = p, s
		}
	}
	return best, bestScore
}

// refine 合并技术与适用范围，质量按使用次数做滑动平均
// 新示范的权重为 1/(n+1)，再按 ExampleInfluence 缩放
func (e *Engine) refine(p *Pattern, ex *Example) {
	if ex.QualityRating > p.Performance.AverageQuality &&
		ex.ExpectedApproach != "" && ex.ExpectedApproach != p.Body.Approach {
		e.logger.Info("demonstrated approach differs from pattern approach",
			zap.String("pattern_id", p.ID),
			zap.Float64("example_quality", ex.QualityRating),
			zap.Float64("pattern_quality", p.Performance.AverageQuality))
	}
	n := float64(p.Performance.UsageCount)
	p.Body.Techniques = union(p.Body.Techniques, ex.LearningPoints.Techniques...)
	w := clamp01(e.exampleScale() / (n + 1))
	p.Performance.AverageQuality = p.Performance.AverageQuality*(1-w) + ex.QualityRating*w
	p.Performance.SuccessRate = p.Performance.SuccessRate*(1-w) + ex.QualityRating*w
	p.Performance.UsageCount++
	p.Performance.LastUsed = e.now()

	p.Contexts.ProblemTypes = union(p.Contexts.ProblemTypes, ex.Applicability.ProblemTypes...)
	p.Contexts.Domains = union(p.Contexts.Domains, ex.Applicability.Domains...)
	p.Contexts.ComplexityRange.Min = min(p.Contexts.ComplexityRange.Min, ex.Applicability.ComplexityRange.Min)
	p.Contexts.ComplexityRange.Max = max(p.Contexts.ComplexityRange.Max, ex.Applicability.ComplexityRange.Max)

	p.LearnedFrom.ExampleIDs = union(p.LearnedFrom.ExampleIDs, ex.ID)
	p.LearnedFrom.Confidence = max(p.LearnedFrom.Confidence, ex.QualityRating)
	p.LastUpdated = e.now()
	p.Version = bumpVersion(p.Version)
}

func (e *Engine) patternFromExample(ex *Example) *Pattern {
	now := e.now()
	return &Pattern{
		ID:          e.newID("pattern_ex_"),
		Name:        "Pattern: " + ex.Title,
		Description: "Learned from demonstration: " + ex.Description,
		Body: PatternBody{
			Conditions: generalizeConditions(ex.Applicability),
			Approach:   ex.ExpectedApproach,
			Techniques: append([]string{}, ex.LearningPoints.Techniques...),
			Sequence:   append([]string{}, ex.IdealProcess...),
		},
		Performance: Performance{
			SuccessRate:    ex.QualityRating,
			AverageQuality: ex.QualityRating,
			UsageCount:     1,
			LastUsed:       now,
		},
		Contexts: Applicability{
			ProblemTypes:        append([]string{}, ex.Applicability.ProblemTypes...),
			Domains:             append([]string{}, ex.Applicability.Domains...),
			ComplexityRange:     ex.Applicability.ComplexityRange,
			UserTypes:           append([]string{}, ex.Applicability.UserTypes...),
			SimilarityThreshold: ex.Applicability.SimilarityThreshold,
		},
		LearnedFrom: Provenance{
			FeedbackIDs:     []string{},
			ExampleIDs:      []string{ex.ID},
			DiscoveryMethod: "demonstration_new",
			Confidence:      ex.QualityRating,
		},
		Created:     now,
		LastUpdated: now,
		Version:     "1.0",
	}
}

func generalizeConditions(a Applicability) []string {
	var out []string
	if len(a.ProblemTypes) > 0 {
		out = append(out, fmt.Sprintf("ProblemType IN (%s)", strings.Join(a.ProblemTypes, ", ")))
	}
	if len(a.Domains) > 0 {
		out = append(out, fmt.Sprintf("Domain IN (%s)", strings.Join(a.Domains, ", ")))
	}
	if len(out) == 0 {
		out = append(out, "General_Applicability")
	}
	return out
}
