package learning

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/BaSui01/cogniflow/types"
	"go.uber.org/zap"
)

// FeedbackResult 反馈处理结果
type FeedbackResult struct {
	FeedbackID       string   `json:"feedback_id"`
	AdjustedPatterns []string `json:"adjusted_patterns"`
	CreatedPatterns  []string `json:"created_patterns"`
	CreatedRules     []string `json:"created_rules"`
	Message          string   `json:"message"`
}

// SubmitFeedback 记录反馈，并据此修正模式、生成规则、更新表现追踪
func (e *Engine) SubmitFeedback(ctx context.Context, fb Feedback) (*FeedbackResult, error) {
	if strings.TrimSpace(fb.SessionID) == "" {
		return nil, types.NewInvalidArgumentError("session_id", "feedback must reference a session")
	}
	if fb.Rating < 0 || fb.Rating > 5 {
		return nil, types.NewInvalidArgumentError("rating", "rating must be within [0,5]")
	}
	for i, c := range fb.Corrections {
		if strings.TrimSpace(c.Original) == "" {
			return nil, types.NewInvalidArgumentError(fmt.Sprintf("corrections[%d].original", i), "original text is required")
		}
		fb.Corrections[i].Confidence = clamp01(c.Confidence)
	}
	for i, p := range fb.Preferences {
		fb.Preferences[i].Strength = clamp01(p.Strength)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fb.ID = e.newID("feedback_")
	fb.Timestamp = e.now()
	stored := fb
	e.feedback = append(e.feedback, &stored)

	res := &FeedbackResult{FeedbackID: stored.ID, AdjustedPatterns: []string{}, CreatedPatterns: []string{}, CreatedRules: []string{}}
	for _, c := range stored.Corrections {
		e.applyCorrection(&stored, c, res)
	}
	for _, p := range stored.Preferences {
		if r := e.preferenceRule(&stored, p); r != nil {
			e.addRule(r, res)
		}
	}
	for _, s := range stored.Suggestions {
		if r := e.suggestionRule(&stored, s); r != nil {
			e.addRule(r, res)
		}
	}
	if r := e.endorsementRule(&stored); r != nil {
		e.addRule(r, res)
	}

	e.recordSession(&stored)
	e.stats.TotalFeedbackProcessed++
	e.activity.FeedbackProcessing = e.now()

	res.Message = fmt.Sprintf("Feedback processed successfully. Updated patterns and performance metrics based on %s feedback for session %s.",
		stored.FeedbackType, stored.SessionID)
	e.logger.Info("feedback processed",
		zap.String("feedback_id", stored.ID),
		zap.String("session_id", stored.SessionID),
		zap.Int("adjusted_patterns", len(res.AdjustedPatterns)),
		zap.Int("created_rules", len(res.CreatedRules)))
	return res, nil
}

func (e *Engine) addRule(r *Rule, res *FeedbackResult) {
	e.store.AddRule(r)
	e.stats.RulesCreated++
	res.CreatedRules = append(res.CreatedRules, r.ID)
}

// correctionMatch 更正原文与模式的相关度：方法 0.5、描述 0.3、步骤 0.4
func correctionMatch(p *Pattern, original string) float64 {
	needle := strings.ToLower(original)
	score := 0.0
	if strings.Contains(strings.ToLower(p.Body.Approach), needle) {
		score += 0.5
	}
	if strings.Contains(strings.ToLower(p.Description), needle) {
		score += 0.3
	}
	for _, step := range p.Body.Sequence {
		if strings.Contains(strings.ToLower(step), needle) {
			score += 0.4
			break
		}
	}
	return score
}

// applyCorrection 按相关度降低匹配模式的表现，并为每个匹配模式生成策略修改规则
// 没有匹配且更正置信度足够高时，直接从更正生成新模式
func (e *Engine) applyCorrection(fb *Feedback, c Correction, res *FeedbackResult) {
	now := e.now()
	matched := false
	for _, p := range e.store.Patterns(PatternFilter{}) {
		score := correctionMatch(p, c.Original)
		if score < correctionMatchFloor {
			continue
		}
		matched = true

		adj := c.Confidence * (score / 1.2) * e.feedbackScale()
		p.Performance.SuccessRate = clamp01(p.Performance.SuccessRate - 0.15*adj)
		p.Performance.AverageQuality = clamp01(p.Performance.AverageQuality - 0.15*adj)
		p.LearnedFrom.Confidence = max(0.1, p.LearnedFrom.Confidence-0.1*adj)
		p.LearnedFrom.FeedbackIDs = union(p.LearnedFrom.FeedbackIDs, fb.ID)
		p.LastUpdated = now
		res.AdjustedPatterns = append(res.AdjustedPatterns, p.ID)
		if p.Performance.AverageQuality < 0.3 && p.LearnedFrom.Confidence < 0.4 {
			e.logger.Warn("pattern quality is very low after correction", zap.String("pattern_id", p.ID))
		}

		priority := PriorityMedium
		if c.Confidence > 0.7 {
			priority = PriorityHigh
		}
		e.addRule(&Rule{
			ID:   e.newID("rule_corr_"),
			Name: "Adaptation from correction for pattern: " + p.Name,
			Description: fmt.Sprintf("Based on feedback %s, prefer approaches aligned with %q over %q. Reason: %s",
				fb.ID, c.Corrected, c.Original, c.Reason),
			Trigger: Trigger{
				Conditions: []string{
					"pattern_context_similar_to: " + p.ID,
					"original_text_detected: " + truncateRunes(c.Original, 50),
				},
				Threshold: 0.6 * c.Confidence,
			},
			Adaptation: Adaptation{
				AdjustmentType: AdjustStrategy,
				Modifications: Modifications{
					TargetPatternID:     p.ID,
					SuggestedCorrection: c.Corrected,
					OriginalContent:     c.Original,
					ReasonForChange:     c.Reason,
				},
				ExpectedImprovement: 0.1 + 0.15*c.Confidence,
			},
			Evidence: Evidence{
				SupportingFeedback: []string{fb.ID},
				SupportingPatterns: []string{p.ID},
				PerformanceData:    []DataPoint{{Metric: "correction_relevance", Value: score, Timestamp: now}},
				Confidence:         c.Confidence,
			},
			Priority:    priority,
			Created:     now,
			LastUpdated: now,
		}, res)
	}

	if !matched && c.Confidence > 0.6 {
		p := e.patternFromCorrection(fb, c)
		e.store.AddPattern(p)
		e.stats.PatternsRecognized++
		res.CreatedPatterns = append(res.CreatedPatterns, p.ID)
	}
	e.activity.PatternAnalysis = now
}

func (e *Engine) patternFromCorrection(fb *Feedback, c Correction) *Pattern {
	now := e.now()
	conditions := []string{"general_context"}
	if len(fb.Context) > 0 {
		keys := make([]string, 0, len(fb.Context))
		for k := range fb.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		conditions = conditions[:0]
		for _, k := range keys {
			conditions = append(conditions, fmt.Sprintf("%s_is_%v", k, fb.Context[k]))
		}
	}
	var problemTypes, domains []string
	if v, ok := fb.Context["problemType"].(string); ok && v != "" {
		problemTypes = []string{v}
	}
	if v, ok := fb.Context["domain"].(string); ok && v != "" {
		domains = []string{v}
	}
	complexity := Range{Min: 3, Max: 7}
	if v, ok := fb.Context["complexity"].(float64); ok && v > 0 {
		complexity = Range{Min: v, Max: v}
	}

	return &Pattern{
		ID:          e.newID("pattern_corr_"),
		Name:        "New pattern from correction: " + truncateRunes(c.Reason, 30),
		Description: fmt.Sprintf("Derived from user correction: %q. Original: %q, Corrected: %q.", c.Reason, c.Original, c.Corrected),
		Body: PatternBody{
			Conditions: conditions,
			Approach:   "Approach based on correction: " + c.Corrected,
			Techniques: e.extractors.Techniques.Extract(c.Corrected),
			Sequence: []string{
				fmt.Sprintf("Initial state: Problem related to %q", c.Original),
				fmt.Sprintf("Apply correction: Transition to %q", c.Corrected),
				"Rationale: " + c.Reason,
			},
		},
		Performance: Performance{
			SuccessRate:    c.Confidence * 0.8,
			AverageQuality: c.Confidence * 0.8,
			LastUsed:       now,
		},
		Contexts: Applicability{
			ProblemTypes:        problemTypes,
			Domains:             domains,
			ComplexityRange:     complexity,
			SimilarityThreshold: 0.7,
		},
		LearnedFrom: Provenance{
			FeedbackIDs:     []string{fb.ID},
			DiscoveryMethod: "feedback_correction",
			Confidence:      c.Confidence,
		},
		Created:     now,
		LastUpdated: now,
		Version:     "1.0",
	}
}

// preferenceRule 按固定映射表把偏好转为规则；output_format 只记录日志
func (e *Engine) preferenceRule(fb *Feedback, p Preference) *Rule {
	var (
		kind     AdjustmentType
		mods     Modifications
		priority Priority
		ok       bool
	)
	pref := strings.ToLower(p.Preference)
	switch strings.ToLower(p.Aspect) {
	case "reasoning_style":
		kind, priority = AdjustStrategy, PriorityMedium
		switch pref {
		case "concise":
			mods.Style, ok = &Style{Brevity: 1.0, Verbosity: 0.2}, true
		case "detailed":
			mods.Style, ok = &Style{Brevity: 0.2, Verbosity: 1.0}, true
		case "step_by_step":
			mods.Style, ok = &Style{PreferSequentialThinking: true, EnsureFullTrace: true}, true
		}
	case "level_of_detail":
		kind, priority = AdjustParameters, PriorityMedium
		modifier := 0.0
		switch pref {
		case "high":
			modifier = 0.2
		case "low":
			modifier = -0.2
		}
		mods.DetailLevelModifier, ok = &modifier, true
	case "risk_tolerance":
		kind, priority = AdjustStrategy, PriorityHigh
		switch pref {
		case "low", "cautious":
			mods.Style, ok = &Style{RiskAversion: 0.8, PreferHighConfidence: true}, true
		case "high", "experimental":
			mods.Style, ok = &Style{RiskAversion: 0.3, AllowLowerConfidence: true}, true
		}
	case "output_format":
		e.logger.Info("output format preference noted", zap.String("preference", p.Preference))
		return nil
	default:
		e.logger.Debug("unknown preference aspect", zap.String("aspect", p.Aspect))
		return nil
	}
	if !ok {
		e.logger.Debug("preference has no mapped adaptation",
			zap.String("aspect", p.Aspect), zap.String("preference", p.Preference))
		return nil
	}

	condition := "session_type_is: " + fb.SessionType
	if v, has := fb.Context["problemType"].(string); has && v != "" {
		condition = "problem_type_is: " + v
	}
	now := e.now()
	e.activity.AdaptationUpdate = now
	return &Rule{
		ID:          e.newID("rule_pref_"),
		Name:        fmt.Sprintf("Adapt to preference: %s = %s", p.Aspect, p.Preference),
		Description: fmt.Sprintf("Adapt based on user preference for %s to be %s. Strength: %.2f.", p.Aspect, p.Preference, p.Strength),
		Trigger: Trigger{
			Conditions: []string{condition},
			Threshold:  p.Strength * 0.7,
			Frequency:  preferenceFrequency,
		},
		Adaptation: Adaptation{
			AdjustmentType:      kind,
			Modifications:       mods,
			ExpectedImprovement: 0.05 + 0.1*p.Strength,
		},
		Evidence: Evidence{
			SupportingFeedback: []string{fb.ID},
			SupportingPatterns: []string{},
			Confidence:         p.Strength,
		},
		Priority:    priority,
		Created:     now,
		LastUpdated: now,
	}
}

// suggestionRule 建议中提到已知技术时，生成技术强调规则
func (e *Engine) suggestionRule(fb *Feedback, suggestion string) *Rule {
	techniques := e.extractors.Techniques.Extract(suggestion)
	if len(techniques) == 0 {
		return nil
	}
	now := e.now()
	confidence := clamp01(fb.Rating / 5)
	return &Rule{
		ID:          e.newID("rule_tech_"),
		Name:        "Emphasize techniques: " + strings.Join(techniques, ", "),
		Description: fmt.Sprintf("User suggestion on session %s: %s", fb.SessionID, suggestion),
		Trigger: Trigger{
			Conditions: []string{"session_type_is: " + fb.SessionType},
			Threshold:  0.5 * confidence,
			Frequency:  suggestionFrequency,
		},
		Adaptation: Adaptation{
			AdjustmentType: AdjustTechniqueEmphasis,
			Modifications: Modifications{
				TechniquesToEmphasize: techniques,
				EmphasisFactor:        defaultEmphasis,
				EmphasizedTechniques:  techniques,
			},
			ExpectedImprovement: 0.05,
		},
		Evidence: Evidence{
			SupportingFeedback: []string{fb.ID},
			SupportingPatterns: []string{},
			Confidence:         confidence,
		},
		Priority:    PriorityLow,
		Created:     now,
		LastUpdated: now,
	}
}

// endorsementRule 高评分且会话采用过某模式时，生成偏向该模式的方法选择规则
func (e *Engine) endorsementRule(fb *Feedback) *Rule {
	if fb.Rating < 4 {
		return nil
	}
	patternID, ok := e.usage[fb.SessionID]
	if !ok {
		return nil
	}
	p, ok := e.store.Pattern(patternID)
	if !ok {
		return nil
	}
	var conditions []string
	if len(p.Contexts.ProblemTypes) > 0 {
		conditions = append(conditions, fmt.Sprintf("ProblemType IN (%s)", strings.Join(p.Contexts.ProblemTypes, ", ")))
	}
	if len(conditions) == 0 {
		return nil
	}
	now := e.now()
	confidence := clamp01(fb.Rating / 5)
	return &Rule{
		ID:          e.newID("rule_sel_"),
		Name:        "Prefer pattern: " + p.Name,
		Description: fmt.Sprintf("Session %s rated %.1f while using pattern %s.", fb.SessionID, fb.Rating, p.ID),
		Trigger: Trigger{
			Conditions: []string{"pattern_context_similar_to: " + p.ID},
			Threshold:  0.6,
			Frequency:  suggestionFrequency,
		},
		Adaptation: Adaptation{
			AdjustmentType: AdjustApproachSelection,
			Modifications: Modifications{
				PrioritizePatternID: p.ID,
				ContextConditions:   conditions,
				Domains:             p.Contexts.Domains,
			},
			ExpectedImprovement: 0.05,
		},
		Evidence: Evidence{
			SupportingFeedback: []string{fb.ID},
			SupportingPatterns: []string{p.ID},
			Confidence:         confidence,
		},
		Priority:    PriorityMedium,
		Created:     now,
		LastUpdated: now,
	}
}
