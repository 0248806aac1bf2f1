package learning

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/BaSui01/cogniflow/types"
	"go.uber.org/zap"
)

// AdaptRequest 规则应用请求
type AdaptRequest struct {
	Priority Priority `json:"priority,omitempty"`
	Domains  []string `json:"domains,omitempty"`
	Force    bool     `json:"force_adaptation,omitempty"`
}

// AdaptResult 规则应用结果
type AdaptResult struct {
	Applied []string `json:"applied"`
	Skipped int      `json:"skipped"`
	Message string   `json:"message"`
}

// Adapt 筛选规则并应用通过门控的规则
// 门控：证据置信度 ≥ 阈值 且 距上次应用 ≥ 频率；Force 跳过门控
func (e *Engine) Adapt(ctx context.Context, req AdaptRequest) (*AdaptResult, error) {
	if req.Priority != "" && !validPriority(req.Priority) {
		return nil, types.NewInvalidArgumentError("priority", fmt.Sprintf("unknown priority %q", req.Priority))
	}
	res := &AdaptResult{Applied: []string{}}
	for _, r := range e.store.Rules() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if req.Priority != "" && r.Priority != req.Priority {
			continue
		}
		if len(req.Domains) > 0 && !overlaps(r.Adaptation.Modifications.Domains, req.Domains) {
			continue
		}
		if !req.Force && !e.shouldApply(r) {
			res.Skipped++
			continue
		}
		e.applyRule(r)
		now := e.now()
		r.Application.AppliedCount++
		r.Application.LastApplied = now
		e.stats.AdaptationsApplied++
		res.Applied = append(res.Applied, r.Name)
	}

	e.activity.AdaptationUpdate = e.now()
	res.Message = fmt.Sprintf("Applied %d adaptation rules: %s. Learning engine updated with new behavioral patterns.",
		len(res.Applied), strings.Join(res.Applied, ", "))
	if len(res.Applied) > 0 {
		e.journal.Record(types.JournalEntry{
			ID:        e.newID("adapt_log_"),
			Timestamp: e.now(),
			Message:   res.Message,
			Tags:      []string{"adaptation", "learning"},
		})
	}
	e.logger.Info("adaptation pass finished",
		zap.Int("applied", len(res.Applied)),
		zap.Int("skipped", res.Skipped),
		zap.Bool("forced", req.Force))
	return res, nil
}

func (e *Engine) shouldApply(r *Rule) bool {
	if r.Evidence.Confidence < r.Trigger.Threshold*e.thresholdScale() {
		return false
	}
	if r.Application.LastApplied.IsZero() {
		return true
	}
	return e.now().Sub(r.Application.LastApplied) >= r.Trigger.Frequency
}

func (e *Engine) applyRule(r *Rule) {
	m := r.Adaptation.Modifications
	switch r.Adaptation.AdjustmentType {
	case AdjustStrategy:
		e.modifyStrategy(m)
	case AdjustParameters:
		e.tuneParameters(m)
	case AdjustApproachSelection:
		e.selectApproach(m)
	case AdjustTechniqueEmphasis:
		e.emphasizeTechniques(m)
	default:
		e.logger.Warn("unknown adjustment type", zap.String("rule_id", r.ID),
			zap.String("type", string(r.Adaptation.AdjustmentType)))
	}
}

// modifyStrategy 修改目标模式；无目标模式时把风格参数作用到引擎
func (e *Engine) modifyStrategy(m Modifications) {
	if m.TargetPatternID == "" {
		if m.Style != nil {
			e.mergeStyle(*m.Style)
		}
		return
	}
	p, ok := e.store.Pattern(m.TargetPatternID)
	if !ok {
		e.logger.Warn("pattern not found for strategy modification", zap.String("pattern_id", m.TargetPatternID))
		return
	}

	modified := false
	if m.NewApproach != "" {
		p.Body.Approach = m.NewApproach
		modified = true
	}
	if m.NewSequence != nil {
		p.Body.Sequence = append([]string(nil), m.NewSequence...)
		modified = true
	}
	if len(m.NewTechniques) > 0 {
		p.Body.Techniques = union(p.Body.Techniques, m.NewTechniques...)
		modified = true
	}
	if len(m.ConditionsToRemove) > 0 {
		p.Body.Conditions = slices.DeleteFunc(p.Body.Conditions, func(c string) bool {
			return slices.Contains(m.ConditionsToRemove, c)
		})
		modified = true
	}
	if len(m.ConditionsToAdd) > 0 {
		p.Body.Conditions = union(p.Body.Conditions, m.ConditionsToAdd...)
		modified = true
	}
	// 更正规则：把原文替换为建议内容
	if m.OriginalContent != "" && m.SuggestedCorrection != "" {
		if replaceFold(&p.Body.Approach, m.OriginalContent, m.SuggestedCorrection) {
			modified = true
		}
		for i := range p.Body.Sequence {
			if replaceFold(&p.Body.Sequence[i], m.OriginalContent, m.SuggestedCorrection) {
				modified = true
			}
		}
	}
	if modified {
		p.LastUpdated = e.now()
		p.Version = bumpVersion(p.Version)
	}
}

func (e *Engine) mergeStyle(s Style) {
	if s.Brevity != 0 {
		e.style.Brevity = clamp01(s.Brevity)
	}
	if s.Verbosity != 0 {
		e.style.Verbosity = clamp01(s.Verbosity)
	}
	if s.DetailLevel != 0 {
		e.style.DetailLevel = clamp01(s.DetailLevel)
	}
	if s.RiskAversion != 0 {
		e.style.RiskAversion = clamp01(s.RiskAversion)
	}
	if s.PreferSequentialThinking {
		e.style.PreferSequentialThinking = true
	}
	if s.EnsureFullTrace {
		e.style.EnsureFullTrace = true
	}
	// 高置信与低置信偏好互斥，后到者覆盖
	if s.PreferHighConfidence {
		e.style.PreferHighConfidence, e.style.AllowLowerConfidence = true, false
	}
	if s.AllowLowerConfidence {
		e.style.AllowLowerConfidence, e.style.PreferHighConfidence = true, false
	}
}

// tuneParameters 可调参数截断到 [0,1]
func (e *Engine) tuneParameters(m Modifications) {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = clamp01(*v)
		}
	}
	set(&e.tunables.FeedbackWeight, m.FeedbackWeight)
	set(&e.tunables.PatternThreshold, m.PatternThreshold)
	set(&e.tunables.AdaptationAggressiveness, m.AdaptationAggressiveness)
	set(&e.tunables.ExampleInfluence, m.ExampleInfluence)
	if m.DetailLevelModifier != nil {
		e.style.DetailLevel = clamp01(e.style.DetailLevel + *m.DetailLevelModifier)
	}
}

func (e *Engine) selectApproach(m Modifications) {
	if m.PrioritizePatternID == "" || len(m.ContextConditions) == 0 {
		return
	}
	p, ok := e.store.Pattern(m.PrioritizePatternID)
	if !ok {
		return
	}
	p.Body.Conditions = union(p.Body.Conditions, m.ContextConditions...)
	p.LearnedFrom.Confidence = clamp01(p.LearnedFrom.Confidence + approachBoost)
	p.LastUpdated = e.now()
}

func (e *Engine) emphasizeTechniques(m Modifications) {
	if len(m.TechniquesToEmphasize) == 0 {
		return
	}
	factor := m.EmphasisFactor
	if factor <= 0 {
		factor = defaultEmphasis
	}
	now := e.now()
	for _, p := range e.store.Patterns(PatternFilter{}) {
		n := 0
		for _, t := range p.Body.Techniques {
			if slices.Contains(m.TechniquesToEmphasize, t) {
				n++
			}
		}
		if n == 0 {
			continue
		}
		p.Performance.AverageQuality = clamp01(p.Performance.AverageQuality + factor*float64(n))
		p.Performance.SuccessRate = clamp01(p.Performance.SuccessRate + factor*float64(n)/2)
		p.LastUpdated = now
	}
	for _, r := range e.store.Rules() {
		mods := &r.Adaptation.Modifications
		if mods.EmphasizedTechniques == nil {
			continue
		}
		mods.EmphasizedTechniques = union(mods.EmphasizedTechniques, m.TechniquesToEmphasize...)
		r.Evidence.Confidence = clamp01(r.Evidence.Confidence + factor)
		r.LastUpdated = now
	}
}

func validPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func overlaps(a, b []string) bool {
	for _, v := range a {
		if slices.Contains(b, v) {
			return true
		}
	}
	return false
}

// replaceFold 大小写不敏感地替换 *s 中首次出现的 old
func replaceFold(s *string, old, repl string) bool {
	i := strings.Index(strings.ToLower(*s), strings.ToLower(old))
	if i < 0 || i+len(old) > len(*s) {
		return false
	}
	*s = (*s)[:i] + repl + (*s)[i+len(old):]
	return true
}
