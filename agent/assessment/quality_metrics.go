package assessment

import (
	"sort"
	"time"
)

const (
	topFlawLimit   = 5
	trendThreshold = 0.05
)

// Trend directions.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

var severityRank = map[Severity]int{SeverityLow: 0, SeverityMedium: 1, SeverityHigh: 2, SeverityCritical: 3}

// Aggregator 质量指标聚合器
// 对时间窗口内的评估历史做统计，空窗口返回零值结构而非错误
type Aggregator struct {
	window time.Duration
	now    func() time.Time
}

// NewAggregator 创建聚合器，window 为零值时间窗口的默认回溯长度
func NewAggregator(window time.Duration, now func() time.Time) *Aggregator {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Aggregator{window: window, now: now}
}

// Resolve 补全时间窗口：零值表示最近 window；只给出一端时补另一端
func (g *Aggregator) Resolve(tf Timeframe) Timeframe {
	if tf.End.IsZero() {
		tf.End = g.now()
	}
	if tf.Start.IsZero() {
		tf.Start = tf.End.Add(-g.window)
	}
	return tf
}

func emptyDistribution() map[Evaluation]int {
	return map[Evaluation]int{
		EvaluationExcellent:  0,
		EvaluationGood:       0,
		EvaluationAcceptable: 0,
		EvaluationPoor:       0,
	}
}

// Calculate 计算窗口内的质量指标
func (g *Aggregator) Calculate(history []*SelfAssessment, applied []AppliedCorrection, tf Timeframe) *QualityMetrics {
	tf = g.Resolve(tf)
	m := &QualityMetrics{
		Timeframe:         tf,
		ScoreDistribution: emptyDistribution(),
		CommonFlaws:       []FlawCount{},
		ImprovementTrends: []Trend{},
	}

	var inRange []*SelfAssessment
	for _, a := range history {
		if tf.Contains(a.Timestamp) {
			inRange = append(inRange, a)
		}
	}
	if len(inRange) == 0 {
		return m
	}
	sort.SliceStable(inRange, func(i, j int) bool { return inRange[i].Timestamp.Before(inRange[j].Timestamp) })

	m.TotalAssessments = len(inRange)
	var sum, claritySum float64
	clarityCount := 0
	for _, a := range inRange {
		sum += a.OverallScore
		m.ScoreDistribution[a.OverallEvaluation]++
		if pa, ok := a.Principle(PrincipleClarity); ok {
			claritySum += pa.Score
			clarityCount++
			if pa.Evaluation == EvaluationPoor {
				m.UnclearReasoning++
			}
		}
	}
	m.AverageScore = sum / float64(len(inRange))
	if clarityCount > 0 {
		m.ClarityScore = claritySum / float64(clarityCount)
	}

	m.CommonFlaws = commonFlaws(inRange)

	// 仅整体得分的首尾趋势
	if len(inRange) > 1 {
		delta := inRange[len(inRange)-1].OverallScore - inRange[0].OverallScore
		m.ImprovementTrends = append(m.ImprovementTrends, Trend{
			Principle:      "overall",
			ChangeRate:     delta,
			TrendDirection: trendDirection(delta),
		})
	}

	m.CorrectionEffectiveness = effectiveness(history, applied, tf)
	return m
}

func trendDirection(delta float64) string {
	switch {
	case delta > trendThreshold:
		return TrendImproving
	case delta < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// commonFlaws 统计出现最多的缺陷类型，附带众数严重度
func commonFlaws(assessments []*SelfAssessment) []FlawCount {
	counts := make(map[FlawType]int)
	severities := make(map[FlawType]map[Severity]int)
	for _, a := range assessments {
		for _, f := range a.Flaws() {
			counts[f.Type]++
			if severities[f.Type] == nil {
				severities[f.Type] = make(map[Severity]int)
			}
			severities[f.Type][f.Severity]++
		}
	}

	out := make([]FlawCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, FlawCount{Type: t, Count: n, AverageSeverity: modeSeverity(severities[t])})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	if len(out) > topFlawLimit {
		out = out[:topFlawLimit]
	}
	return out
}

// modeSeverity 取出现次数最多的严重度，并列时取更严重者
func modeSeverity(counts map[Severity]int) Severity {
	best := SeverityMedium
	bestN := -1
	for s, n := range counts {
		if n > bestN || (n == bestN && severityRank[s] > severityRank[best]) {
			best, bestN = s, n
		}
	}
	return best
}

// effectiveness 统计窗口内已应用的修正，以及其后同一目标在该原则上得分提升的比例
func effectiveness(history []*SelfAssessment, applied []AppliedCorrection, tf Timeframe) Effectiveness {
	var eff Effectiveness
	for _, c := range applied {
		if !tf.Contains(c.AppliedAt) {
			continue
		}
		eff.Applied++
		for _, a := range history {
			if a.TargetID != c.TargetID || a.ID == c.AssessmentID || !a.Timestamp.After(c.AppliedAt) {
				continue
			}
			if pa, ok := a.Principle(c.PrincipleID); ok && pa.Score > c.ScoreBefore {
				eff.Successful++
				break
			}
		}
	}
	if eff.Applied > 0 {
		eff.Effectiveness = float64(eff.Successful) / float64(eff.Applied)
	}
	return eff
}

// Filter 按请求的指标类型裁剪缺陷与趋势；空列表保留全部
func (m *QualityMetrics) Filter(metricTypes []string) *QualityMetrics {
	if len(metricTypes) == 0 {
		return m
	}
	want := make(map[string]bool, len(metricTypes))
	for _, t := range metricTypes {
		want[t] = true
	}
	out := *m
	out.CommonFlaws = []FlawCount{}
	for _, f := range m.CommonFlaws {
		if want[string(f.Type)] || want["commonFlaws"] || want["common_flaws"] {
			out.CommonFlaws = append(out.CommonFlaws, f)
		}
	}
	out.ImprovementTrends = []Trend{}
	for _, t := range m.ImprovementTrends {
		if want[t.Principle] || want["improvementTrends"] || want["improvement_trends"] {
			out.ImprovementTrends = append(out.ImprovementTrends, t)
		}
	}
	return &out
}
