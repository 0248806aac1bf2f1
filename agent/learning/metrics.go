package learning

import (
	"math"
	"sort"
	"time"

	"github.com/BaSui01/cogniflow/types"
)

// 时间窗口名称
const (
	TimeframeHour  = "hour"
	TimeframeDay   = "day"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
)

var timeframes = map[string]time.Duration{
	TimeframeHour:  time.Hour,
	TimeframeDay:   24 * time.Hour,
	TimeframeWeek:  7 * 24 * time.Hour,
	TimeframeMonth: 30 * 24 * time.Hour,
}

// NoPerformanceData 时间窗口内没有追踪数据时的提示
const NoPerformanceData = "No performance data available for the specified timeframe."

// MetricsWindow 统计窗口
type MetricsWindow struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration string    `json:"duration"`
}

// PerformanceSummary 窗口内的表现汇总
type PerformanceSummary struct {
	AverageQuality      float64 `json:"average_quality"`
	AverageSatisfaction float64 `json:"average_satisfaction"`
	TotalSessions       int     `json:"total_sessions"`
	ImprovementRate     float64 `json:"improvement_rate"`
}

// Sample 时间序列上的一个点
type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Breakdown 按追踪器展开的时间序列
type Breakdown struct {
	QualityOverTime      []Sample `json:"quality_over_time"`
	SatisfactionOverTime []Sample `json:"satisfaction_over_time"`
	SessionCountOverTime []Sample `json:"session_count_over_time"`
}

// Metrics 学习与表现指标
type Metrics struct {
	Window      MetricsWindow      `json:"timeframe"`
	Performance PerformanceSummary `json:"performance"`
	Learning    Stats              `json:"learning"`
	Tunables    Tunables           `json:"configuration"`
	Style       Style              `json:"style"`
	Insights    []string           `json:"insights"`
	Breakdown   *Breakdown         `json:"breakdown,omitempty"`
	Message     string             `json:"message,omitempty"`
}

// Metrics 汇总窗口内的追踪器；窗口内无数据时返回带提示的空结果
// 窗口名为空时按 day 处理
func (e *Engine) Metrics(timeframe string, includeBreakdown bool) (*Metrics, error) {
	if timeframe == "" {
		timeframe = TimeframeDay
	}
	span, ok := timeframes[timeframe]
	if !ok {
		return nil, types.NewInvalidArgumentError("timeframe", "timeframe must be one of hour, day, week, month")
	}
	now := e.now()
	start := now.Add(-span)

	var relevant []*PerformanceTracker
	for _, t := range e.performance {
		if !t.Window.Start.Before(start) {
			relevant = append(relevant, t)
		}
	}
	out := &Metrics{
		Window:   MetricsWindow{Start: start, End: now, Duration: timeframe},
		Learning: e.stats,
		Tunables: e.tunables,
		Style:    e.style,
		Insights: []string{},
	}
	if len(relevant) == 0 {
		out.Message = NoPerformanceData
		return out, nil
	}
	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].Window.Start.Before(relevant[j].Window.Start)
	})

	var quality, satisfaction float64
	for _, t := range relevant {
		quality += t.Metrics.AverageQuality
		satisfaction += t.Metrics.UserSatisfaction
		out.Performance.TotalSessions += t.Metrics.SessionCount
	}
	n := float64(len(relevant))
	quality /= n
	satisfaction /= n
	rate := improvementRate(relevant)
	out.Performance.AverageQuality = round3(quality)
	out.Performance.AverageSatisfaction = round3(satisfaction)
	out.Performance.ImprovementRate = rate
	out.Insights = insights(quality, satisfaction, rate)
	if includeBreakdown {
		out.Breakdown = breakdown(relevant)
	}
	return out, nil
}

// improvementRate 首尾追踪器的质量差按天折算，需至少两个追踪器
func improvementRate(sorted []*PerformanceTracker) float64 {
	if len(sorted) < 2 {
		return 0
	}
	first, last := sorted[0], sorted[len(sorted)-1]
	days := last.Window.End.Sub(first.Window.Start).Hours() / 24
	if days <= 0 {
		return 0
	}
	return (last.Metrics.AverageQuality - first.Metrics.AverageQuality) / days
}

func insights(quality, satisfaction, rate float64) []string {
	out := []string{}
	switch {
	case quality > 0.8:
		out = append(out, "High quality reasoning performance maintained")
	case quality < 0.6:
		out = append(out, "Reasoning quality needs improvement")
	}
	switch {
	case satisfaction > 0.8:
		out = append(out, "User satisfaction is high")
	case satisfaction < 0.6:
		out = append(out, "User satisfaction could be improved")
	}
	switch {
	case rate > 0.01:
		out = append(out, "Performance is improving over time")
	case rate < -0.01:
		out = append(out, "Performance may be declining")
	}
	return out
}

func breakdown(trackers []*PerformanceTracker) *Breakdown {
	b := &Breakdown{
		QualityOverTime:      make([]Sample, len(trackers)),
		SatisfactionOverTime: make([]Sample, len(trackers)),
		SessionCountOverTime: make([]Sample, len(trackers)),
	}
	for i, t := range trackers {
		b.QualityOverTime[i] = Sample{Time: t.Window.Start, Value: t.Metrics.AverageQuality}
		b.SatisfactionOverTime[i] = Sample{Time: t.Window.Start, Value: t.Metrics.UserSatisfaction}
		b.SessionCountOverTime[i] = Sample{Time: t.Window.Start, Value: float64(t.Metrics.SessionCount)}
	}
	return b
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
