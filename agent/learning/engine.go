package learning

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/BaSui01/cogniflow/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	trackerPeriod        = 24 * time.Hour
	preferenceFrequency  = 6 * time.Hour
	suggestionFrequency  = 24 * time.Hour
	highConfidenceFloor  = 0.7
	defaultEmphasis      = 0.05
	approachBoost        = 0.1
	correctionMatchFloor = 0.5
)

// DefaultTunables 返回默认可调参数
func DefaultTunables() Tunables {
	return Tunables{
		FeedbackWeight:           0.7,
		PatternThreshold:         0.6,
		AdaptationAggressiveness: 0.5,
		ExampleInfluence:         0.4,
		SimilarityThreshold:      0.65,
	}
}

// QualityLookup 返回某会话最近一次评估的总分
type QualityLookup func(sessionID string) (float64, bool)

// Engine 学习与适应引擎
// 不是并发安全的，由上层服务串行调用
type Engine struct {
	tunables   Tunables
	style      Style
	store      *Store
	extractors Extractors
	quality    QualityLookup
	journal    types.Journal
	now        func() time.Time
	logger     *zap.Logger

	feedback    []*Feedback
	examples    []*Example
	performance []*PerformanceTracker
	stats       Stats
	activity    Activity
	// usage 记录会话实际采用的模式，用于把评分回馈到模式
	usage map[string]string
}

// Option 引擎选项
type Option func(*Engine)

// WithStore 使用外部存储
func WithStore(s *Store) Option { return func(e *Engine) { e.store = s } }

// WithExtractors 替换提取表
func WithExtractors(x Extractors) Option { return func(e *Engine) { e.extractors = x } }

// WithQualityLookup 接入评估分数查询
func WithQualityLookup(q QualityLookup) Option { return func(e *Engine) { e.quality = q } }

// WithJournal 设置学习日志
func WithJournal(j types.Journal) Option { return func(e *Engine) { e.journal = j } }

// WithClock 替换时钟
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// NewEngine 创建学习引擎
func NewEngine(t Tunables, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if t == (Tunables{}) {
		t = DefaultTunables()
	}
	if t.SimilarityThreshold <= 0 {
		t.SimilarityThreshold = DefaultTunables().SimilarityThreshold
	}
	e := &Engine{
		tunables:   t,
		store:      NewStore(),
		extractors: DefaultExtractors(),
		journal:    types.NopJournal{},
		now:        time.Now,
		logger:     logger.With(zap.String("component", "learning_engine")),
		usage:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) newID(prefix string) string {
	return prefix + uuid.NewString()[:8]
}

// Store 返回模式与规则存储
func (e *Engine) Store() *Store { return e.store }

// relativeTo 参数相对默认值的倍率；默认参数下为 1
func relativeTo(v, def float64) float64 {
	if def <= 0 {
		return 1
	}
	return v / def
}

// feedbackScale 更正惩罚的强度随 FeedbackWeight 缩放
func (e *Engine) feedbackScale() float64 {
	return relativeTo(e.tunables.FeedbackWeight, DefaultTunables().FeedbackWeight)
}

// exampleScale 示范对已有模式表现的拉动随 ExampleInfluence 缩放
func (e *Engine) exampleScale() float64 {
	return relativeTo(e.tunables.ExampleInfluence, DefaultTunables().ExampleInfluence)
}

// thresholdScale 规则门控阈值的倍率：激进度越高，需要的证据越少
// 激进度 0 → 1.5，默认 0.5 → 1，1 → 0.5
func (e *Engine) thresholdScale() float64 {
	return 1.5 - clamp01(e.tunables.AdaptationAggressiveness)
}

// Tunables 返回当前可调参数
func (e *Engine) Tunables() Tunables { return e.tunables }

// Style 返回当前风格画像
func (e *Engine) Style() Style { return e.style }

// Stats 返回统计
func (e *Engine) Stats() Stats { return e.stats }

// Feedback 返回反馈历史
func (e *Engine) Feedback() []*Feedback { return append([]*Feedback(nil), e.feedback...) }

// Examples 返回示例库
func (e *Engine) Examples() []*Example { return append([]*Example(nil), e.examples...) }

// Performance 返回表现追踪历史
func (e *Engine) Performance() []*PerformanceTracker {
	return append([]*PerformanceTracker(nil), e.performance...)
}

// =============================================================================
// 🎯 模式推荐
// =============================================================================

// Recommend 为目标挑选最合适的已习得模式，并记录一次使用
// 问题类型重叠度与模式置信度共同排序；风格要求高置信时提高门槛
func (e *Engine) Recommend(_ context.Context, sessionID, goal string) (*Pattern, bool) {
	problemTypes := e.extractors.ProblemTypes.Extract(goal)
	floor := e.tunables.PatternThreshold
	if e.style.PreferHighConfidence && floor < highConfidenceFloor {
		floor = highConfidenceFloor
	}
	if e.style.AllowLowerConfidence {
		floor /= 2
	}

	var best *Pattern
	bestScore := 0.0
	for _, p := range e.store.Patterns(PatternFilter{}) {
		if p.LearnedFrom.Confidence < floor {
			continue
		}
		overlap := jaccard(p.Contexts.ProblemTypes, problemTypes)
		if overlap == 0 {
			continue
		}
		score := overlap*0.6 + p.LearnedFrom.Confidence*0.2 + p.Performance.AverageQuality*0.2
		if score > bestScore {
			best, bestScore = p, score
		}
	}
	if best == nil {
		return nil, false
	}
	best.Performance.UsageCount++
	best.Performance.LastUsed = e.now()
	if sessionID != "" {
		e.usage[sessionID] = best.ID
	}
	e.logger.Debug("pattern recommended",
		zap.String("pattern_id", best.ID),
		zap.String("session_id", sessionID),
		zap.Float64("score", bestScore))
	return best, true
}

// =============================================================================
// 📈 表现追踪
// =============================================================================

// currentTracker 返回覆盖当前时刻的追踪器，不存在则新建一天的窗口
func (e *Engine) currentTracker() *PerformanceTracker {
	now := e.now()
	for _, t := range e.performance {
		if !now.Before(t.Window.Start) && !now.After(t.Window.End) {
			return t
		}
	}
	t := &PerformanceTracker{
		ID:            e.newID("perf_"),
		Window:        TrackerWindow{Start: now, End: now.Add(trackerPeriod), Period: "day"},
		BySessionType: make(map[string]int),
	}
	e.performance = append(e.performance, t)
	return t
}

// recordSession 将一次反馈计入当前追踪器
func (e *Engine) recordSession(fb *Feedback) {
	t := e.currentTracker()
	m := &t.Metrics
	n := float64(m.SessionCount)
	satisfaction := clamp01(fb.Rating / 5)
	m.UserSatisfaction = (m.UserSatisfaction*n + satisfaction) / (n + 1)
	m.SessionCount++
	if fb.SessionType != "" {
		if t.BySessionType == nil {
			t.BySessionType = make(map[string]int)
		}
		t.BySessionType[fb.SessionType]++
	}
	if e.quality != nil {
		if q, ok := e.quality(fb.SessionID); ok {
			k := float64(m.QualitySamples)
			m.AverageQuality = (m.AverageQuality*k + clamp01(q)) / (k + 1)
			m.QualitySamples++
		}
	}
	patterns, _ := e.store.Len()
	if patterns > 0 {
		m.PatternUtilization = float64(len(e.usage)) / float64(patterns)
		if m.PatternUtilization > 1 {
			m.PatternUtilization = 1
		}
	}
}

// =============================================================================
// 💾 快照
// =============================================================================

// Snapshot 学习引擎的持久化状态
type Snapshot struct {
	Tunables    Tunables              `json:"configuration"`
	Style       Style                 `json:"style"`
	Stats       Stats                 `json:"stats"`
	Activity    Activity              `json:"last_activity"`
	Patterns    []*Pattern            `json:"recognized_patterns"`
	Rules       []*Rule               `json:"adaptation_rules"`
	Feedback    []*Feedback           `json:"user_feedback_history"`
	Examples    []*Example            `json:"example_database"`
	Performance []*PerformanceTracker `json:"performance_history"`
	Usage       map[string]string     `json:"pattern_usage,omitempty"`
}

// Snapshot 导出状态
func (e *Engine) Snapshot() Snapshot {
	usage := make(map[string]string, len(e.usage))
	for k, v := range e.usage {
		usage[k] = v
	}
	return Snapshot{
		Tunables:    e.tunables,
		Style:       e.style,
		Stats:       e.stats,
		Activity:    e.activity,
		Patterns:    e.store.Patterns(PatternFilter{}),
		Rules:       e.store.Rules(),
		Feedback:    e.Feedback(),
		Examples:    e.Examples(),
		Performance: e.Performance(),
		Usage:       usage,
	}
}

// Restore 用快照替换状态
func (e *Engine) Restore(s Snapshot) {
	if s.Tunables != (Tunables{}) {
		e.tunables = s.Tunables
		if e.tunables.SimilarityThreshold <= 0 {
			e.tunables.SimilarityThreshold = DefaultTunables().SimilarityThreshold
		}
	}
	e.style = s.Style
	e.stats = s.Stats
	e.activity = s.Activity
	e.store.Replace(s.Patterns, s.Rules)
	e.feedback = append([]*Feedback(nil), s.Feedback...)
	e.examples = append([]*Example(nil), s.Examples...)
	e.performance = append([]*PerformanceTracker(nil), s.Performance...)
	sort.SliceStable(e.performance, func(i, j int) bool {
		return e.performance[i].Window.Start.Before(e.performance[j].Window.Start)
	})
	e.usage = make(map[string]string, len(s.Usage))
	for k, v := range s.Usage {
		e.usage[k] = v
	}
}

// =============================================================================
// helpers
// =============================================================================

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func union(a []string, b ...string) []string {
	out := append([]string(nil), a...)
	for _, v := range b {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func bumpVersion(v string) string {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		f = 1.0
	}
	return fmt.Sprintf("%.1f", f+0.1)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
