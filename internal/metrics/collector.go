package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 工具调用指标
	toolCallsTotal   *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec

	// 思考会话指标
	thinkingSessions   *prometheus.CounterVec
	thoughtsPerSession prometheus.Histogram
	reactCycles        *prometheus.CounterVec

	// 评估指标
	assessmentScore *prometheus.HistogramVec
	flawsTotal      *prometheus.CounterVec

	// 学习指标
	feedbackTotal      *prometheus.CounterVec
	adaptationsApplied prometheus.Counter
	patternsTotal      prometheus.Gauge

	// 记忆指标
	memoryItems    prometheus.Gauge
	graphEntities  prometheus.Gauge
	semanticLookup *prometheus.CounterVec

	// 快照指标
	snapshotSaves        *prometheus.CounterVec
	snapshotSaveDuration prometheus.Histogram

	logger *zap.Logger
}

// NewCollector 创建指标收集器；reg 为 nil 时注册到默认 Registry
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	c := &Collector{logger: logger.With(zap.String("component", "metrics"))}

	c.httpRequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	c.httpRequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	c.toolCallsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_calls_total",
		Help:      "Total number of tool calls by outcome",
	}, []string{"tool", "code"})

	c.toolCallDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tool_call_duration_seconds",
		Help:      "Tool call duration in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"tool"})

	c.thinkingSessions = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "thinking_sessions_total",
		Help:      "Thinking sessions by the status they yielded with",
	}, []string{"status"})

	c.thoughtsPerSession = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "thoughts_per_session",
		Help:      "Number of thoughts recorded per thinking run",
		Buckets:   prometheus.LinearBuckets(1, 2, 10),
	})

	c.reactCycles = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "react_cycles_total",
		Help:      "ReAct cycles by action success",
	}, []string{"success"})

	c.assessmentScore = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "assessment_overall_score",
		Help:      "Overall score of self-assessments",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
	}, []string{"target_type"})

	c.flawsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assessment_flaws_total",
		Help:      "Reasoning flaws detected by type",
	}, []string{"type"})

	c.feedbackTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "learning_feedback_total",
		Help:      "User feedback processed by type",
	}, []string{"feedback_type"})

	c.adaptationsApplied = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "learning_adaptations_applied_total",
		Help:      "Adaptation rules applied",
	})

	c.patternsTotal = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "learning_patterns",
		Help:      "Number of recognized reasoning patterns",
	})

	c.memoryItems = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "working_memory_items",
		Help:      "Items held in working memory",
	})

	c.graphEntities = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "knowledge_graph_entities",
		Help:      "Entities in the knowledge graph",
	})

	c.semanticLookup = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "semantic_search_total",
		Help:      "Semantic searches by cache result",
	}, []string{"cache"})

	c.snapshotSaves = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshot_saves_total",
		Help:      "Cognitive state snapshot saves by outcome",
	}, []string{"trigger", "status"})

	c.snapshotSaveDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "snapshot_save_duration_seconds",
		Help:      "Snapshot encode and save duration in seconds",
		Buckets:   prometheus.DefBuckets,
	})

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

// =============================================================================
// 🎯 记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordToolCall 记录工具调用；code 为空表示成功
func (c *Collector) RecordToolCall(tool, code string, duration time.Duration) {
	if code == "" {
		code = "OK"
	}
	c.toolCallsTotal.WithLabelValues(tool, code).Inc()
	c.toolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordThinkingRun 记录一次思考循环的结果
func (c *Collector) RecordThinkingRun(status string, thoughts int) {
	c.thinkingSessions.WithLabelValues(status).Inc()
	c.thoughtsPerSession.Observe(float64(thoughts))
}

// RecordReActCycle 记录 ReAct 循环
func (c *Collector) RecordReActCycle(success bool) {
	label := "false"
	if success {
		label = "true"
	}
	c.reactCycles.WithLabelValues(label).Inc()
}

// RecordAssessment 记录评估得分与发现的缺陷
func (c *Collector) RecordAssessment(targetType string, score float64, flawTypes []string) {
	c.assessmentScore.WithLabelValues(targetType).Observe(score)
	for _, t := range flawTypes {
		c.flawsTotal.WithLabelValues(t).Inc()
	}
}

// RecordFeedback 记录反馈
func (c *Collector) RecordFeedback(feedbackType string) {
	if feedbackType == "" {
		feedbackType = "unspecified"
	}
	c.feedbackTotal.WithLabelValues(feedbackType).Inc()
}

// RecordAdaptations 记录应用的规则数
func (c *Collector) RecordAdaptations(n int) {
	c.adaptationsApplied.Add(float64(n))
}

// SetLearningPatterns 设置模式总数
func (c *Collector) SetLearningPatterns(n int) {
	c.patternsTotal.Set(float64(n))
}

// SetMemoryLoad 设置工作记忆与图谱规模
func (c *Collector) SetMemoryLoad(items, entities int) {
	c.memoryItems.Set(float64(items))
	c.graphEntities.Set(float64(entities))
}

// RecordSemanticSearch 记录语义检索是否命中缓存
func (c *Collector) RecordSemanticSearch(fromCache bool) {
	label := "miss"
	if fromCache {
		label = "hit"
	}
	c.semanticLookup.WithLabelValues(label).Inc()
}

// RecordSnapshotSave 记录快照保存；trigger 取 manual、auto、shutdown
func (c *Collector) RecordSnapshotSave(trigger string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.snapshotSaves.WithLabelValues(trigger, status).Inc()
	c.snapshotSaveDuration.Observe(duration.Seconds())
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码归类
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
