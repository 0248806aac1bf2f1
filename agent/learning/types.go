package learning

import (
	"time"
)

// =============================================================================
// 🧩 推理模式
// =============================================================================

// Range 复杂度区间
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PatternBody 模式的可执行内容
type PatternBody struct {
	Conditions []string `json:"conditions"`
	Approach   string   `json:"approach"`
	Techniques []string `json:"techniques"`
	Sequence   []string `json:"sequence"`
}

// Performance 模式表现
type Performance struct {
	SuccessRate    float64   `json:"success_rate"`
	AverageQuality float64   `json:"average_quality"`
	UsageCount     int       `json:"usage_count"`
	LastUsed       time.Time `json:"last_used"`
}

// Applicability 适用范围
type Applicability struct {
	ProblemTypes        []string `json:"problem_types"`
	Domains             []string `json:"domains"`
	ComplexityRange     Range    `json:"complexity_range"`
	UserTypes           []string `json:"user_types,omitempty"`
	SimilarityThreshold float64  `json:"similarity_threshold"`
}

// Provenance 模式来源
type Provenance struct {
	FeedbackIDs     []string `json:"feedback_ids"`
	ExampleIDs      []string `json:"example_ids"`
	DiscoveryMethod string   `json:"discovery_method"`
	Confidence      float64  `json:"confidence"`
}

// Pattern 习得的推理模式，创建后不删除，UsageCount 只增不减
type Pattern struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Body        PatternBody   `json:"pattern"`
	Performance Performance   `json:"performance"`
	Contexts    Applicability `json:"applicable_contexts"`
	LearnedFrom Provenance    `json:"learned_from"`
	Created     time.Time     `json:"created"`
	LastUpdated time.Time     `json:"last_updated"`
	Version     string        `json:"version"`
}

// =============================================================================
// ⚙️ 适应规则
// =============================================================================

// AdjustmentType 规则的调整类型（封闭集合）
type AdjustmentType string

const (
	AdjustStrategy          AdjustmentType = "strategy_modification"
	AdjustParameters        AdjustmentType = "parameter_tuning"
	AdjustApproachSelection AdjustmentType = "approach_selection"
	AdjustTechniqueEmphasis AdjustmentType = "technique_emphasis"
)

// Priority 规则优先级
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Trigger 规则触发条件
type Trigger struct {
	Conditions []string      `json:"conditions"`
	Threshold  float64       `json:"threshold"`
	Frequency  time.Duration `json:"frequency"`
}

// Modifications 规则携带的修改项，按 AdjustmentType 使用其中一部分字段
type Modifications struct {
	// strategy_modification
	TargetPatternID     string   `json:"target_pattern_id,omitempty"`
	NewApproach         string   `json:"new_approach,omitempty"`
	NewSequence         []string `json:"new_sequence,omitempty"`
	NewTechniques       []string `json:"new_techniques,omitempty"`
	ConditionsToAdd     []string `json:"conditions_to_add,omitempty"`
	ConditionsToRemove  []string `json:"conditions_to_remove,omitempty"`
	SuggestedCorrection string   `json:"suggested_correction,omitempty"`
	OriginalContent     string   `json:"original_content,omitempty"`
	ReasonForChange     string   `json:"reason_for_change,omitempty"`
	Style               *Style   `json:"style,omitempty"`

	// parameter_tuning
	FeedbackWeight           *float64 `json:"feedback_weight,omitempty"`
	PatternThreshold         *float64 `json:"pattern_threshold,omitempty"`
	AdaptationAggressiveness *float64 `json:"adaptation_aggressiveness,omitempty"`
	ExampleInfluence         *float64 `json:"example_influence,omitempty"`
	DetailLevelModifier      *float64 `json:"detail_level_modifier,omitempty"`

	// approach_selection
	PrioritizePatternID string   `json:"prioritize_pattern_id,omitempty"`
	ContextConditions   []string `json:"context_conditions,omitempty"`

	// technique_emphasis
	TechniquesToEmphasize []string `json:"techniques_to_emphasize,omitempty"`
	EmphasisFactor        float64  `json:"emphasis_factor,omitempty"`
	EmphasizedTechniques  []string `json:"emphasized_techniques,omitempty"`

	Domains []string `json:"domains,omitempty"`
}

// Adaptation 规则的调整内容
type Adaptation struct {
	AdjustmentType      AdjustmentType `json:"adjustment_type"`
	Modifications       Modifications  `json:"modifications"`
	ExpectedImprovement float64        `json:"expected_improvement"`
}

// DataPoint 证据数据点
type DataPoint struct {
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Evidence 规则证据
type Evidence struct {
	SupportingFeedback []string    `json:"supporting_feedback"`
	SupportingPatterns []string    `json:"supporting_patterns"`
	PerformanceData    []DataPoint `json:"performance_data,omitempty"`
	Confidence         float64     `json:"confidence"`
}

// Application 规则的应用记录
type Application struct {
	AppliedCount   int       `json:"applied_count"`
	SuccessRate    float64   `json:"success_rate"`
	LastApplied    time.Time `json:"last_applied"`
	EffectMeasured bool      `json:"effect_measured"`
}

// Rule 适应规则
type Rule struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Trigger     Trigger     `json:"trigger"`
	Adaptation  Adaptation  `json:"adaptation"`
	Evidence    Evidence    `json:"evidence"`
	Application Application `json:"application"`
	Priority    Priority    `json:"priority"`
	Created     time.Time   `json:"created"`
	LastUpdated time.Time   `json:"last_updated"`
}

// =============================================================================
// 📝 反馈与示例
// =============================================================================

// Correction 用户对某段推理的更正
type Correction struct {
	Original   string  `json:"original"`
	Corrected  string  `json:"corrected"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Preference 用户偏好
type Preference struct {
	Aspect     string  `json:"aspect"`
	Preference string  `json:"preference"`
	Strength   float64 `json:"strength"`
}

// Feedback 用户反馈
type Feedback struct {
	ID           string         `json:"id"`
	SessionID    string         `json:"session_id"`
	SessionType  string         `json:"session_type"`
	FeedbackType string         `json:"feedback_type"`
	Rating       float64        `json:"rating"`
	Corrections  []Correction   `json:"corrections,omitempty"`
	Preferences  []Preference   `json:"preferences,omitempty"`
	Suggestions  []string       `json:"suggestions,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// LearningPoints 从示例中提取的要点
type LearningPoints struct {
	Techniques   []string `json:"techniques"`
	Principles   []string `json:"principles"`
	Patterns     []string `json:"patterns"`
	AntiPatterns []string `json:"anti_patterns"`
}

// Impact 示例的影响记录
type Impact struct {
	TimesReferenced     int       `json:"times_referenced"`
	InfluencedPatterns  []string  `json:"influenced_patterns"`
	ImprovementMeasured float64   `json:"improvement_measured"`
	LastUsed            time.Time `json:"last_used"`
}

// Example 用户演示示例
type Example struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Input            string         `json:"input"`
	Context          map[string]any `json:"context,omitempty"`
	ExpectedApproach string         `json:"expected_approach"`
	IdealProcess     []string       `json:"ideal_process"`
	ExpectedOutput   string         `json:"expected_output"`
	QualityRating    float64        `json:"quality_rating"`
	Annotations      []string       `json:"annotations,omitempty"`
	LearningPoints   LearningPoints `json:"learning_points"`
	Applicability    Applicability  `json:"applicability"`
	Impact           Impact         `json:"impact"`
	Source           string         `json:"source"`
	Verified         bool           `json:"verified"`
	Created          time.Time      `json:"created"`
}

// =============================================================================
// 📊 表现追踪
// =============================================================================

// TrackerWindow 追踪时间窗口
type TrackerWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Period string    `json:"period"`
}

// TrackerMetrics 窗口内的聚合值
type TrackerMetrics struct {
	SessionCount       int     `json:"session_count"`
	QualitySamples     int     `json:"quality_samples"`
	AverageQuality     float64 `json:"average_quality"`
	UserSatisfaction   float64 `json:"user_satisfaction"`
	AdaptationSuccess  float64 `json:"adaptation_success"`
	PatternUtilization float64 `json:"pattern_utilization"`
}

// PerformanceTracker 按天滚动的表现追踪器
type PerformanceTracker struct {
	ID            string         `json:"id"`
	Window        TrackerWindow  `json:"timeframe"`
	Metrics       TrackerMetrics `json:"metrics"`
	BySessionType map[string]int `json:"by_session_type"`
}

// Tunables 学习引擎可调参数，均在 [0,1]
type Tunables struct {
	FeedbackWeight           float64 `json:"feedback_weight"`
	PatternThreshold         float64 `json:"pattern_threshold"`
	AdaptationAggressiveness float64 `json:"adaptation_aggressiveness"`
	ExampleInfluence         float64 `json:"example_influence"`
	SimilarityThreshold      float64 `json:"similarity_threshold"`
}

// Style 由偏好规则塑造的输出风格
type Style struct {
	Brevity                  float64 `json:"brevity"`
	Verbosity                float64 `json:"verbosity"`
	DetailLevel              float64 `json:"detail_level"`
	RiskAversion             float64 `json:"risk_aversion"`
	PreferSequentialThinking bool    `json:"prefer_sequential_thinking,omitempty"`
	EnsureFullTrace          bool    `json:"ensure_full_trace,omitempty"`
	PreferHighConfidence     bool    `json:"prefer_high_confidence,omitempty"`
	AllowLowerConfidence     bool    `json:"allow_lower_confidence,omitempty"`
}

// Stats 学习统计
type Stats struct {
	TotalFeedbackProcessed int `json:"total_feedback_processed"`
	PatternsRecognized     int `json:"patterns_recognized"`
	RulesCreated           int `json:"rules_created"`
	AdaptationsApplied     int `json:"adaptations_applied"`
	ExamplesLearned        int `json:"examples_learned"`
}

// Activity 各环节最近活动时间
type Activity struct {
	FeedbackProcessing time.Time `json:"feedback_processing"`
	PatternAnalysis    time.Time `json:"pattern_analysis"`
	AdaptationUpdate   time.Time `json:"adaptation_update"`
	ExampleIntegration time.Time `json:"example_integration"`
}
