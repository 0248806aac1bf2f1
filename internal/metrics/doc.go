/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖 HTTP、工具调用、
思考会话、评估、学习、记忆与快照保存。

# 核心类型

  - Collector：持有 Counter、Histogram、Gauge 向量指标。
    通过 promauto.With(reg) 注册到调用方给定的 Registry，
    测试中每个用例使用独立 Registry。

# 主要指标

  - http_requests_total / http_request_duration_seconds
  - tool_calls_total{tool,code} / tool_call_duration_seconds
  - thinking_sessions_total{status} / thoughts_per_session
  - assessment_overall_score / assessment_flaws_total{type}
  - learning_feedback_total / learning_adaptations_applied_total
  - working_memory_items / knowledge_graph_entities / semantic_search_total{cache}
  - snapshot_saves_total{trigger,status}
*/
package metrics
