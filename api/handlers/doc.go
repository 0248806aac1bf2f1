/*
Package handlers 提供 cogniflow HTTP API 的请求处理器实现。

# 概述

handlers 把 cognition 服务的工具与资源暴露为 HTTP 与 WebSocket 端点，
并提供健康检查和统一的响应/错误处理。所有 Handler 均遵循标准 net/http 接口。

# 核心类型

  - ToolHandler    — 工具列表、按名调用、资源列表与读取
  - WSHandler      — WebSocket 通道，一条连接顺序处理 tools/* 与 resources/* 帧
  - HealthHandler  — 服务健康检查（/health, /healthz, /ready）
  - Response       — 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo      — 结构化错误信息，含 code、operation、retryable
  - ResponseWriter — 包装 http.ResponseWriter 以捕获状态码
  - PingCheck      — 基于 ping 函数的可插拔健康检查

# 错误映射

INVALID_ARGUMENT / INVALID_REQUEST → 400，TARGET_NOT_FOUND / UNKNOWN_OPERATION → 404，
SESSION_NOT_ACTIVE → 409，RATE_LIMITED → 429，PERSISTENCE_FAILED → 503，
TIMEOUT → 504，其余 → 500。
*/
package handlers
