// Copyright (c) cogniflow Authors.
// Licensed under the MIT License.

/*
Package main 提供 cogniflow 服务端程序入口。

# 概述

cmd/cogniflow 启动认知会话服务：顺序思考、评估、学习、ReAct、
知识图谱与推理链共享一份状态，通过 21 个工具对外暴露。
程序读取 YAML 配置与 COGNIFLOW_ 环境变量，使用 zap 结构化日志，
OpenTelemetry 追踪，Prometheus 指标在独立端口暴露。

# 子命令

  - serve   — 启动工具面（/v1/tools、/v1/resources、/v1/ws）与健康检查
  - migrate — 管理 sql 持久化所用的快照表
  - version — 构建信息
  - health  — 探测 /health 或 /ready

# 中间件链

Recovery、RequestID、SecurityHeaders、OTelTracing、Metrics、
RequestLogger、CORS、RateLimiter（按 IP）。

# 生命周期

serve 通过 errgroup 并行运行工具端口、指标端口与自动保存协程；
收到 SIGINT/SIGTERM 后依次排空请求、写最终快照、关闭存储与遥测。
*/
package main
