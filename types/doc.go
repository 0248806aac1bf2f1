// Copyright (c) cogniflow Authors.
// Licensed under the MIT License.

/*
Package types 提供 cogniflow 服务的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 agent、cognition、api
等上层模块提供统一的错误契约与 Context 传播工具，以避免循环依赖。

# 核心类型

  - Error / ErrorCode — 结构化错误体系，含 HTTP 状态码、Retryable、Operation 标记
  - TargetNotFound / InvalidArgument / UnknownOperation / SessionNotActive 四类操作错误

# 主要能力

  - Context 传播：WithTraceID / WithRequestID / WithSessionID / WithTool
  - 错误工具链：WrapError / AsError / IsErrorCode / IsRetryable
*/
package types
