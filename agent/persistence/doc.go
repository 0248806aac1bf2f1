// Copyright (c) cogniflow Authors.
// Licensed under the MIT License.

/*
包 persistence 提供认知状态快照的持久化存储抽象及多后端实现。

# 概述

认知会话的全部状态（记忆图谱、思考会话、推理链、ReAct 会话、评估与学习数据）
序列化为一份 JSON 快照。本包只负责按键保存与读取这份字节数据，
编码与解码由 agent/state 完成。

# 核心接口

  - SnapshotStore: Load/Save/Ping/Close。从未保存时 Load 返回 ErrNotFound。

# 后端实现

  - Memory: 内存实现，适合测试。
  - File: 单文件，临时文件加重命名实现原子写入，默认后端。
  - Redis: 复用 internal/cache 的连接管理，快照不过期。
  - SQL: 复用 internal/database 连接池，gorm upsert，附带 sha256 摘要校验。
    表结构由 internal/migration 创建。
  - MongoDB: 每个键一个文档，upsert 写入。

# 使用方式

	store, err := persistence.NewSnapshotStore(ctx, cfg, logger)
*/
package persistence
