// Copyright (c) cogniflow Authors.
// Licensed under the MIT License.

/*
包 memory 提供认知会话使用的工作记忆与知识图谱。

# 概述

[Graph] 同时持有三部分状态：

  - 工作记忆：有容量上限的 [Item] 列表，满时淘汰相关度最低的条目。
  - 知识图谱：以名称为键的 [Entity] 与按名称连接的 [Relation]。
  - 语义缓存：按查询条件缓存 [SearchResult]，图谱任何写入都会使其失效。

# 核心操作

  - [Graph.CreateEntity] / [Graph.CreateRelation]：建立实体与关系，
    关系两端必须已存在，强度截断到 [0,1]。
  - [Graph.Search]：名称命中 +0.8、类型命中 +0.6、每条观察命中 +0.4，
    再与实体自身相关度取平均。
  - [Graph.Store] / [Graph.Retrieve]：写入工作记忆并同步到图谱，
    以及语义检索加子串匹配的混合检索。
  - [Graph.RecordThought]：把思考步骤镜像为 thought 实体。

[Graph.Snapshot] 与 [Graph.Restore] 用于持久化，映射在落盘时由
state 包编码为 [键, 值] 数组。
*/
package memory
