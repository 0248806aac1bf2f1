/*
包 database 提供基于 GORM 的数据库连接池管理。

Open 按驱动名称（sqlite 使用 glebarez 纯 Go 实现，另有 postgres、mysql）
打开数据库并返回 PoolManager。PoolManager 负责连接池参数、后台健康检查、
事务执行与可重试错误的指数退避重试，SQL 快照存储基于它实现。
*/
package database
