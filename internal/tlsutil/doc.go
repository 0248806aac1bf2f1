// Package tlsutil 提供集中式 TLS 配置（TLS 1.2+，仅 AEAD 密码套件），
// 用于工具面 HTTPS 监听、health 子命令的探测客户端以及 Redis 快照存储连接。
package tlsutil
