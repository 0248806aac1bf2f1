// Package config 提供 cogniflow 的配置管理功能。
//
// 配置加载顺序为 默认值 → YAML 文件 → 环境变量，
// 覆盖服务端口、日志、遥测、快照持久化以及思考、评估、学习引擎的调参项。
package config
