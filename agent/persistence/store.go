package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/BaSui01/cogniflow/internal/cache"
	"github.com/BaSui01/cogniflow/internal/database"
)

// 通用错误
var (
	ErrNotFound     = errors.New("snapshot not found")
	ErrStoreClosed  = errors.New("store is closed")
	ErrInvalidInput = errors.New("invalid input")
)

// StoreType 存储后端类型
type StoreType string

const (
	StoreTypeMemory  StoreType = "memory"
	StoreTypeFile    StoreType = "file"
	StoreTypeRedis   StoreType = "redis"
	StoreTypeSQL     StoreType = "sql"
	StoreTypeMongoDB StoreType = "mongodb"
)

// DefaultSnapshotKey 快照在键值类后端中的默认键
const DefaultSnapshotKey = "cognitive_state"

// SnapshotStore 保存与加载整份认知状态快照
type SnapshotStore interface {
	// Load 返回最近一次保存的快照；从未保存时返回 ErrNotFound
	Load(ctx context.Context) ([]byte, error)
	// Save 覆盖保存快照
	Save(ctx context.Context, data []byte) error
	// Ping 健康检查
	Ping(ctx context.Context) error
	// Close 释放资源
	Close() error
}

// StoreConfig 存储配置
type StoreConfig struct {
	Type StoreType `json:"type" yaml:"type"`

	// Key 快照键（redis/sql/mongodb）
	Key string `json:"key" yaml:"key"`

	File  FileStoreConfig  `json:"file" yaml:"file"`
	Redis cache.Config     `json:"redis" yaml:"redis"`
	SQL   database.Config  `json:"sql" yaml:"sql"`
	Mongo MongoStoreConfig `json:"mongodb" yaml:"mongodb"`

	// AutoSaveInterval 自动保存间隔，0 表示关闭
	AutoSaveInterval time.Duration `json:"auto_save_interval" yaml:"auto_save_interval"`
}

// FileStoreConfig 文件存储配置
type FileStoreConfig struct {
	Path string `json:"path" yaml:"path"`
}

// MongoStoreConfig MongoDB 存储配置
type MongoStoreConfig struct {
	URI        string `json:"uri" yaml:"uri"`
	Database   string `json:"database" yaml:"database"`
	Collection string `json:"collection" yaml:"collection"`
}

// DefaultStoreConfig 返回默认配置：文件存储，5 分钟自动保存
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Type:  StoreTypeFile,
		Key:   DefaultSnapshotKey,
		File:  FileStoreConfig{Path: "./data/cognitive_state.json"},
		Redis: cache.DefaultConfig(),
		SQL: database.Config{
			Driver: "sqlite",
			DSN:    "./data/cogniflow.db",
			Pool:   database.DefaultPoolConfig(),
		},
		Mongo: MongoStoreConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "cogniflow",
			Collection: "snapshots",
		},
		AutoSaveInterval: 5 * time.Minute,
	}
}

func (c StoreConfig) key() string {
	if c.Key == "" {
		return DefaultSnapshotKey
	}
	return c.Key
}
