package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/cogniflow/config"
)

// NewSnapshotStore 按配置创建快照存储
func NewSnapshotStore(ctx context.Context, cfg StoreConfig, logger *zap.Logger) (SnapshotStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("creating snapshot store", zap.String("type", string(cfg.Type)))

	switch cfg.Type {
	case StoreTypeMemory:
		return NewMemoryStore(), nil
	case StoreTypeFile, "":
		return NewFileStore(cfg.File.Path)
	case StoreTypeRedis:
		return NewRedisStore(cfg.Redis, cfg.key(), logger)
	case StoreTypeSQL:
		return NewSQLStore(cfg.SQL, cfg.key(), logger)
	case StoreTypeMongoDB:
		return NewMongoStore(ctx, cfg.Mongo, cfg.key(), logger)
	default:
		return nil, fmt.Errorf("%w: unsupported store type %q", ErrInvalidInput, cfg.Type)
	}
}

// MustNewSnapshotStore 仅用于初始化阶段，失败时 panic
func MustNewSnapshotStore(ctx context.Context, cfg StoreConfig, logger *zap.Logger) SnapshotStore {
	s, err := NewSnapshotStore(ctx, cfg, logger)
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot store: %v", err))
	}
	return s
}

// StoreConfigFrom 把配置文件中的持久化段映射为存储配置，未填字段沿用默认值
func StoreConfigFrom(p config.PersistenceConfig) StoreConfig {
	sc := DefaultStoreConfig()
	sc.Type = StoreType(p.Type)
	sc.AutoSaveInterval = p.AutoSaveInterval

	if p.File.Path != "" {
		sc.File.Path = p.File.Path
	}

	if p.Redis.Addr != "" {
		sc.Redis.Addr = p.Redis.Addr
	}
	sc.Redis.Password = p.Redis.Password
	sc.Redis.DB = p.Redis.DB
	sc.Redis.TLS = p.Redis.TLS
	if p.Redis.PoolSize > 0 {
		sc.Redis.PoolSize = p.Redis.PoolSize
	}
	if p.Redis.KeyPrefix != "" {
		sc.Redis.KeyPrefix = p.Redis.KeyPrefix
	}

	if p.Database.Driver != "" {
		sc.SQL.Driver = p.Database.Driver
		sc.SQL.DSN = p.Database.DSN()
	}
	if p.Database.MaxOpenConns > 0 {
		sc.SQL.Pool.MaxOpenConns = p.Database.MaxOpenConns
	}
	if p.Database.MaxIdleConns > 0 {
		sc.SQL.Pool.MaxIdleConns = p.Database.MaxIdleConns
	}
	if p.Database.ConnMaxLifetime > 0 {
		sc.SQL.Pool.ConnMaxLifetime = p.Database.ConnMaxLifetime
	}

	if p.MongoDB.URI != "" {
		sc.Mongo.URI = p.MongoDB.URI
	}
	if p.MongoDB.Database != "" {
		sc.Mongo.Database = p.MongoDB.Database
	}
	if p.MongoDB.Collection != "" {
		sc.Mongo.Collection = p.MongoDB.Collection
	}
	return sc
}
