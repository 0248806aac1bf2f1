package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/BaSui01/cogniflow/internal/cache"
	"go.uber.org/zap"
)

// RedisStore 基于 Redis 的快照存储，适合多实例共享同一份状态
type RedisStore struct {
	manager *cache.Manager
	key     string
}

// NewRedisStore 连接 Redis 并创建存储
func NewRedisStore(cfg cache.Config, key string, logger *zap.Logger) (*RedisStore, error) {
	// 快照不过期
	cfg.DefaultTTL = 0
	m, err := cache.NewManager(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewRedisStoreWithManager(m, key), nil
}

// NewRedisStoreWithManager 复用已有的连接
func NewRedisStoreWithManager(m *cache.Manager, key string) *RedisStore {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &RedisStore{manager: m, key: key}
}

// Load 读取快照
func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.manager.Get(ctx, s.key)
	switch {
	case cache.IsCacheMiss(err):
		return nil, ErrNotFound
	case errors.Is(err, cache.ErrClosed):
		return nil, ErrStoreClosed
	case err != nil:
		return nil, fmt.Errorf("load snapshot from redis: %w", err)
	}
	return data, nil
}

// Save 覆盖保存快照
func (s *RedisStore) Save(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return ErrInvalidInput
	}
	err := s.manager.Set(ctx, s.key, data, 0)
	if errors.Is(err, cache.ErrClosed) {
		return ErrStoreClosed
	}
	if err != nil {
		return fmt.Errorf("save snapshot to redis: %w", err)
	}
	return nil
}

// Ping 健康检查
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.manager.Ping(ctx); err != nil {
		if errors.Is(err, cache.ErrClosed) {
			return ErrStoreClosed
		}
		return err
	}
	return nil
}

// Close 关闭连接
func (s *RedisStore) Close() error { return s.manager.Close() }
