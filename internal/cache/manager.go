package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/cogniflow/internal/tlsutil"
)

// =============================================================================
// 💾 Redis 连接管理
// =============================================================================

var (
	// ErrCacheMiss 键不存在
	ErrCacheMiss = errors.New("cache miss")
	// ErrClosed 管理器已关闭
	ErrClosed = errors.New("cache manager is closed")
)

// Manager 持有 Redis 客户端，所有键自动加上 KeyPrefix
type Manager struct {
	redis  *redis.Client
	config Config
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// Config Redis 连接配置
type Config struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`

	// 键前缀
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`

	// 默认过期时间，0 表示不过期
	DefaultTTL time.Duration `yaml:"default_ttl" json:"default_ttl"`

	MaxRetries   int `yaml:"max_retries" json:"max_retries"`
	PoolSize     int `yaml:"pool_size" json:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns" json:"min_idle_conns"`

	// 健康检查间隔，0 表示关闭
	HealthCheckInterval time.Duration `yaml:"health_check_interval" json:"health_check_interval"`

	// TLS 为 true 时使用 tlsutil 的加固配置连接
	TLS bool `yaml:"tls" json:"tls"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Addr:                "localhost:6379",
		KeyPrefix:           "cogniflow:",
		MaxRetries:          3,
		PoolSize:            10,
		MinIdleConns:        2,
		HealthCheckInterval: 30 * time.Second,
	}
}

// NewManager 连接 Redis 并在 5 秒内完成 Ping
func NewManager(config Config, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := &redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		MaxRetries:   config.MaxRetries,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
	}
	if config.TLS {
		opts.TLSConfig = tlsutil.DefaultTLSConfig()
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	m := &Manager{
		redis:  client,
		config: config,
		logger: logger.With(zap.String("component", "redis")),
		done:   make(chan struct{}),
	}
	if config.HealthCheckInterval > 0 {
		go m.healthCheckLoop()
	}

	m.logger.Info("redis manager initialized",
		zap.String("addr", config.Addr),
		zap.String("key_prefix", config.KeyPrefix),
		zap.Int("pool_size", config.PoolSize),
	)
	return m, nil
}

// Key 返回带前缀的完整键
func (m *Manager) Key(key string) string { return m.config.KeyPrefix + key }

// =============================================================================
// 🎯 读写
// =============================================================================

// Get 读取字节值，键不存在时返回 ErrCacheMiss
func (m *Manager) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	val, err := m.redis.Get(ctx, m.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		m.logger.Error("redis get failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

// Set 写入字节值；ttl 为 0 时使用 DefaultTTL
func (m *Manager) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}
	if err := m.redis.Set(ctx, m.Key(key), value, ttl).Err(); err != nil {
		m.logger.Error("redis set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete 删除键
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = m.Key(k)
	}
	if err := m.redis.Del(ctx, full...).Err(); err != nil {
		m.logger.Error("redis delete failed", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Ping 检查连接
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return m.redis.Ping(ctx).Err()
}

// Close 关闭连接并停止健康检查
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	m.logger.Info("closing redis manager")
	return m.redis.Close()
}

// =============================================================================
// 🏥 健康检查
// =============================================================================

func (m *Manager) healthCheckLoop() {
	ticker := time.NewTicker(m.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.Ping(ctx); err != nil && !errors.Is(err, ErrClosed) {
			m.logger.Error("redis health check failed", zap.Error(err))
		}
		cancel()
	}
}

// IsCacheMiss 判断是否为键不存在
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
