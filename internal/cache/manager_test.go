package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 Manager 测试
// =============================================================================

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Manager) {
	t.Helper()
	mr := miniredis.RunT(t)

	config := Config{Addr: mr.Addr(), KeyPrefix: "test:"}
	manager, err := NewManager(config, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	return mr, manager
}

func TestManager_SetAndGet(t *testing.T) {
	mr, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "state", []byte(`{"v":1}`), 0))
	value, err := manager.Get(ctx, "state")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(value))

	// 前缀写入 Redis
	raw, err := mr.Get("test:state")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, raw)
	// DefaultTTL 为 0 时不过期
	assert.Zero(t, mr.TTL("test:state"))
}

func TestManager_Miss(t *testing.T) {
	_, manager := setupTestRedis(t)
	value, err := manager.Get(context.Background(), "non-existent")
	assert.True(t, IsCacheMiss(err))
	assert.Nil(t, value)
}

func TestManager_Delete(t *testing.T) {
	_, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, manager.Delete(ctx, "k"))
	_, err := manager.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
	assert.NoError(t, manager.Delete(ctx))
}

func TestManager_TTL(t *testing.T) {
	mr, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "ttl", []byte("value"), 100*time.Millisecond))
	_, err := manager.Get(ctx, "ttl")
	require.NoError(t, err)

	mr.FastForward(200 * time.Millisecond)
	_, err = manager.Get(ctx, "ttl")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_Closed(t *testing.T) {
	_, manager := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, manager.Close())
	require.NoError(t, manager.Close())

	assert.ErrorIs(t, manager.Ping(ctx), ErrClosed)
	assert.ErrorIs(t, manager.Set(ctx, "k", nil, 0), ErrClosed)
	_, err := manager.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestManager_ConnectFailure(t *testing.T) {
	manager, err := NewManager(Config{Addr: "127.0.0.1:1"}, nil)
	assert.Nil(t, manager)
	assert.Error(t, err)
}

func TestManager_ConcurrentOperations(t *testing.T) {
	_, manager := setupTestRedis(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("concurrent-%d", id)
			assert.NoError(t, manager.Set(ctx, key, []byte("value"), time.Minute))
			got, err := manager.Get(ctx, key)
			assert.NoError(t, err)
			assert.Equal(t, "value", string(got))
		}(i)
	}
	wg.Wait()
}
