package cogniflow

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/cogniflow/agent/persistence"
	"github.com/BaSui01/cogniflow/cognition"
	"github.com/BaSui01/cogniflow/config"
	"github.com/BaSui01/cogniflow/types"
)

func TestNew_InMemory(t *testing.T) {
	ctx := context.Background()
	svc, err := New(ctx, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	defer svc.Close()

	raw, err := svc.Call(ctx, "memory_store", cognition.Args{"content": "embedded use"})
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Contains(t, out["item_id"], "memory-")
	assert.Len(t, svc.Tools(), 21)
}

func TestNew_FileConfigRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.Persistence.File.Path = filepath.Join(t.TempDir(), "state.json")

	svc, err := New(ctx, WithConfig(cfg))
	require.NoError(t, err)
	_, err = svc.Call(ctx, "knowledge_create_entity", cognition.Args{"name": "redis", "entity_type": "service"})
	require.NoError(t, err)
	require.NoError(t, svc.Save(ctx, cognition.TriggerManual))
	require.NoError(t, svc.Close())

	again, err := New(ctx, WithConfig(cfg))
	require.NoError(t, err)
	defer again.Close()
	graph, err := again.ReadResource(cognition.ResourceKnowledgeGraph)
	require.NoError(t, err)
	assert.Contains(t, string(graph), "redis")
}

func TestNew_CorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1,2,3]`), 0o600))
	store, err := persistence.NewFileStore(path)
	require.NoError(t, err)

	_, err = New(context.Background(), WithStore(store))
	assert.Equal(t, types.ErrPersistenceFailed, types.GetErrorCode(err))
}

func TestNew_InvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("persistence:\n  type: s3\n"), 0o600))

	_, err := New(context.Background(), WithConfigFile(path))
	assert.ErrorContains(t, err, "unsupported persistence type")
}
