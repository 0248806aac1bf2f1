package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/BaSui01/cogniflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGraph(t *testing.T, cfg Config) *Graph {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}
	return NewGraph(cfg, zap.NewNop(), WithClock(clock))
}

func TestGraph_CreateRelationRequiresEndpoints(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, DefaultConfig())
	ctx := context.Background()

	_, err := g.CreateEntity(ctx, "cache", "component", []string{"stores responses"})
	require.NoError(t, err)

	_, err = g.CreateRelation(ctx, "cache", "database", "reads_from", 0.7)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrTargetNotFound))

	_, err = g.CreateEntity(ctx, "database", "component", nil)
	require.NoError(t, err)
	r, err := g.CreateRelation(ctx, "cache", "database", "reads_from", 1.4)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.Strength)
	assert.InDelta(t, 0.8, r.Meta.Confidence, 1e-9)

	meta := g.Meta()
	assert.Equal(t, 2, meta.TotalEntities)
	assert.Equal(t, 1, meta.TotalRelations)
}

func TestGraph_CreateEntityValidation(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, DefaultConfig())
	_, err := g.CreateEntity(context.Background(), " ", "component", nil)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidArgument))
	_, err = g.CreateEntity(context.Background(), "x", "", nil)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidArgument))
}

func TestGraph_SearchScoring(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, DefaultConfig())
	ctx := context.Background()
	_, _ = g.CreateEntity(ctx, "redis cache", "component", []string{"a redis cluster", "redis sentinel"})
	_, _ = g.CreateEntity(ctx, "queue", "component", []string{"backed by redis"})
	_, _ = g.CreateEntity(ctx, "frontend", "ui", nil)
	_, _ = g.CreateRelation(ctx, "redis cache", "frontend", "serves", 0.5)

	res, err := g.Search(ctx, SearchQuery{Query: "Redis"})
	require.NoError(t, err)
	require.Len(t, res.Entities, 3)
	assert.Equal(t, "redis cache", res.Entities[0].Name)
	assert.InDelta(t, (0.8+0.4+0.4+0.5)/2, res.RelevanceScores[0], 1e-9)
	assert.Equal(t, "queue", res.Entities[1].Name)
	assert.InDelta(t, (0.4+0.5)/2, res.RelevanceScores[1], 1e-9)
	assert.InDelta(t, 0.25, res.RelevanceScores[2], 1e-9)
	assert.Len(t, res.Relations, 1)
	assert.Equal(t, 3, res.Meta.TotalMatches)
	assert.False(t, res.FromCache)

	typed, err := g.Search(ctx, SearchQuery{Query: "frontend", EntityTypes: []string{"ui"}, MinRelevance: 0.5})
	require.NoError(t, err)
	require.Len(t, typed.Entities, 1)
	assert.InDelta(t, (0.8+0.6+0.5)/2, typed.RelevanceScores[0], 1e-9)

	_, err = g.Search(ctx, SearchQuery{})
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidArgument))
}

func TestGraph_SearchCacheInvalidatedByWrites(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, Config{Capacity: 10, SemanticCacheSize: 2})
	ctx := context.Background()
	_, _ = g.CreateEntity(ctx, "alpha", "concept", nil)

	first, err := g.Search(ctx, SearchQuery{Query: "alpha"})
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := g.Search(ctx, SearchQuery{Query: "alpha"})
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, g.CacheLen())

	_, _ = g.CreateEntity(ctx, "alpha beta", "concept", nil)
	third, err := g.Search(ctx, SearchQuery{Query: "alpha"})
	require.NoError(t, err)
	assert.False(t, third.FromCache)
	assert.Len(t, third.Entities, 2)

	for i := range 3 {
		_, err := g.Search(ctx, SearchQuery{Query: fmt.Sprintf("q%d", i)})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, g.CacheLen())
}

func TestGraph_StoreEvictsLeastRelevant(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, Config{Capacity: 2, SemanticCacheSize: 4})
	ctx := context.Background()

	_, err := g.Store(ctx, "low relevance note", "notes", 0.2)
	require.NoError(t, err)
	_, err = g.Store(ctx, "important architecture note", "notes", 0.9)
	require.NoError(t, err)
	res, err := g.Store(ctx, "default relevance note", "", 0)
	require.NoError(t, err)

	assert.Equal(t, 2, res.MemoryLoad)
	assert.True(t, res.EntityCreated)
	items := g.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "important architecture note", items[0].Content)
	assert.InDelta(t, 0.5, items[1].Relevance, 1e-9)

	e, ok := g.Entity("notes")
	require.True(t, ok)
	assert.Equal(t, "memory-derived", e.Type)
	assert.Len(t, e.Observations, 2)
	assert.InDelta(t, 0.9, e.Meta.RelevanceScore, 1e-9)
}

func TestGraph_RetrieveHybrid(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, DefaultConfig())
	ctx := context.Background()
	_, _ = g.Store(ctx, "Use an LRU cache for sessions", "design", 0.7)
	_, _ = g.Store(ctx, "cache warmup runs nightly", "ops", 0.9)
	_, _ = g.Store(ctx, "unrelated", "design", 0.3)

	res, err := g.Retrieve(ctx, "cache", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalMemoryFound)
	assert.Equal(t, "cache warmup runs nightly", res.Items[0].Content)
	assert.Equal(t, "hybrid_semantic_memory", res.Strategy)
	assert.NotEmpty(t, res.Entities)

	scoped, err := g.Retrieve(ctx, "cache", "DESIGN", 5)
	require.NoError(t, err)
	require.Len(t, scoped.Items, 1)
	assert.Equal(t, "Use an LRU cache for sessions", scoped.Items[0].Content)
}

func TestGraph_Recall(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, DefaultConfig())
	ctx := context.Background()
	_, _ = g.Store(ctx, "short", "x", 0.9)
	_, _ = g.Store(ctx, "long enough but not relevant", "x", 0.6)
	_, _ = g.Store(ctx, "long and relevant memory", "x", 0.8)
	_, _ = g.Store(ctx, "the most relevant memory", "x", 0.95)

	got := g.Recall("", 3, 0.6)
	require.Len(t, got, 2)
	assert.Equal(t, "the most relevant memory", got[0].Content)
	assert.Equal(t, "long and relevant memory", got[1].Content)
}

func TestGraph_RecordThought(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, DefaultConfig())
	at := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	g.RecordThought("thinking-1", 3, "thought-abc", "Consider caching", 0.7, at)

	e, ok := g.Entity("thought-thinking-1-3")
	require.True(t, ok)
	assert.Equal(t, "thought", e.Type)
	assert.Equal(t, "thought-abc", e.ID)
	assert.InDelta(t, 0.7, e.Meta.RelevanceScore, 1e-9)
}

func TestGraph_SnapshotRestore(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, DefaultConfig())
	ctx := context.Background()
	_, _ = g.CreateEntity(ctx, "b", "concept", []string{"second"})
	_, _ = g.CreateEntity(ctx, "a", "concept", []string{"first"})
	_, _ = g.CreateRelation(ctx, "b", "a", "precedes", 0.4)
	_, _ = g.Store(ctx, "remember this", "c", 0.6)
	_, _ = g.Search(ctx, SearchQuery{Query: "first"})

	snap := g.Snapshot()
	other := newTestGraph(t, DefaultConfig())
	other.Restore(snap)

	names := make([]string, 0)
	for _, e := range other.Entities() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
	assert.Len(t, other.Relations(), 1)
	assert.Len(t, other.Items(), 1)
	assert.Equal(t, 3, other.Meta().TotalEntities)
	assert.Equal(t, 1, other.CacheLen())
}
