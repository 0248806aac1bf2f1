package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BaSui01/cogniflow/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultMaxResults 语义检索默认返回数
	DefaultMaxResults = 10
	// DefaultMinRelevance 语义检索默认最低相关度
	DefaultMinRelevance = 0.1
	// DefaultRetrieveLimit 混合检索默认返回数
	DefaultRetrieveLimit = 5

	defaultRelevance       = 0.5
	defaultRelationConf    = 0.8
	entityTypeMemory       = "memory-derived"
	entityTypeThought      = "thought"
	nameMatchWeight        = 0.8
	typeMatchWeight        = 0.6
	observationMatchWeight = 0.4
)

// Graph 工作记忆与知识图谱。
// 实体以名称为键，按插入顺序遍历；任何写操作都会清空语义缓存。
type Graph struct {
	mu sync.RWMutex

	entities  map[string]*Entity
	order     []string
	relations []*Relation
	meta      GraphMeta
	indexing  IndexingMeta

	items    []*Item
	capacity int

	cache      map[string]*SearchResult
	cacheOrder []string
	cacheSize  int

	now    func() time.Time
	logger *zap.Logger
}

// Option 图谱选项
type Option func(*Graph)

// WithClock 替换时钟
func WithClock(now func() time.Time) Option { return func(g *Graph) { g.now = now } }

// NewGraph 创建图谱
func NewGraph(cfg Config, logger *zap.Logger, opts ...Option) *Graph {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	if cfg.SemanticCacheSize <= 0 {
		cfg.SemanticCacheSize = DefaultConfig().SemanticCacheSize
	}
	g := &Graph{
		entities:  make(map[string]*Entity),
		capacity:  cfg.Capacity,
		cache:     make(map[string]*SearchResult),
		cacheSize: cfg.SemanticCacheSize,
		now:       time.Now,
		logger:    logger.With(zap.String("component", "knowledge_graph")),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// =============================================================================
// 实体与关系
// =============================================================================

// CreateEntity 创建实体；同名实体会被替换
func (g *Graph) CreateEntity(ctx context.Context, name, entityType string, observations []string) (*Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, types.NewInvalidArgumentError("name", "entity name is required")
	}
	if strings.TrimSpace(entityType) == "" {
		return nil, types.NewInvalidArgumentError("type", "entity type is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	e := &Entity{
		ID:           "entity-" + uuid.NewString(),
		Name:         name,
		Type:         entityType,
		Observations: append([]string{}, observations...),
		Meta:         EntityMeta{Created: now, LastUpdated: now, RelevanceScore: defaultRelevance},
	}
	g.putEntity(e)

	g.logger.Debug("entity created",
		zap.String("id", e.ID),
		zap.String("name", name),
		zap.String("type", entityType))
	return cloneEntity(e), nil
}

// putEntity 写入实体（需持有写锁）
func (g *Graph) putEntity(e *Entity) {
	if _, exists := g.entities[e.Name]; !exists {
		g.order = append(g.order, e.Name)
	}
	g.entities[e.Name] = e
	g.meta.TotalEntities = len(g.entities)
	g.touch()
}

// touch 记录一次增量更新并让缓存失效（需持有写锁）
func (g *Graph) touch() {
	g.meta.LastUpdated = g.now()
	g.indexing.IncrementalUpdates++
	clear(g.cache)
	g.cacheOrder = g.cacheOrder[:0]
}

// CreateRelation 在两个已存在的实体之间建立关系，强度截断到 [0,1]
func (g *Graph) CreateRelation(ctx context.Context, from, to, relationType string, strength float64) (*Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(relationType) == "" {
		return nil, types.NewInvalidArgumentError("type", "relation type is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, name := range []string{from, to} {
		if _, ok := g.entities[name]; !ok {
			return nil, types.NewTargetNotFoundError("entity", name).
				WithCause(fmt.Errorf("available entities: %s", strings.Join(g.order, ", ")))
		}
	}

	now := g.now()
	r := &Relation{
		ID:       "relation-" + uuid.NewString(),
		From:     from,
		To:       to,
		Type:     relationType,
		Strength: clamp01(strength),
		Meta:     RelationMeta{Created: now, LastAccessed: now, Confidence: defaultRelationConf},
	}
	g.relations = append(g.relations, r)
	g.meta.TotalRelations = len(g.relations)
	g.touch()

	g.logger.Debug("relation created",
		zap.String("id", r.ID),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("type", relationType))
	copied := *r
	return &copied, nil
}

// Entity 按名称查询实体
func (g *Graph) Entity(name string) (*Entity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.entities[name]
	if !ok {
		return nil, false
	}
	return cloneEntity(e), true
}

// Entities 按插入顺序返回全部实体
func (g *Graph) Entities() []*Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Entity, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, cloneEntity(g.entities[name]))
	}
	return out
}

// Relations 返回全部关系
func (g *Graph) Relations() []*Relation {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Relation, len(g.relations))
	for i, r := range g.relations {
		copied := *r
		out[i] = &copied
	}
	return out
}

// Meta 返回图谱统计
func (g *Graph) Meta() GraphMeta {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.meta
}

// RecordThought 将思考步骤作为 thought 实体写入图谱
func (g *Graph) RecordThought(sessionID string, number int, id, content string, confidence float64, at time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.putEntity(&Entity{
		ID:           id,
		Name:         fmt.Sprintf("thought-%s-%d", sessionID, number),
		Type:         entityTypeThought,
		Observations: []string{content},
		Meta:         EntityMeta{Created: at, LastUpdated: at, RelevanceScore: clamp01(confidence)},
	})
}

// =============================================================================
// 🔍 语义检索
// =============================================================================

// Search 按名称、类型、观察匹配打分，与实体自身相关度取平均。
// 结果按查询条件缓存，直到图谱下一次写入。
func (g *Graph) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(q.Query) == "" {
		return nil, types.NewInvalidArgumentError("query", "search query is required")
	}
	if q.MaxResults <= 0 {
		q.MaxResults = DefaultMaxResults
	}
	if q.MinRelevance <= 0 {
		q.MinRelevance = DefaultMinRelevance
	}
	key := cacheKey(q)

	g.mu.Lock()
	defer g.mu.Unlock()

	if cached, ok := g.cache[key]; ok {
		out := *cached
		out.FromCache = true
		return &out, nil
	}

	start := g.now()
	needle := strings.ToLower(q.Query)
	type scored struct {
		entity    *Entity
		relevance float64
	}
	var hits []scored
	for _, name := range g.order {
		e := g.entities[name]
		e.Meta.AccessCount++

		score := 0.0
		if strings.Contains(strings.ToLower(e.Name), needle) {
			score += nameMatchWeight
		}
		for _, t := range q.EntityTypes {
			if t == e.Type {
				score += typeMatchWeight
				break
			}
		}
		for _, obs := range e.Observations {
			if strings.Contains(strings.ToLower(obs), needle) {
				score += observationMatchWeight
			}
		}
		score = (score + e.Meta.RelevanceScore) / 2
		if score >= q.MinRelevance {
			hits = append(hits, scored{entity: e, relevance: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].relevance > hits[j].relevance })
	total := len(hits)
	if len(hits) > q.MaxResults {
		hits = hits[:q.MaxResults]
	}

	res := &SearchResult{
		Entities:        make([]*Entity, len(hits)),
		Relations:       []*Relation{},
		RelevanceScores: make([]float64, len(hits)),
	}
	names := make(map[string]bool, len(hits))
	for i, h := range hits {
		res.Entities[i] = cloneEntity(h.entity)
		res.RelevanceScores[i] = h.relevance
		names[h.entity.Name] = true
	}
	for _, r := range g.relations {
		if names[r.From] || names[r.To] {
			copied := *r
			res.Relations = append(res.Relations, &copied)
		}
	}
	res.Meta = SearchMeta{
		TotalMatches:    total,
		SearchTimeMS:    g.now().Sub(start).Milliseconds(),
		QueryComplexity: len(strings.Split(q.Query, " ")),
	}
	g.remember(key, res)
	return res, nil
}

// remember 写入缓存，超出容量时淘汰最早的查询（需持有写锁）
func (g *Graph) remember(key string, res *SearchResult) {
	if len(g.cacheOrder) >= g.cacheSize {
		oldest := g.cacheOrder[0]
		g.cacheOrder = g.cacheOrder[1:]
		delete(g.cache, oldest)
	}
	g.cache[key] = res
	g.cacheOrder = append(g.cacheOrder, key)
}

// CacheLen 返回缓存的查询数
func (g *Graph) CacheLen() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cache)
}

func cacheKey(q SearchQuery) string {
	b, err := json.Marshal(q)
	if err != nil {
		return q.Query
	}
	return string(b)
}

func cloneEntity(e *Entity) *Entity {
	copied := *e
	copied.Observations = append([]string{}, e.Observations...)
	return &copied
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
