package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/BaSui01/cogniflow/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store 写入工作记忆。容量已满时先淘汰相关度最低的条目。
// 同时以 context（为空时生成名称）为名创建或补充 memory-derived 实体。
func (g *Graph) Store(ctx context.Context, content, memCtx string, relevance float64) (*StoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, types.NewInvalidArgumentError("content", "memory content is required")
	}
	if relevance <= 0 {
		relevance = defaultRelevance
	}
	relevance = clamp01(relevance)

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if len(g.items) >= g.capacity {
		least := 0
		for i, it := range g.items {
			if it.Relevance < g.items[least].Relevance {
				least = i
			}
		}
		evicted := g.items[least]
		g.items = append(g.items[:least], g.items[least+1:]...)
		g.logger.Debug("working memory item evicted",
			zap.String("id", evicted.ID),
			zap.Float64("relevance", evicted.Relevance))
	}
	item := &Item{
		ID:        "memory-" + uuid.NewString(),
		Content:   content,
		Timestamp: now,
		Relevance: relevance,
		Context:   memCtx,
	}
	g.items = append(g.items, item)

	name := memCtx
	if name == "" {
		name = "memory-concept-" + uuid.NewString()[:8]
	}
	res := &StoreResult{ItemID: item.ID, MemoryLoad: len(g.items), EntityName: name}
	if e, ok := g.entities[name]; ok {
		e.Observations = append(e.Observations, content)
		e.Meta.LastUpdated = now
		e.Meta.RelevanceScore = max(e.Meta.RelevanceScore, relevance)
		g.touch()
	} else {
		g.putEntity(&Entity{
			ID:           "entity-" + uuid.NewString(),
			Name:         name,
			Type:         entityTypeMemory,
			Observations: []string{content},
			Meta:         EntityMeta{Created: now, LastUpdated: now, RelevanceScore: relevance},
		})
		res.EntityCreated = true
	}
	return res, nil
}

// Retrieve 混合检索：图谱语义检索加上工作记忆的子串匹配
func (g *Graph) Retrieve(ctx context.Context, query, memCtx string, limit int) (*RetrieveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRetrieveLimit
	}

	var semantic []*Entity
	if query != "" {
		q := SearchQuery{Query: query, MaxResults: limit * 2, MinRelevance: DefaultMinRelevance}
		if memCtx != "" {
			q.EntityTypes = []string{entityTypeMemory}
		}
		sr, err := g.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		semantic = sr.Entities
	}

	g.mu.RLock()
	var matched []*Item
	for _, it := range g.items {
		if memCtx != "" && !strings.Contains(strings.ToLower(it.Context), strings.ToLower(memCtx)) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(it.Content), strings.ToLower(query)) {
			continue
		}
		copied := *it
		matched = append(matched, &copied)
	}
	g.mu.RUnlock()

	sortItems(matched)
	items := matched
	if len(items) > limit {
		items = items[:limit]
	}
	entities := semantic
	if len(entities) > limit {
		entities = entities[:limit]
	}
	if items == nil {
		items = []*Item{}
	}
	if entities == nil {
		entities = []*Entity{}
	}
	return &RetrieveResult{
		Query:              query,
		Items:              items,
		Entities:           entities,
		TotalMemoryFound:   len(matched),
		TotalSemanticFound: len(semantic),
		Returned:           max(len(items), len(entities)),
		Strategy:           "hybrid_semantic_memory",
	}, nil
}

// Recall 返回相关度高于 minRelevance 且内容长于 10 个字符的条目，按相关度降序。
// query 非空时只保留内容包含 query 的条目。
func (g *Graph) Recall(query string, limit int, minRelevance float64) []*Item {
	g.mu.RLock()
	defer g.mu.RUnlock()
	needle := strings.ToLower(query)
	var out []*Item
	for _, it := range g.items {
		if it.Relevance <= minRelevance || len(it.Content) <= 10 {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(it.Content), needle) {
			continue
		}
		copied := *it
		out = append(out, &copied)
	}
	sortItems(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Items 返回工作记忆条目
func (g *Graph) Items() []*Item {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Item, len(g.items))
	for i, it := range g.items {
		copied := *it
		out[i] = &copied
	}
	return out
}

// Capacity 返回工作记忆容量
func (g *Graph) Capacity() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.capacity
}

// sortItems 相关度降序，相同时较新的在前
func sortItems(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Relevance != items[j].Relevance {
			return items[i].Relevance > items[j].Relevance
		}
		return items[i].Timestamp.After(items[j].Timestamp)
	})
}
