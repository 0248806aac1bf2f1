package memory

import (
	"sort"
)

// Snapshot 图谱与工作记忆的可持久化状态
type Snapshot struct {
	Entities      map[string]*Entity       `json:"entities"`
	Relations     []*Relation              `json:"relations"`
	Meta          GraphMeta                `json:"metadata"`
	Indexing      IndexingMeta             `json:"indexing_metadata"`
	Items         []*Item                  `json:"items"`
	Capacity      int                      `json:"capacity"`
	SemanticCache map[string]*SearchResult `json:"semantic_cache"`
}

// Snapshot 导出状态
func (g *Graph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := Snapshot{
		Entities:      make(map[string]*Entity, len(g.entities)),
		Relations:     make([]*Relation, len(g.relations)),
		Meta:          g.meta,
		Indexing:      g.indexing,
		Items:         make([]*Item, len(g.items)),
		Capacity:      g.capacity,
		SemanticCache: make(map[string]*SearchResult, len(g.cache)),
	}
	for name, e := range g.entities {
		s.Entities[name] = cloneEntity(e)
	}
	for i, r := range g.relations {
		copied := *r
		s.Relations[i] = &copied
	}
	for i, it := range g.items {
		copied := *it
		s.Items[i] = &copied
	}
	for k, v := range g.cache {
		s.SemanticCache[k] = v
	}
	return s
}

// Restore 用快照替换状态；实体顺序按创建时间重建，统计按实际数量重算
func (g *Graph) Restore(s Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entities = make(map[string]*Entity, len(s.Entities))
	g.order = g.order[:0]
	for name, e := range s.Entities {
		if e == nil {
			continue
		}
		copied := cloneEntity(e)
		copied.Name = name
		g.entities[name] = copied
		g.order = append(g.order, name)
	}
	sort.SliceStable(g.order, func(i, j int) bool {
		a, b := g.entities[g.order[i]], g.entities[g.order[j]]
		if !a.Meta.Created.Equal(b.Meta.Created) {
			return a.Meta.Created.Before(b.Meta.Created)
		}
		return a.Name < b.Name
	})

	g.relations = g.relations[:0]
	for _, r := range s.Relations {
		if r != nil {
			copied := *r
			g.relations = append(g.relations, &copied)
		}
	}
	g.items = g.items[:0]
	for _, it := range s.Items {
		if it != nil {
			copied := *it
			g.items = append(g.items, &copied)
		}
	}
	if s.Capacity > 0 {
		g.capacity = s.Capacity
	}

	g.meta = s.Meta
	g.meta.TotalEntities = len(g.entities)
	g.meta.TotalRelations = len(g.relations)
	g.indexing = s.Indexing

	clear(g.cache)
	g.cacheOrder = g.cacheOrder[:0]
	keys := make([]string, 0, len(s.SemanticCache))
	for k := range s.SemanticCache {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := s.SemanticCache[k]; v != nil && len(g.cacheOrder) < g.cacheSize {
			g.cache[k] = v
			g.cacheOrder = append(g.cacheOrder, k)
		}
	}
}
