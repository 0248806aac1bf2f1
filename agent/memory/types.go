package memory

import (
	"time"
)

// EntityMeta 实体元数据
type EntityMeta struct {
	Created        time.Time `json:"created"`
	LastUpdated    time.Time `json:"last_updated"`
	RelevanceScore float64   `json:"relevance_score"`
	AccessCount    int       `json:"access_count"`
}

// Entity 知识图谱实体，以名称为键
type Entity struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	Observations []string   `json:"observations"`
	Meta         EntityMeta `json:"metadata"`
}

// RelationMeta 关系元数据
type RelationMeta struct {
	Created      time.Time `json:"created"`
	LastAccessed time.Time `json:"last_accessed"`
	Confidence   float64   `json:"confidence"`
}

// Relation 两个实体（按名称）之间的有向关系
type Relation struct {
	ID       string       `json:"id"`
	From     string       `json:"from"`
	To       string       `json:"to"`
	Type     string       `json:"type"`
	Strength float64      `json:"strength"`
	Meta     RelationMeta `json:"metadata"`
}

// GraphMeta 图谱统计
type GraphMeta struct {
	TotalEntities  int       `json:"total_entities"`
	TotalRelations int       `json:"total_relations"`
	LastUpdated    time.Time `json:"last_updated"`
}

// IndexingMeta 索引统计
type IndexingMeta struct {
	LastFullIndex      time.Time `json:"last_full_index"`
	IncrementalUpdates int       `json:"incremental_updates"`
}

// Item 工作记忆条目
type Item struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Relevance float64   `json:"relevance"`
	Context   string    `json:"context"`
}

// SearchQuery 语义检索条件
type SearchQuery struct {
	Query        string   `json:"query"`
	EntityTypes  []string `json:"entity_types,omitempty"`
	MaxResults   int      `json:"max_results"`
	MinRelevance float64  `json:"min_relevance"`
}

// SearchMeta 检索统计
type SearchMeta struct {
	TotalMatches    int   `json:"total_matches"`
	SearchTimeMS    int64 `json:"search_time_ms"`
	QueryComplexity int   `json:"query_complexity"`
}

// SearchResult 语义检索结果；Entities 与 RelevanceScores 一一对应
type SearchResult struct {
	Entities        []*Entity   `json:"entities"`
	Relations       []*Relation `json:"relations"`
	RelevanceScores []float64   `json:"relevance_scores"`
	Meta            SearchMeta  `json:"search_metadata"`
	FromCache       bool        `json:"from_cache,omitempty"`
}

// StoreResult 写入工作记忆的结果
type StoreResult struct {
	ItemID        string `json:"item_id"`
	MemoryLoad    int    `json:"memory_load"`
	EntityName    string `json:"entity_name"`
	EntityCreated bool   `json:"entity_created"`
}

// RetrieveResult 混合检索结果
type RetrieveResult struct {
	Query              string    `json:"query"`
	Items              []*Item   `json:"memory_items"`
	Entities           []*Entity `json:"semantic_entities"`
	TotalMemoryFound   int       `json:"total_memory_found"`
	TotalSemanticFound int       `json:"total_semantic_found"`
	Returned           int       `json:"returned"`
	Strategy           string    `json:"search_strategy"`
}

// Config 工作记忆配置
type Config struct {
	Capacity          int `json:"capacity" yaml:"capacity"`
	SemanticCacheSize int `json:"semantic_cache_size" yaml:"semantic_cache_size"`
}

// DefaultConfig 默认容量 1000，缓存 256 条查询
func DefaultConfig() Config {
	return Config{Capacity: 1000, SemanticCacheSize: 256}
}
