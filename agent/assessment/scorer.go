package assessment

import (
	"sort"
	"sync"
)

// Scorer 原则评分器接口
// Score 必须是输入文本的纯函数，返回值范围 [0,1]
type Scorer interface {
	// PrincipleID 评分器对应的原则 ID
	PrincipleID() string
	// Score 对制品文本打分
	Score(text string) float64
}

// ScorerFunc 将函数适配为 Scorer
type ScorerFunc struct {
	ID string
	Fn func(text string) float64
}

// PrincipleID 实现 Scorer
func (s ScorerFunc) PrincipleID() string { return s.ID }

// Score 实现 Scorer
func (s ScorerFunc) Score(text string) float64 { return clamp01(s.Fn(text)) }

// ScorerRegistry 按原则 ID 路由评分器
type ScorerRegistry struct {
	mu      sync.RWMutex
	scorers map[string]Scorer
}

// NewScorerRegistry 创建预装内置启发式评分器的注册表
func NewScorerRegistry() *ScorerRegistry {
	r := &ScorerRegistry{scorers: make(map[string]Scorer)}
	for _, s := range builtinScorers() {
		r.scorers[s.PrincipleID()] = s
	}
	return r
}

// Register 添加或替换评分器
func (r *ScorerRegistry) Register(s Scorer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scorers[s.PrincipleID()] = s
}

// Get 按原则 ID 获取评分器
func (r *ScorerRegistry) Get(principleID string) (Scorer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scorers[principleID]
	return s, ok
}

// List 返回已注册的原则 ID（排序）
func (r *ScorerRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.scorers))
	for id := range r.scorers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
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
