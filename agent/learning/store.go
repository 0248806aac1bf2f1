package learning

import (
	"slices"
	"sync"
)

// PatternFilter 模式列表过滤条件
type PatternFilter struct {
	Domain        string  `json:"filter_by_domain,omitempty"`
	MinConfidence float64 `json:"min_confidence,omitempty"`
}

// RuleSummary 规则摘要
type RuleSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Priority     Priority `json:"priority"`
	AppliedCount int      `json:"applied_count"`
	SuccessRate  float64  `json:"success_rate"`
}

// Store 模式与规则的有序内存存储
// 模式只追加不删除，按插入顺序返回
type Store struct {
	mu       sync.RWMutex
	patterns []*Pattern
	rules    []*Rule
}

// NewStore 创建存储
func NewStore() *Store {
	return &Store{}
}

// AddPattern 追加模式
func (s *Store) AddPattern(p *Pattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, p)
}

// AddRule 追加规则
func (s *Store) AddRule(r *Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
}

// Pattern 按 ID 查找模式
func (s *Store) Pattern(id string) (*Pattern, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patterns {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Rule 按 ID 查找规则
func (s *Store) Rule(id string) (*Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rules {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// Patterns 返回满足过滤条件的模式
func (s *Store) Patterns(f PatternFilter) []*Pattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Pattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		if f.Domain != "" && !slices.Contains(p.Contexts.Domains, f.Domain) {
			continue
		}
		if f.MinConfidence > 0 && p.LearnedFrom.Confidence < f.MinConfidence {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Rules 返回全部规则
func (s *Store) Rules() []*Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Rule(nil), s.rules...)
}

// RuleSummaries 返回规则摘要
func (s *Store) RuleSummaries() []RuleSummary {
	rules := s.Rules()
	out := make([]RuleSummary, len(rules))
	for i, r := range rules {
		out[i] = RuleSummary{
			ID:           r.ID,
			Name:         r.Name,
			Priority:     r.Priority,
			AppliedCount: r.Application.AppliedCount,
			SuccessRate:  r.Application.SuccessRate,
		}
	}
	return out
}

// Len 返回模式数与规则数
func (s *Store) Len() (patterns, rules int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patterns), len(s.rules)
}

// Replace 整体替换内容，用于状态恢复
func (s *Store) Replace(patterns []*Pattern, rules []*Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append([]*Pattern(nil), patterns...)
	s.rules = append([]*Rule(nil), rules...)
}
