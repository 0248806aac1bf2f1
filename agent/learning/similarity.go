package learning

import (
	"strings"
)

// jaccard 两个集合的交并比；两个空集视为完全相同
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	union := len(set)
	inter := 0
	seen := make(map[string]bool, len(b))
	for _, v := range b {
		if seen[v] {
			continue
		}
		seen[v] = true
		if set[v] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// approachSimilarity 子串包含得 0.5，完全相同再加 0.5；两者皆空视为相同
func approachSimilarity(a, b string) float64 {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	switch {
	case a == "" && b == "":
		return 1
	case a == "" || b == "":
		return 0
	case a == b:
		return 1
	case strings.Contains(a, b) || strings.Contains(b, a):
		return 0.5
	default:
		return 0
	}
}

// Similarity 模式与示例的相似度，四个分量等权平均：技术、问题类型、领域、方法
func Similarity(p *Pattern, ex *Example) float64 {
	score := jaccard(p.Body.Techniques, ex.LearningPoints.Techniques) +
		jaccard(p.Contexts.ProblemTypes, ex.Applicability.ProblemTypes) +
		jaccard(p.Contexts.Domains, ex.Applicability.Domains) +
		approachSimilarity(p.Body.Approach, ex.ExpectedApproach)
	return score / 4
}
