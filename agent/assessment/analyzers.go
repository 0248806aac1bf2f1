package assessment

import (
	"regexp"
	"strings"
)

var (
	contradictionMarkers = []string{"contradict", "inconsistent", "however, this conflicts"}
	connectiveMarkers    = []string{"therefore", "because", "hence", "consequently"}
	conclusionMarkers    = []string{"conclusion is", "final answer is"}
	selfCorrectMarkers   = []string{"revising my previous statement", "on second thought", "it is possible that"}

	evidenceMarkers = []string{
		"evidence", "source", "study", "research", "data",
		"according to", "shows that", "indicates that", "proven by",
	}
	citationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bcites\b`),
		regexp.MustCompile(`\b(fig\.|figure|table)\s*\d+`),
		regexp.MustCompile(`\[\d+\]`),
		regexp.MustCompile(`\(.*\d{4}\)`),
	}
	claimMarkers = []string{"clearly", "obvious", "undoubtedly", "proven fact"}

	perspectiveMarkers = []string{"perspective", "viewpoint", "consider"}
	absoluteLanguage   = regexp.MustCompile(`\b(always|never|all)\b`)
)

func builtinScorers() []Scorer {
	return []Scorer{
		ScorerFunc{ID: PrincipleLogicalConsistency, Fn: ScoreLogicalConsistency},
		ScorerFunc{ID: PrincipleEvidenceBased, Fn: ScoreEvidenceBasis},
		ScorerFunc{ID: PrincipleCompleteness, Fn: ScoreCompleteness},
		ScorerFunc{ID: PrincipleClarity, Fn: ScoreClarity},
		ScorerFunc{ID: PrincipleBiasAwareness, Fn: ScoreBiasAwareness},
	}
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// ScoreLogicalConsistency 逻辑一致性：矛盾扣分，连接词与自我修正加分
func ScoreLogicalConsistency(text string) float64 {
	content := strings.ToLower(text)
	score := 0.8
	if containsAny(content, contradictionMarkers) {
		score -= 0.4
	}
	if containsAny(content, connectiveMarkers) {
		score += 0.1
	}
	// 过短且无步骤的直接结论
	if containsAny(content, conclusionMarkers) && len(content) < 200 && !strings.Contains(content, "step") {
		score -= 0.1
	}
	if containsAny(content, selfCorrectMarkers) {
		score += 0.05
	}
	return clamp01(score)
}

// evidenceMentions 统计证据关键词与引用模式的命中数
func evidenceMentions(content string) int {
	n := 0
	for _, k := range evidenceMarkers {
		if strings.Contains(content, k) {
			n++
		}
	}
	for _, p := range citationPatterns {
		if p.MatchString(content) {
			n++
		}
	}
	return n
}

// ScoreEvidenceBasis 证据基础：起点较低，按证据命中数阶梯加分
func ScoreEvidenceBasis(text string) float64 {
	content := strings.ToLower(text)
	score := 0.4

	mentions := evidenceMentions(content)
	if mentions > 0 {
		score += 0.2
	}
	if mentions > 2 {
		score += 0.2
	}
	if mentions > 4 {
		score += 0.1
	}

	// 无证据的断言
	unsupported := 0
	if mentions == 0 {
		for _, k := range claimMarkers {
			if strings.Contains(content, k) {
				unsupported++
			}
		}
	}
	if unsupported > 0 {
		score -= 0.2
	}
	if unsupported > 1 {
		score -= 0.1
	}
	return clamp01(score)
}

// ScoreCompleteness 完整性：按内容长度
func ScoreCompleteness(text string) float64 {
	score := 0.6
	if len(text) > 500 {
		score += 0.2
	}
	if len(text) > 1000 {
		score += 0.1
	}
	return clamp01(score)
}

// ScoreClarity 清晰度：按句子数与长度
func ScoreClarity(text string) float64 {
	score := 0.7
	if len(strings.Split(text, ".")) > 3 {
		score += 0.1
	}
	if len(text) > 200 {
		score += 0.1
	}
	return clamp01(score)
}

// ScoreBiasAwareness 偏见意识：多视角加分，绝对化措辞扣分
func ScoreBiasAwareness(text string) float64 {
	content := strings.ToLower(text)
	score := 0.6
	if containsAny(content, perspectiveMarkers) {
		score += 0.2
	}
	if absoluteLanguage.MatchString(content) {
		score -= 0.1
	}
	return clamp01(score)
}
