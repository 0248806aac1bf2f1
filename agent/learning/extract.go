package learning

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Matcher 一条标签匹配规则
type Matcher struct {
	Label string
	Re    *regexp.Regexp
}

// Extractor 基于正则表的标签提取器
// Fallback 非空时，对非空输入且无任何命中返回该标签
type Extractor struct {
	Matchers []Matcher
	Fallback string
}

func matchers(table [][2]string) []Matcher {
	out := make([]Matcher, len(table))
	for i, row := range table {
		out[i] = Matcher{Label: row[0], Re: regexp.MustCompile(`(?i)\b(` + row[1] + `)\b`)}
	}
	return out
}

// Extract 对每段文本运行匹配，按表顺序返回去重后的标签
func (x Extractor) Extract(texts ...string) []string {
	hit := make(map[string]bool)
	nonEmpty := false
	for _, t := range texts {
		if t == "" {
			continue
		}
		nonEmpty = true
		for _, m := range x.Matchers {
			if m.Re.MatchString(t) {
				hit[m.Label] = true
			}
		}
	}
	out := []string{}
	for _, m := range x.Matchers {
		if hit[m.Label] {
			out = append(out, m.Label)
		}
	}
	if len(out) == 0 && nonEmpty && x.Fallback != "" {
		out = append(out, x.Fallback)
	}
	return out
}

// Extractors 演示学习使用的全部提取表
type Extractors struct {
	Techniques   Extractor
	Principles   Extractor
	Patterns     Extractor
	ProblemTypes Extractor
	Domains      Extractor
}

// DefaultExtractors 返回内置提取表
func DefaultExtractors() Extractors {
	return Extractors{
		Techniques: Extractor{Matchers: matchers([][2]string{
			{"analysis", "analyze|analysis|examine|investigate|break down"},
			{"synthesis", "synthesize|synthesis|combine|integrate|construct"},
			{"evaluation", "evaluate|evaluation|assess|judge|critique"},
			{"decomposition", "decompose|decomposition|dissect"},
			{"comparison", "compare|comparison|contrast|differentiate"},
			{"abstraction", "abstract|generalize"},
			{"deduction", "deduce|deductive|infer"},
			{"induction", "induce|inductive|generalize from examples"},
			{"problem_solving", "solve|address problem|find solution"},
		})},
		Principles: Extractor{Matchers: matchers([][2]string{
			{"systematic_approach", "systematic|methodical|structured"},
			{"evidence_based", "evidence|fact-based|data-driven|empirical"},
			{"logical_reasoning", "logical|rational|coherent|sound reasoning"},
			{"comprehensive_analysis", "comprehensive|thorough|holistic|in-depth"},
			{"objectivity", "objective|unbiased|impartial"},
			{"clarity", "clear|explicit|unambiguous"},
			{"parsimony", "parsimony|occam's razor|simple explanation"},
			{"falsifiability", "falsifiable|testable"},
		})},
		Patterns: Extractor{Matchers: matchers([][2]string{
			{"hypothesis_testing", "hypothesis|hypothesize|test assumption"},
			{"alternative_consideration", "alternative|option|another perspective|different approach|consider options"},
			{"iterative_refinement", "iterate|refine|iterative|incremental improvement|step-wise refinement"},
			{"root_cause_analysis", "root cause|underlying reason|diagnose"},
			{"means_ends_analysis", "means-ends|gap analysis|bridge the gap"},
			{"analogical_reasoning", "analogy|analogous|similar to"},
		})},
		ProblemTypes: Extractor{Fallback: "general_query", Matchers: matchers([][2]string{
			{"analytical", "analyze|analysis|examine|investigate|diagnose|interpret"},
			{"problem_solving", "solve|resolve|fix|address problem|troubleshoot"},
			{"explanatory", "explain|clarify|describe why|justify|elaborate"},
			{"comparative", "compare|contrast|differentiate|evaluate options|rank"},
			{"design", "design|create|develop|architect|build|plan"},
			{"predictive", "predict|forecast|estimate future|project"},
			{"decision_making", "decide|choose|select|determine best course"},
			{"generative", "generate|compose|write|summarize|draft"},
			{"evaluative", "evaluate|assess|review|critique quality"},
			{"classification", "classify|categorize|group|type"},
		})},
		Domains: Extractor{Fallback: "general", Matchers: matchers([][2]string{
			{"technical", "technical|engineering|software|hardware|algorithm|data structure|information technology"},
			{"business", "business|finance|market|strategy|economic|commerce|sales|operations"},
			{"scientific", "scientific|research|experiment|biology|physics|chemistry|academic|study"},
			{"creative", "creative|art|design|music|writing|narrative|aesthetic"},
			{"educational", "educational|learning|teaching|pedagogy|curriculum"},
			{"medical", "medical|health|clinical|patient|pharma|disease|healthcare"},
			{"legal", "legal|law|compliance|regulatory|judicial|litigation"},
			{"social_sciences", "social|psychology|sociology|anthropology|political science|humanities"},
			{"environmental", "environment|ecology|sustainability|climate"},
			{"personal_development", "personal|self-help|productivity|well-being"},
		})},
	}
}

// structuralPatterns 按过程结构识别的模式：多步骤与条件推理
func structuralPatterns(process []string) []string {
	var out []string
	if len(process) > 3 {
		out = append(out, "multi_step_reasoning")
	}
	for _, step := range process {
		lower := strings.ToLower(step)
		if strings.Contains(lower, "if") && strings.Contains(lower, "then") {
			out = append(out, "conditional_reasoning")
			break
		}
	}
	return out
}

// contextText 将上下文序列化为可匹配的文本；空上下文返回空串
func contextText(ctx map[string]any) string {
	if len(ctx) == 0 {
		return ""
	}
	b, err := json.Marshal(ctx)
	if err != nil {
		return ""
	}
	return string(b)
}
