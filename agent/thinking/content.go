package thinking

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// words splits text on non-word runs, dropping empties.
func words(text string) []string {
	parts := nonWord.Split(text, -1)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// keywords returns the first three words longer than four characters.
func keywords(text string) []string {
	var out []string
	for _, w := range words(text) {
		if len(w) > 4 {
			out = append(out, w)
			if len(out) == 3 {
				break
			}
		}
	}
	return out
}

// mainPoint returns the text up to the first period.
func mainPoint(text string) string {
	if i := strings.Index(text, "."); i >= 0 {
		return text[:i]
	}
	return text
}

// ComplexityScore rates a goal in [0,1] from its length and vocabulary.
func ComplexityScore(goal string) float64 {
	goal = strings.ToLower(goal)
	score := 0.5
	if len(goal) > 100 {
		score += 0.1
	}
	if strings.Contains(goal, "multiple") || strings.Contains(goal, "several") {
		score += 0.1
	}
	if strings.Contains(goal, "analyze") || strings.Contains(goal, "compare") {
		score += 0.2
	}
	if strings.Contains(goal, "optimize") || strings.Contains(goal, "best") {
		score += 0.2
	}
	if strings.Contains(goal, "design") || strings.Contains(goal, "create") {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}
	return score
}

// estimateConfidence grades the next thought from session progress only.
func estimateConfidence(s *Session) float64 {
	c := 0.7
	if s.CurrentThought > 3 {
		c += 0.1
	}
	if s.CurrentThought > 5 {
		c += 0.1
	}
	if s.Metadata.TotalRevisions > 0 {
		c -= 0.1
	}
	return clamp(c, minThoughtConfidence, maxThoughtConfidence)
}

func numbered(items []string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%d. %s", i+1, it)
	}
	return strings.Join(parts, "; ")
}

// contextList reads a string list from the session context.
func contextList(c map[string]any, key string) []string {
	switch v := c[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			out = append(out, fmt.Sprint(x))
		}
		return out
	}
	return nil
}

func contextString(c map[string]any, key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// phase names the generator that produced a thought.
type phase int

const (
	phaseAnalysis phase = iota
	phaseApproach
	phaseEvaluation
	phaseHypothesis
	phaseBranch
	phaseDeepAnalysis
	phaseSynthesis
)

// nextContent picks the generator for the session's current phase.
func (e *Engine) nextContent(ctx context.Context, s *Session) (string, phase) {
	count := len(s.Thoughts)
	last, hasLast := s.LastThought()

	var recalled []Recollection
	if e.memory != nil {
		recalled = e.memory.Search(ctx, "", recallLimit, recallMinRelevance)
	}

	switch {
	case count == 0:
		return initialAnalysis(s.Goal, s.Context, nil), phaseAnalysis
	case count == 1:
		return initialAnalysis(s.Goal, s.Context, &last), phaseAnalysis
	case count == 2:
		return e.approachIdentification(ctx, last.Content, recalled, s.Goal), phaseApproach
	case count == 3:
		return evaluation(s.Thoughts, s.Context, s.Goal), phaseEvaluation
	}

	if hyps := s.OpenHypotheses(); len(hyps) > 0 && hasLast {
		h := hyps[0]
		h.Status = HypothesisTesting
		return hypothesisTesting(h, s.Goal), phaseHypothesis
	}
	if br := s.ExploringBranch(); br != nil && hasLast {
		return branchExploration(br, last, s.Goal), phaseBranch
	}
	if s.Metadata.ComplexityScore > 0.65 && count < s.TotalThoughtsEstimate-2 && hasLast {
		return complexAnalysis(s.Thoughts, s.Context, s.Goal), phaseDeepAnalysis
	}
	return synthesis(s.Thoughts, recalled, s.Goal), phaseSynthesis
}

func initialAnalysis(goal string, c map[string]any, previous *ThoughtStep) string {
	var b strings.Builder
	if previous != nil {
		fmt.Fprintf(&b, "Continuing from \"%s\". ", mainPoint(previous.Content))
	}
	fmt.Fprintf(&b, "Let's break down the core aspects of the goal: \"%s\". ", goal)
	if kw := keywords(goal); len(kw) > 0 {
		fmt.Fprintf(&b, "Key terms identified: %s. ", strings.Join(kw, ", "))
	}

	considerations := []string{"understanding the primary objectives and desired outcomes"}
	if constraints := contextList(c, "constraints"); len(constraints) > 0 {
		considerations = append(considerations, "adhering to constraints: "+strings.Join(constraints, ", "))
	} else {
		considerations = append(considerations, "identifying any implicit or explicit constraints")
	}
	if scope := contextString(c, "scope"); scope != "" {
		considerations = append(considerations, "defining the scope: "+scope)
	} else {
		considerations = append(considerations, "clarifying the scope of the problem")
	}
	considerations = append(considerations, "identifying available information and potential knowledge gaps")

	b.WriteString("Initial considerations include: ")
	b.WriteString(numbered(considerations))
	b.WriteString(". This structured approach should help in forming a clear path forward.")
	return b.String()
}

func (e *Engine) approachIdentification(ctx context.Context, previous string, recalled []Recollection, goal string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Following the initial analysis of \"%s\", I need to identify potential strategies to address \"%s\". ", mainPoint(previous), goal)

	kw := keywords(goal)
	has := func(terms ...string) bool {
		for _, k := range kw {
			for _, t := range terms {
				if strings.EqualFold(k, t) {
					return true
				}
			}
		}
		return false
	}

	var approaches []string
	if has("compare", "evaluate", "choose") {
		approaches = append(approaches, "a comparative analysis of options")
	}
	if has("design", "create", "develop") {
		approaches = append(approaches,
			"a structured design process with iterative refinement",
			"prototyping and testing key components")
	}
	if has("solve", "problem", "issue") {
		approaches = append(approaches,
			"root cause analysis to understand underlying factors",
			"breaking the problem into smaller, manageable sub-problems")
	}
	if has("research", "understand", "explain") {
		approaches = append(approaches, "a systematic information gathering and synthesis approach")
	}
	if len(approaches) == 0 {
		approaches = append(approaches,
			"a step-by-step logical deduction",
			"brainstorming multiple solutions before selection")
	}
	fmt.Fprintf(&b, "Possible approaches include: %s. ", numbered(approaches))

	if e.advisor != nil {
		if sg, ok := e.advisor.Suggest(ctx, goal); ok {
			fmt.Fprintf(&b, "A learned pattern \"%s\" recommends: %s. ", sg.Name, sg.Approach)
		}
	}

	if len(recalled) > 0 {
		fmt.Fprintf(&b, "I should also consider insights from past experiences. For instance, memory item \"%s\" (relevance: %.2f) might be pertinent. ",
			mainPoint(recalled[0].Content), recalled[0].Relevance)
		if len(recalled) > 1 {
			fmt.Fprintf(&b, "Another relevant item is \"%s\" (relevance: %.2f). ", mainPoint(recalled[1].Content), recalled[1].Relevance)
		}
	}
	b.WriteString("Next, I'll evaluate these approaches for suitability.")
	return b.String()
}

func evaluation(thoughts []ThoughtStep, c map[string]any, goal string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Now, let's evaluate the identified approaches for tackling \"%s\". ", goal)

	var lastApproach *ThoughtStep
	for i := range thoughts {
		lower := strings.ToLower(thoughts[i].Content)
		if strings.Contains(lower, "approach") || strings.Contains(lower, "strategy") {
			lastApproach = &thoughts[i]
		}
	}
	if lastApproach != nil {
		fmt.Fprintf(&b, "Specifically, considering the ideas from \"%s\". ", mainPoint(lastApproach.Content))
	} else {
		b.WriteString("Even without explicitly listed approaches, I'll use general criteria. ")
	}

	criteria := contextList(c, "evaluationCriteria")
	if len(criteria) == 0 {
		criteria = []string{
			"effectiveness in achieving the goal",
			"efficiency of the method",
			"feasibility given constraints",
			"potential risks and mitigation",
		}
	}
	fmt.Fprintf(&b, "Key evaluation criteria will be: %s. ", numbered(criteria))
	b.WriteString("This assessment will help select the most promising path or refine the strategy.")
	return b.String()
}

func hypothesisTesting(h *HypothesisTest, goal string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Continuing to test the hypothesis: \"%s\" (current confidence: %.2f). ", h.Hypothesis, h.Confidence)
	fmt.Fprintf(&b, "So far, there are %d supporting points and %d counter-points. ", len(h.Evidence), len(h.CounterEvidence))
	b.WriteString("The next step is to: verify hypothesis implications for untested aspects. ")
	switch {
	case len(h.Evidence) > len(h.CounterEvidence) && h.Confidence > 0.7:
		b.WriteString("The hypothesis appears to be gaining support. ")
	case len(h.CounterEvidence) > len(h.Evidence) && h.Confidence < 0.4:
		b.WriteString("The hypothesis is facing significant challenges; re-evaluation might be needed soon. ")
	}
	fmt.Fprintf(&b, "This systematic testing is crucial for validating assumptions for goal: \"%s\".", goal)
	return b.String()
}

func branchExploration(br *ThoughtBranch, last ThoughtStep, goal string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Exploring the alternative perspective defined by branch \"%s\" (Confidence: %.2f). ", br.Description, br.Confidence)
	fmt.Fprintf(&b, "The last thought in the main line was \"%s\". ", mainPoint(last.Content))
	b.WriteString("Within this branch, the next consideration is to: examine implications and potential convergence with main analysis. ")
	if len(br.Thoughts) > 2 {
		fmt.Fprintf(&b, "This branch has developed %d thoughts. I need to see if it converges or offers a distinct valuable insight for \"%s\".", len(br.Thoughts), goal)
	} else {
		fmt.Fprintf(&b, "This branch is still in its early stages of exploration for \"%s\".", goal)
	}
	return b.String()
}

func complexAnalysis(thoughts []ThoughtStep, c map[string]any, goal string) string {
	combined := make([]string, len(thoughts))
	for i, t := range thoughts {
		combined[i] = t.Content
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Given the progression of %d thoughts on \"%s\", a more complex analysis is warranted. ", len(thoughts), goal)
	if kw := keywords(strings.Join(combined, " ")); len(kw) > 0 {
		fmt.Fprintf(&b, "Key themes emerging are: %s. ", strings.Join(kw, ", "))
	} else {
		b.WriteString("Several interconnected ideas have surfaced. ")
	}

	var items []string
	if deps := contextList(c, "interdependencies"); deps != nil {
		items = append(items, "considering interdependencies: "+strings.Join(deps, ", "))
	} else {
		items = append(items, "examining potential interconnections between identified factors")
	}
	items = append(items, "looking for emergent patterns or second-order effects")
	if tradeoffs := contextList(c, "tradeoffs"); tradeoffs != nil {
		items = append(items, "evaluating tradeoffs: "+strings.Join(tradeoffs, ", "))
	} else {
		items = append(items, "assessing potential tradeoffs between different objectives or solutions")
	}
	fmt.Fprintf(&b, "This deeper dive involves: %s. ", numbered(items))
	b.WriteString("This should provide a richer understanding before synthesizing a conclusion.")
	return b.String()
}

func synthesis(thoughts []ThoughtStep, recalled []Recollection, goal string) string {
	var confident []ThoughtStep
	for _, t := range thoughts {
		if !t.IsRevision && t.Confidence > 0.6 {
			confident = append(confident, t)
		}
	}
	tail := confident
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	var insights []string
	for _, t := range tail {
		if p := mainPoint(t.Content); p != "" {
			insights = append(insights, fmt.Sprintf("(%d) \"%s\"", len(insights)+1, p))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Synthesizing the %d (out of %d) confident thoughts regarding \"%s\". ", len(confident), len(thoughts), goal)
	switch {
	case len(insights) > 0:
		fmt.Fprintf(&b, "Key insights extracted include: %s. ", strings.Join(insights, "; "))
	case len(thoughts) > 0:
		fmt.Fprintf(&b, "The most recent thought was \"%s\". While confidence varied, this is the current endpoint. ", mainPoint(thoughts[len(thoughts)-1].Content))
	default:
		b.WriteString("No significant insights to synthesize yet. ")
	}
	if len(recalled) > 0 {
		fmt.Fprintf(&b, "Relevant memories, such as \"%s\", also inform this synthesis. ", mainPoint(recalled[0].Content))
	}
	b.WriteString("This leads towards a cohesive understanding and a potential conclusion or next step.")
	return b.String()
}
