package thinking

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	analysisMarkers   = []string{"analyze", "consider", "break down", "initial thoughts"}
	approachMarkers   = []string{"approach", "method", "strategy", "solution"}
	evaluationMarkers = []string{"evaluate", "pros and cons", "assess", "critique"}
	conclusionMarkers = []string{
		"conclusion is",
		"therefore, i conclude",
		"my final answer is",
		"synthesize my thoughts",
		"leads to a cohesive understanding",
	}
	uncertaintyMarkers = []string{"not sure", "uncertain about", "need to reconsider"}
)

func containsAny(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// needsMoreThoughts decides whether the ledger is developed enough to conclude.
func needsMoreThoughts(s *Session) bool {
	floor := s.TotalThoughtsEstimate - 1
	if floor > minThoughtsForCompletion {
		floor = minThoughtsForCompletion
	}
	if s.CurrentThought < floor {
		return true
	}
	if s.CurrentThought >= s.TotalThoughtsEstimate-1 {
		return false
	}

	confident := s.ConfidentThoughts(phaseConfidence)
	var analysis, approach, eval bool
	for _, t := range confident {
		analysis = analysis || containsAny(t.Content, analysisMarkers)
		approach = approach || containsAny(t.Content, approachMarkers)
		eval = eval || containsAny(t.Content, evaluationMarkers)
	}
	if !(analysis && approach && eval) {
		return true
	}
	if len(s.OpenHypotheses()) > 0 {
		return true
	}
	return goalCoverage(s.Goal, confident) < goalCoverageRatio
}

// goalCoverage returns the share of distinct goal keywords found in thoughts.
// A goal without keywords is fully covered.
func goalCoverage(goal string, thoughts []ThoughtStep) float64 {
	goalWords := make(map[string]struct{})
	for _, w := range words(strings.ToLower(goal)) {
		if len(w) > 3 {
			goalWords[w] = struct{}{}
		}
	}
	if len(goalWords) == 0 {
		return 1
	}
	covered := make(map[string]struct{})
	for _, t := range thoughts {
		for _, w := range words(strings.ToLower(t.Content)) {
			if _, ok := goalWords[w]; ok {
				covered[w] = struct{}{}
			}
		}
	}
	return float64(len(covered)) / float64(len(goalWords))
}

// synthesizeFinalAnswer builds the closing answer from the ledger.
func synthesizeFinalAnswer(s *Session) string {
	var ranked []ThoughtStep
	for _, t := range s.Thoughts {
		if !t.IsRevision && t.Confidence > 0.6 {
			ranked = append(ranked, t)
		}
	}
	if len(ranked) == 0 {
		if last, ok := s.LastThought(); ok {
			return truncate(fmt.Sprintf("The thinking process concluded with the thought: \"%s\". A more definitive answer requires further analysis.", last.Content))
		}
		return "I was unable to reach a definitive conclusion based on the thinking process."
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Confidence > ranked[j].Confidence })

	var b strings.Builder
	b.WriteString("After careful consideration, ")

	var concluding *ThoughtStep
	for i := range ranked {
		if containsAny(ranked[i].Content, conclusionMarkers) {
			concluding = &ranked[i]
			break
		}
	}
	if concluding != nil {
		fmt.Fprintf(&b, "my primary conclusion, based on the thought \"%s\", is that... ", mainPoint(concluding.Content))
	} else {
		b.WriteString("my analysis suggests that... ")
	}

	top := ranked
	if len(top) > 3 {
		top = top[:3]
	}
	points := make([]string, len(top))
	for i, t := range top {
		points[i] = mainPoint(t.Content)
	}
	fmt.Fprintf(&b, "Key insights include: %s. ", strings.Join(points, "; "))

	for _, h := range s.Hypotheses {
		if h.Status == HypothesisVerified && h.Confidence > 0.7 {
			fmt.Fprintf(&b, "This is supported by the confirmed hypothesis: \"%s\". ", h.Hypothesis)
			break
		}
	}
	for _, br := range s.Branches {
		if br.Outcome != nil && br.Outcome.Confidence > 0.7 && br.Outcome.Summary != "" {
			fmt.Fprintf(&b, "Exploring alternative perspectives, such as \"%s\", also yielded relevant insights like \"%s\". ",
				br.Description, mainPoint(br.Outcome.Summary))
			break
		}
	}
	if concluding == nil {
		fmt.Fprintf(&b, "The most pertinent thought leading to this is: \"%s\".", mainPoint(ranked[0].Content))
	}
	return truncate(strings.TrimSpace(b.String()))
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxAnswerLength {
		return s
	}
	r := []rune(s)
	return string(r[:maxAnswerLength-3]) + "..."
}

// overallConfidence averages thought confidence with progress adjustments.
func overallConfidence(s *Session) float64 {
	if len(s.Thoughts) == 0 {
		return 0
	}
	var sum float64
	for _, t := range s.Thoughts {
		sum += t.Confidence
	}
	c := sum / float64(len(s.Thoughts))
	if s.Metadata.TotalRevisions > 0 {
		c -= 0.1
	}
	if s.CurrentThought >= 5 {
		c += 0.1
	}
	return clamp(c, 0.1, 0.95)
}

func reasoningExplanation(s *Session) string {
	return fmt.Sprintf("Conducted %d sequential thoughts with %d revisions. Problem complexity: %.2f. Used %d branching points for comprehensive analysis.",
		s.CurrentThought, s.Metadata.TotalRevisions, s.Metadata.ComplexityScore, s.Metadata.BranchingPoints)
}

// solutionPath lists the confident main-line thought numbers.
func solutionPath(s *Session) []int {
	path := make([]int, 0, len(s.Thoughts))
	for _, t := range s.Thoughts {
		if !t.IsRevision && t.Confidence > 0.6 {
			path = append(path, t.ThoughtNumber)
		}
	}
	return path
}
