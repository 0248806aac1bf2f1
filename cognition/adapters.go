package cognition

import (
	"context"
	"time"

	"github.com/BaSui01/cogniflow/agent/learning"
	"github.com/BaSui01/cogniflow/agent/memory"
	"github.com/BaSui01/cogniflow/agent/thinking"
	"github.com/BaSui01/cogniflow/types"
)

// graphMemory lets the thinking engine read working memory and mirror its
// thoughts into the knowledge graph.
type graphMemory struct {
	graph *memory.Graph
	now   func() time.Time
}

func (m graphMemory) Search(_ context.Context, query string, maxResults int, minRelevance float64) []thinking.Recollection {
	items := m.graph.Recall(query, maxResults, minRelevance)
	out := make([]thinking.Recollection, 0, len(items))
	for _, it := range items {
		out = append(out, thinking.Recollection{Content: it.Content, Relevance: it.Relevance})
	}
	return out
}

func (m graphMemory) RecordThought(_ context.Context, sessionID string, t thinking.ThoughtStep) {
	at := t.Timestamp
	if at.IsZero() {
		at = m.now()
	}
	m.graph.RecordThought(sessionID, t.ThoughtNumber, t.ID, t.Content, t.Confidence, at)
}

// patternAdvisor surfaces learned patterns while a thinking session picks
// its approach. Usage is attributed to the session carried on ctx.
type patternAdvisor struct {
	engine *learning.Engine
}

func (a patternAdvisor) Suggest(ctx context.Context, goal string) (thinking.Suggestion, bool) {
	sessionID, _ := types.SessionID(ctx)
	p, ok := a.engine.Recommend(ctx, sessionID, goal)
	if !ok {
		return thinking.Suggestion{}, false
	}
	return thinking.Suggestion{
		PatternID:  p.ID,
		Name:       p.Name,
		Approach:   p.Body.Approach,
		Confidence: p.LearnedFrom.Confidence,
	}, true
}
