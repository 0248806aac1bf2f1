package cognition

import (
	"encoding/json"
	"sort"

	"github.com/BaSui01/cogniflow/agent/memory"
	"github.com/BaSui01/cogniflow/agent/state"
	"github.com/BaSui01/cogniflow/types"
)

// Read-only views of the state.
const (
	ResourceWorkingMemory  = "memory://working"
	ResourceCognitiveState = "state://cognitive"
	ResourceKnowledgeGraph = "knowledge://graph"
)

// ResourceInfo describes a readable view.
type ResourceInfo struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mime_type"`
}

var resources = map[string]ResourceInfo{
	ResourceWorkingMemory:  {ResourceWorkingMemory, "Working Memory", "Current working memory contents", "application/json"},
	ResourceCognitiveState: {ResourceCognitiveState, "Cognitive State", "Current cognitive processing state", "application/json"},
	ResourceKnowledgeGraph: {ResourceKnowledgeGraph, "Knowledge Graph", "Semantic knowledge graph with entities and relations", "application/json"},
}

// Resources lists the readable views.
func (s *Service) Resources() []ResourceInfo {
	out := make([]ResourceInfo, 0, len(resources))
	for _, r := range resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

type graphView struct {
	Entities  state.Pairs[string, *memory.Entity] `json:"entities"`
	Relations []*memory.Relation                  `json:"relations"`
	Meta      memory.GraphMeta                    `json:"metadata"`
}

// ReadResource returns the JSON form of a view.
func (s *Service) ReadResource(uri string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v any
	switch uri {
	case ResourceWorkingMemory:
		v = s.graph.Items()
	case ResourceCognitiveState:
		v = s.snapshot()
	case ResourceKnowledgeGraph:
		snap := s.graph.Snapshot()
		v = graphView{
			Entities:  state.Pairs[string, *memory.Entity](snap.Entities),
			Relations: snap.Relations,
			Meta:      snap.Meta,
		}
	default:
		return nil, types.NewTargetNotFoundError("resource", uri)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, types.WrapError(err, types.ErrInternalError, "encode resource")
	}
	return b, nil
}
