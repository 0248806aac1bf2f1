package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BaSui01/cogniflow/agent/action"
	"github.com/BaSui01/cogniflow/agent/assessment"
	"github.com/BaSui01/cogniflow/agent/learning"
	"github.com/BaSui01/cogniflow/agent/memory"
	"github.com/BaSui01/cogniflow/agent/reasoning"
	"github.com/BaSui01/cogniflow/agent/thinking"
	"github.com/BaSui01/cogniflow/types"
)

// Version is written into every snapshot.
const Version = 1

// MemoryState is the persisted form of the knowledge graph and working
// memory. Maps are stored as pair arrays.
type MemoryState struct {
	Entities      Pairs[string, *memory.Entity]       `json:"entities"`
	Relations     []*memory.Relation                  `json:"relations"`
	Meta          memory.GraphMeta                    `json:"metadata"`
	Indexing      memory.IndexingMeta                 `json:"indexing_metadata"`
	Items         []*memory.Item                      `json:"working_memory"`
	Capacity      int                                 `json:"capacity"`
	SemanticCache Pairs[string, *memory.SearchResult] `json:"semantic_cache"`
}

// FromMemory converts a graph snapshot.
func FromMemory(s memory.Snapshot) MemoryState {
	return MemoryState{
		Entities:      Pairs[string, *memory.Entity](s.Entities),
		Relations:     s.Relations,
		Meta:          s.Meta,
		Indexing:      s.Indexing,
		Items:         s.Items,
		Capacity:      s.Capacity,
		SemanticCache: Pairs[string, *memory.SearchResult](s.SemanticCache),
	}
}

// Snapshot converts back to a graph snapshot.
func (m MemoryState) Snapshot() memory.Snapshot {
	return memory.Snapshot{
		Entities:      map[string]*memory.Entity(m.Entities),
		Relations:     m.Relations,
		Meta:          m.Meta,
		Indexing:      m.Indexing,
		Items:         m.Items,
		Capacity:      m.Capacity,
		SemanticCache: map[string]*memory.SearchResult(m.SemanticCache),
	}
}

// ThinkingState holds active and finished thinking sessions.
type ThinkingState struct {
	Active    []*thinking.Session `json:"active_sequential_thinking"`
	Completed []*thinking.Session `json:"completed_sequential_thinking"`
}

// CognitiveState is everything the service persists.
type CognitiveState struct {
	Version         int                  `json:"version"`
	SavedAt         time.Time            `json:"saved_at"`
	Memory          MemoryState          `json:"memory"`
	Thinking        ThinkingState        `json:"thinking"`
	ReasoningChains []*reasoning.Chain   `json:"reasoning_chains"`
	ReAct           action.Snapshot      `json:"react"`
	Assessment      assessment.Snapshot  `json:"assessment"`
	Learning        learning.Snapshot    `json:"learning"`
	LearningLog     []types.JournalEntry `json:"learning_log"`
}

// Defaults returns an empty state with every collection allocated.
func Defaults() *CognitiveState {
	return &CognitiveState{
		Version: Version,
		Memory: MemoryState{
			Entities:      Pairs[string, *memory.Entity]{},
			Relations:     []*memory.Relation{},
			Items:         []*memory.Item{},
			Capacity:      memory.DefaultConfig().Capacity,
			SemanticCache: Pairs[string, *memory.SearchResult]{},
		},
		Thinking: ThinkingState{
			Active:    []*thinking.Session{},
			Completed: []*thinking.Session{},
		},
		ReasoningChains: []*reasoning.Chain{},
		ReAct:           action.Snapshot{Sessions: []*action.Session{}, CycleHistory: []*action.Cycle{}},
		Assessment: assessment.Snapshot{
			Frameworks: []assessment.Framework{},
			History:    []*assessment.SelfAssessment{},
			Critiques:  []*assessment.CritiqueSession{},
			Applied:    []assessment.AppliedCorrection{},
		},
		Learning: learning.Snapshot{
			Tunables:    learning.DefaultTunables(),
			Patterns:    []*learning.Pattern{},
			Rules:       []*learning.Rule{},
			Feedback:    []*learning.Feedback{},
			Examples:    []*learning.Example{},
			Performance: []*learning.PerformanceTracker{},
			Usage:       map[string]string{},
		},
		LearningLog: []types.JournalEntry{},
	}
}

// Encode serializes the state.
func (s *CognitiveState) Encode() ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode cognitive state: %w", err)
	}
	return b, nil
}

// Decode loads a snapshot on top of Defaults: fields missing from data keep
// their default, arrays are replaced and objects are merged recursively.
func Decode(data []byte) (*CognitiveState, error) {
	return DecodeWith(data, nil)
}

// DecodeWith is Decode with per-field merge strategies.
func DecodeWith(data []byte, strategies Strategies) (*CognitiveState, error) {
	var src any
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("decode cognitive state: %w", err)
	}
	if _, ok := src.(map[string]any); !ok {
		return nil, fmt.Errorf("decode cognitive state: top level is %T, want object", src)
	}
	defaults, err := toTree(Defaults())
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	merged, err := json.Marshal(Merge(defaults, src, strategies))
	if err != nil {
		return nil, fmt.Errorf("encode merged state: %w", err)
	}
	out := &CognitiveState{}
	if err := json.Unmarshal(merged, out); err != nil {
		return nil, fmt.Errorf("decode merged state: %w", err)
	}
	return out, nil
}
