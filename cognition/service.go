package cognition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/cogniflow/agent/action"
	"github.com/BaSui01/cogniflow/agent/assessment"
	"github.com/BaSui01/cogniflow/agent/learning"
	"github.com/BaSui01/cogniflow/agent/memory"
	"github.com/BaSui01/cogniflow/agent/persistence"
	"github.com/BaSui01/cogniflow/agent/reasoning"
	"github.com/BaSui01/cogniflow/agent/state"
	"github.com/BaSui01/cogniflow/agent/thinking"
	"github.com/BaSui01/cogniflow/config"
	"github.com/BaSui01/cogniflow/internal/metrics"
	"github.com/BaSui01/cogniflow/types"
)

// Save triggers, used as a metrics label.
const (
	TriggerManual   = "manual"
	TriggerAuto     = "auto"
	TriggerShutdown = "shutdown"
)

// Service owns the whole cognitive state. Every operation runs under one
// mutex, so the engines underneath never see concurrent calls.
type Service struct {
	mu sync.Mutex

	cfg       *config.Config
	store     persistence.SnapshotStore
	collector *metrics.Collector
	now       func() time.Time
	logger    *zap.Logger

	log        *types.LearningLog
	graph      *memory.Graph
	reasoner   *reasoning.Reasoner
	thinking   *thinking.Engine
	assessment *assessment.Engine
	learning   *learning.Engine
	react      *action.Engine

	tools     map[string]tool
	lastSaved time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics records tool calls and domain events on c.
func WithMetrics(c *metrics.Collector) Option { return func(s *Service) { s.collector = c } }

// WithClock overrides time.Now for the service and every engine.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New builds the engines from cfg and wires them together. A nil store keeps
// state in memory only.
func New(cfg *config.Config, store persistence.SnapshotStore, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if store == nil {
		store = persistence.NewMemoryStore()
	}
	s := &Service{
		cfg:    cfg,
		store:  store,
		now:    time.Now,
		logger: logger.With(zap.String("component", "cognition")),
		log:    types.NewLearningLog(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.graph = memory.NewGraph(memory.Config{
		Capacity:          cfg.Memory.Capacity,
		SemanticCacheSize: cfg.Memory.SemanticCacheSize,
	}, logger, memory.WithClock(s.now))

	s.reasoner = reasoning.NewReasoner(logger, reasoning.WithClock(s.now))

	s.assessment = assessment.NewEngine(assessment.Config{
		Thresholds: assessment.Thresholds{
			Excellent:  cfg.Assessment.Excellent,
			Good:       cfg.Assessment.Good,
			Acceptable: cfg.Assessment.Acceptable,
		},
		MetricsWindow: cfg.Assessment.MetricsWindow,
	}, logger,
		assessment.WithResolver(assessment.ResolverFunc(s.resolve)),
		assessment.WithJournal(s.log),
		assessment.WithClock(s.now))

	s.learning = learning.NewEngine(learning.Tunables{
		FeedbackWeight:           cfg.Learning.FeedbackWeight,
		PatternThreshold:         cfg.Learning.PatternThreshold,
		AdaptationAggressiveness: cfg.Learning.AdaptationAggressiveness,
		ExampleInfluence:         cfg.Learning.ExampleInfluence,
		SimilarityThreshold:      cfg.Learning.SimilarityThreshold,
	}, logger,
		learning.WithQualityLookup(s.assessment.LatestScore),
		learning.WithJournal(s.log),
		learning.WithClock(s.now))

	s.thinking = thinking.NewEngine(thinking.Config{
		DefaultMaxThoughts: cfg.Thinking.DefaultMaxThoughts,
		AllowBranching:     cfg.Thinking.AllowBranching,
		RequireHypotheses:  cfg.Thinking.RequireHypotheses,
		HistoryLimit:       cfg.Thinking.HistoryLimit,
	}, logger,
		thinking.WithMemory(graphMemory{graph: s.graph, now: s.now}),
		thinking.WithAdvisor(patternAdvisor{engine: s.learning}),
		thinking.WithJournal(s.log),
		thinking.WithClock(s.now))

	registry := action.NewRegistry(logger)
	s.registerHandlers(registry)
	s.react = action.NewEngine(action.DefaultConfig(), registry, logger,
		action.WithJournal(s.log),
		action.WithClock(s.now))

	s.tools = s.toolTable()
	return s
}

// resolve finds an assessable artifact by type and id.
func (s *Service) resolve(tt assessment.TargetType, id string) (assessment.Artifact, bool) {
	switch tt {
	case assessment.TargetSequentialThinking:
		if sess, ok := s.thinking.Lookup(id); ok {
			return sess, true
		}
	case assessment.TargetReasoningChain:
		if c, ok := s.reasoner.Chain(id); ok {
			return c, true
		}
	case assessment.TargetReActCycle:
		if c, ok := s.react.Cycle(id); ok {
			return c, true
		}
	}
	return nil, false
}

// =============================================================================
// State
// =============================================================================

// snapshot assembles the persisted aggregate. Caller holds s.mu.
func (s *Service) snapshot() *state.CognitiveState {
	return &state.CognitiveState{
		Version: state.Version,
		SavedAt: s.now(),
		Memory:  state.FromMemory(s.graph.Snapshot()),
		Thinking: state.ThinkingState{
			Active:    s.thinking.ActiveSessions(),
			Completed: s.thinking.History(),
		},
		ReasoningChains: s.reasoner.Chains(),
		ReAct:           s.react.Snapshot(),
		Assessment:      s.assessment.Snapshot(),
		Learning:        s.learning.Snapshot(),
		LearningLog:     s.log.Entries(),
	}
}

// restore replaces every engine's state. Caller holds s.mu.
func (s *Service) restore(cs *state.CognitiveState) {
	s.graph.Restore(cs.Memory.Snapshot())
	s.thinking.Restore(cs.Thinking.Active, cs.Thinking.Completed)
	s.reasoner.Restore(cs.ReasoningChains)
	s.react.Restore(cs.ReAct)
	s.assessment.Restore(cs.Assessment)
	s.learning.Restore(cs.Learning)
	s.log.Replace(cs.LearningLog)
	s.lastSaved = cs.SavedAt
}

// Load reads the stored snapshot and merges it over defaults. An empty store
// leaves the fresh state in place.
func (s *Service) Load(ctx context.Context) error {
	data, err := s.store.Load(ctx)
	if errors.Is(err, persistence.ErrNotFound) {
		s.logger.Info("no saved cognitive state, starting fresh")
		return nil
	}
	if err != nil {
		return types.WrapError(err, types.ErrPersistenceFailed, "load cognitive state")
	}
	cs, err := state.Decode(data)
	if err != nil {
		return types.WrapError(err, types.ErrPersistenceFailed, "decode cognitive state")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(cs)
	s.refreshGauges()
	s.logger.Info("cognitive state loaded",
		zap.Int("entities", len(cs.Memory.Entities)),
		zap.Int("thinking_sessions", len(cs.Thinking.Active)+len(cs.Thinking.Completed)),
		zap.Int("patterns", len(cs.Learning.Patterns)),
		zap.Time("saved_at", cs.SavedAt))
	return nil
}

// Save writes the current state to the store.
func (s *Service) Save(ctx context.Context, trigger string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, trigger)
}

func (s *Service) saveLocked(ctx context.Context, trigger string) (err error) {
	start := time.Now()
	defer func() {
		if s.collector != nil {
			s.collector.RecordSnapshotSave(trigger, err, time.Since(start))
		}
	}()

	cs := s.snapshot()
	data, err := cs.Encode()
	if err != nil {
		return types.WrapError(err, types.ErrPersistenceFailed, "encode cognitive state")
	}
	if err = s.store.Save(ctx, data); err != nil {
		s.logger.Error("failed to save cognitive state",
			zap.String("trigger", trigger),
			zap.Error(err))
		return types.WrapError(err, types.ErrPersistenceFailed, "save cognitive state")
	}
	s.lastSaved = cs.SavedAt
	s.logger.Debug("cognitive state saved",
		zap.String("trigger", trigger),
		zap.Int("bytes", len(data)))
	return nil
}

// RunAutoSave saves every interval until ctx is done, then saves once more.
// Failed saves are logged and the loop keeps going.
func (s *Service) RunAutoSave(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Save(saveCtx, TriggerShutdown); err != nil {
				s.logger.Warn("final save failed", zap.Error(err))
			}
			return nil
		case <-ticker.C:
			_ = s.Save(ctx, TriggerAuto)
		}
	}
}

// Ping checks the snapshot store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close releases the snapshot store.
func (s *Service) Close() error {
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close snapshot store: %w", err)
	}
	return nil
}

// LastSaved reports when state was last written or loaded.
func (s *Service) LastSaved() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

// LearningLog exposes the shared journal.
func (s *Service) LearningLog() []types.JournalEntry { return s.log.Entries() }

// refreshGauges updates size gauges. Caller holds s.mu.
func (s *Service) refreshGauges() {
	if s.collector == nil {
		return
	}
	patterns, _ := s.learning.Store().Len()
	s.collector.SetLearningPatterns(patterns)
	s.collector.SetMemoryLoad(len(s.graph.Items()), s.graph.Meta().TotalEntities)
}
