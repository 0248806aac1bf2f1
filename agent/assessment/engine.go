package assessment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/BaSui01/cogniflow/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPrincipleScore = 0.7
	assessmentConfidence  = 0.75
	principleSuggestion   = 0.1
)

// Artifact is an assessable reasoning record: a thinking session, a
// reasoning chain or a ReAct cycle.
type Artifact interface {
	ArtifactID() string
	TargetType() string
	// Transcript renders the artifact as plain text for the scorers.
	// Correction notes must not appear in it.
	Transcript() string
	// AnchorID is the ledger entry corrections attach to by default.
	AnchorID() string
	// AppendCorrection records an audit note against anchorID without
	// changing the scored content. It reports false when the anchor does
	// not exist.
	AppendCorrection(anchorID, note string, at time.Time) bool
}

// Resolver looks artifacts up by type and id.
type Resolver interface {
	Resolve(targetType TargetType, id string) (Artifact, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(targetType TargetType, id string) (Artifact, bool)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(targetType TargetType, id string) (Artifact, bool) { return f(targetType, id) }

// Config configures the assessment engine.
type Config struct {
	Thresholds    Thresholds    `json:"thresholds"`
	MetricsWindow time.Duration `json:"metrics_window"`
}

// DefaultConfig returns the stock engine settings.
func DefaultConfig() Config {
	return Config{Thresholds: DefaultFrameworkThresholds, MetricsWindow: 24 * time.Hour}
}

// AssessOptions tunes one assessment.
type AssessOptions struct {
	FrameworkID        string `json:"framework_id,omitempty"`
	IncludeCorrections bool   `json:"include_corrections"`
	AutoApply          bool   `json:"auto_apply_corrections"`
}

// Output is what an assessment returns to the caller.
type Output struct {
	Assessment          *SelfAssessment     `json:"assessment"`
	Corrections         []Correction        `json:"corrections"`
	Applied             []AppliedCorrection `json:"applied,omitempty"`
	Metrics             *QualityMetrics     `json:"metrics"`
	Recommendations     []string            `json:"recommendations"`
	ImprovementPlan     []string            `json:"improvement_plan"`
	Result              string              `json:"result"`
	Reasoning           []string            `json:"reasoning"`
	ConstitutionalCheck bool                `json:"constitutional_check"`
	Violations          []string            `json:"violations"`
	Confidence          float64             `json:"confidence"`
}

// Engine scores artifacts against constitutional frameworks. Like the other
// engines it is not safe for concurrent use.
type Engine struct {
	cfg      Config
	scorers  *ScorerRegistry
	resolver Resolver
	journal  types.Journal
	agg      *Aggregator
	now      func() time.Time
	newID    func() string
	logger   *zap.Logger

	frameworks []Framework
	history    []*SelfAssessment
	critiques  []*CritiqueSession
	applied    []AppliedCorrection
}

// Option customizes an Engine.
type Option func(*Engine)

// WithScorers replaces the scorer registry.
func WithScorers(r *ScorerRegistry) Option { return func(e *Engine) { e.scorers = r } }

// WithResolver wires target lookup for AssessTarget and Critique.
func WithResolver(r Resolver) Option { return func(e *Engine) { e.resolver = r } }

// WithJournal sets where applied corrections are logged.
func WithJournal(j types.Journal) Option { return func(e *Engine) { e.journal = j } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// NewEngine creates an assessment engine holding the default framework.
func NewEngine(cfg Config, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultFrameworkThresholds
	}
	if cfg.MetricsWindow <= 0 {
		cfg.MetricsWindow = DefaultConfig().MetricsWindow
	}
	e := &Engine{
		cfg:     cfg,
		scorers: NewScorerRegistry(),
		journal: types.NopJournal{},
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
		logger:  logger.With(zap.String("component", "assessment_engine")),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.agg = NewAggregator(cfg.MetricsWindow, e.now)
	e.frameworks = []Framework{DefaultFramework(e.now()).WithThresholds(cfg.Thresholds)}
	return e
}

// =============================================================================
// Frameworks
// =============================================================================

// RegisterFramework validates and adds (or replaces) a framework.
func (e *Engine) RegisterFramework(f Framework) error {
	if err := f.Validate(); err != nil {
		return types.WrapError(err, types.ErrInvalidArgument, "invalid framework")
	}
	f.LastUpdated = e.now()
	for i := range e.frameworks {
		if e.frameworks[i].ID == f.ID {
			if f.Created.IsZero() {
				f.Created = e.frameworks[i].Created
			}
			e.frameworks[i] = f
			return nil
		}
	}
	if f.Created.IsZero() {
		f.Created = f.LastUpdated
	}
	e.frameworks = append(e.frameworks, f)
	return nil
}

// Framework returns the framework with id; "" selects the default.
func (e *Engine) Framework(id string) (*Framework, error) {
	if id == "" {
		id = DefaultFrameworkID
	}
	for i := range e.frameworks {
		if e.frameworks[i].ID == id {
			return &e.frameworks[i], nil
		}
	}
	return nil, types.NewTargetNotFoundError("constitutional framework", id)
}

// Frameworks lists registered frameworks.
func (e *Engine) Frameworks() []Framework {
	return append([]Framework(nil), e.frameworks...)
}

// =============================================================================
// Assessment
// =============================================================================

// AssessTarget resolves a target through the configured Resolver and assesses it.
func (e *Engine) AssessTarget(ctx context.Context, targetType, targetID string, opts AssessOptions) (*Output, error) {
	tt, ok := ParseTargetType(targetType)
	if !ok {
		return nil, types.NewInvalidArgumentError("target_type", fmt.Sprintf("unknown target type %q", targetType))
	}
	if e.resolver == nil {
		return nil, types.NewTargetNotFoundError(string(tt), targetID)
	}
	artifact, found := e.resolver.Resolve(tt, targetID)
	if !found {
		return nil, types.NewTargetNotFoundError(string(tt), targetID)
	}
	return e.Assess(ctx, artifact, opts)
}

// Assess scores artifact against a framework, optionally generating and
// applying corrections, and appends the assessment to history.
func (e *Engine) Assess(ctx context.Context, artifact Artifact, opts AssessOptions) (*Output, error) {
	if artifact == nil {
		return nil, types.NewInvalidArgumentError("target", "artifact is required")
	}
	tt, ok := ParseTargetType(artifact.TargetType())
	if !ok {
		return nil, types.NewInvalidArgumentError("target_type", fmt.Sprintf("unknown target type %q", artifact.TargetType()))
	}
	f, err := e.Framework(opts.FrameworkID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := e.now()
	a := e.score(f, tt, artifact)

	var corrections []Correction
	if opts.IncludeCorrections || opts.AutoApply {
		corrections = e.buildCorrections(f, a)
	}
	var applied []AppliedCorrection
	if opts.AutoApply && len(corrections) > 0 {
		applied = e.applyCorrections(artifact, a, corrections)
		a.Critique += fmt.Sprintf("\nAuto-applied %d corrections.", len(applied))
	}
	a.DurationMS = e.now().Sub(start).Milliseconds()

	e.history = append(e.history, a)
	e.applied = append(e.applied, applied...)

	e.logger.Info("assessment completed",
		zap.String("assessment_id", a.ID),
		zap.String("target_id", a.TargetID),
		zap.String("target_type", string(tt)),
		zap.Float64("overall_score", a.OverallScore),
		zap.Int("flaws", a.TotalFlaws),
		zap.Int("corrections_applied", len(applied)))

	return &Output{
		Assessment:          a,
		Corrections:         corrections,
		Applied:             applied,
		Metrics:             e.QualityMetrics(Timeframe{}),
		Recommendations:     recommendations(a),
		ImprovementPlan:     improvementPlan(),
		Result:              fmt.Sprintf("Assessment of %s %s completed. Overall score: %.2f (%s).", tt, a.TargetID, a.OverallScore, a.OverallEvaluation),
		Reasoning:           []string{fmt.Sprintf("Assessed based on %d principles.", len(f.Principles))},
		ConstitutionalCheck: a.OverallScore > f.Thresholds.Acceptable,
		Violations:          violations(a),
		Confidence:          averageConfidence(a),
	}, nil
}

// score runs every principle scorer and builds the immutable assessment.
func (e *Engine) score(f *Framework, tt TargetType, artifact Artifact) *SelfAssessment {
	text := artifact.Transcript()
	anchor := artifact.AnchorID()

	a := &SelfAssessment{
		ID:          "assessment_" + e.newID(),
		TargetID:    artifact.ArtifactID(),
		TargetType:  tt,
		FrameworkID: f.ID,
		Timestamp:   e.now(),
	}
	var weighted float64
	for _, p := range f.Principles {
		pa := e.assessPrinciple(p, tt, text, anchor)
		weighted += pa.Score * p.Weight
		a.PrincipleAssessments = append(a.PrincipleAssessments, pa)
		a.TotalFlaws += len(pa.Flaws)
		a.TotalSuggestions += len(pa.Suggestions)
	}
	a.OverallScore = clamp01(weighted / f.TotalWeight())
	a.OverallEvaluation = f.Thresholds.Evaluate(a.OverallScore)
	a.Critique = fmt.Sprintf("Assessment completed with score %.2f. Found %d flaws and %d suggestions across %d principles.",
		a.OverallScore, a.TotalFlaws, a.TotalSuggestions, len(f.Principles))
	return a
}

func (e *Engine) assessPrinciple(p Principle, tt TargetType, text, anchor string) PrincipleAssessment {
	score := defaultPrincipleScore
	var flaws []Flaw
	if s, ok := e.scorers.Get(p.ID); ok {
		score = clamp01(s.Score(text))
		if rule, known := flawRules[p.ID]; known && score < p.Thresholds.Acceptable {
			flaws = append(flaws, Flaw{
				ID:          "flaw_" + e.newID(),
				Type:        rule.flaw,
				Severity:    rule.severity,
				Description: rule.description,
				Location:    anchor,
				Confidence:  1 - score,
				PrincipleID: p.ID,
			})
		}
	} else {
		e.logger.Debug("no scorer for principle, using default score", zap.String("principle", p.ID))
	}

	var suggestions []Correction
	if len(flaws) > 0 && score < p.Thresholds.Good {
		suggestions = append(suggestions, Correction{
			ID:                  "suggestion_" + e.newID(),
			FlawID:              flaws[0].ID,
			Type:                CorrectionGeneralImprovement,
			Description:         fmt.Sprintf("Consider reviewing %s. Specific areas might need refinement.", p.Name),
			Implementation:      fmt.Sprintf("Re-evaluate the content against the guidelines for %s.", p.Name),
			ExpectedImprovement: principleSuggestion,
			Priority:            PriorityMedium,
			TargetComponent:     anchor,
			SuggestedChange:     "Review and refine based on principle guidelines.",
		})
	}

	return PrincipleAssessment{
		PrincipleID: p.ID,
		Score:       score,
		Evaluation:  p.Thresholds.Evaluate(score),
		Evidence:    []string{fmt.Sprintf("Assessed %s content against principle: %s", tt, p.Name)},
		Flaws:       flaws,
		Suggestions: suggestions,
		Confidence:  assessmentConfidence,
	}
}

type flawRule struct {
	flaw        FlawType
	severity    Severity
	description string
}

var flawRules = map[string]flawRule{
	PrincipleLogicalConsistency: {FlawInconsistency, SeverityMedium, "Potential logical inconsistency detected."},
	PrincipleEvidenceBased:      {FlawMissingEvidence, SeverityMedium, "Insufficient evidence cited or implied."},
	PrincipleCompleteness:       {FlawIncompleteAnalysis, SeverityLow, "Analysis appears incomplete."},
	PrincipleClarity:            {FlawUnclearReasoning, SeverityLow, "Reasoning or expression lacks clarity."},
	PrincipleBiasAwareness:      {FlawBias, SeverityMedium, "Potential unacknowledged bias."},
}

// applyCorrections records one audit note per correction on the artifact.
// Corrections whose anchor is missing are skipped.
func (e *Engine) applyCorrections(artifact Artifact, a *SelfAssessment, corrections []Correction) []AppliedCorrection {
	var applied []AppliedCorrection
	for _, c := range corrections {
		flaw, pa, _ := flawOf(a, c.FlawID)
		at := e.now()
		if !artifact.AppendCorrection(c.TargetComponent, correctionNote(c, flaw), at) {
			e.logger.Warn("correction target not found, skipping",
				zap.String("correction_id", c.ID),
				zap.String("target_component", c.TargetComponent),
				zap.String("artifact_id", artifact.ArtifactID()))
			continue
		}
		applied = append(applied, AppliedCorrection{
			CorrectionID: c.ID,
			AssessmentID: a.ID,
			TargetID:     a.TargetID,
			PrincipleID:  pa.PrincipleID,
			ScoreBefore:  pa.Score,
			AppliedAt:    at,
		})
		e.journal.Record(types.JournalEntry{
			ID:               fmt.Sprintf("corr_log_%s_%d", c.ID, at.UnixMilli()),
			Timestamp:        at,
			Message:          fmt.Sprintf("Applied correction %s to %s.", c.ID, c.TargetComponent),
			SourceActionID:   c.ID,
			SourceActionName: "applyCorrection",
			SessionID:        a.TargetID,
			Tags:             []string{"correction", "constitutional_ai"},
			Severity:         types.SeverityInfo,
		})
	}
	return applied
}

// =============================================================================
// Lookups
// =============================================================================

// History returns assessments oldest first.
func (e *Engine) History() []*SelfAssessment {
	return append([]*SelfAssessment(nil), e.history...)
}

// Assessment returns the assessment with id.
func (e *Engine) Assessment(id string) (*SelfAssessment, bool) {
	for _, a := range e.history {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// LatestScore returns the newest overall score recorded for targetID.
func (e *Engine) LatestScore(targetID string) (float64, bool) {
	for i := len(e.history) - 1; i >= 0; i-- {
		if e.history[i].TargetID == targetID {
			return e.history[i].OverallScore, true
		}
	}
	return 0, false
}

// AppliedCorrections returns every correction written back to an artifact.
func (e *Engine) AppliedCorrections() []AppliedCorrection {
	return append([]AppliedCorrection(nil), e.applied...)
}

// Critiques returns stored critique sessions.
func (e *Engine) Critiques() []*CritiqueSession {
	return append([]*CritiqueSession(nil), e.critiques...)
}

// QualityMetrics aggregates history over tf; a zero tf means the configured
// trailing window.
func (e *Engine) QualityMetrics(tf Timeframe) *QualityMetrics {
	return e.agg.Calculate(e.history, e.applied, tf)
}

// Snapshot is the engine's persisted state.
type Snapshot struct {
	Frameworks []Framework         `json:"frameworks"`
	History    []*SelfAssessment   `json:"history"`
	Critiques  []*CritiqueSession  `json:"critiques"`
	Applied    []AppliedCorrection `json:"applied_corrections"`
}

// Snapshot exports engine state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Frameworks: e.Frameworks(),
		History:    e.History(),
		Critiques:  e.Critiques(),
		Applied:    e.AppliedCorrections(),
	}
}

// Restore replaces engine state. The default framework is kept when the
// snapshot does not carry one.
func (e *Engine) Restore(s Snapshot) {
	frameworks := make([]Framework, 0, len(s.Frameworks)+1)
	for _, f := range s.Frameworks {
		if err := f.Validate(); err != nil {
			e.logger.Warn("dropping invalid framework from snapshot", zap.String("framework_id", f.ID), zap.Error(err))
			continue
		}
		frameworks = append(frameworks, f)
	}
	hasDefault := false
	for _, f := range frameworks {
		hasDefault = hasDefault || f.ID == DefaultFrameworkID
	}
	if !hasDefault {
		frameworks = append([]Framework{DefaultFramework(e.now()).WithThresholds(e.cfg.Thresholds)}, frameworks...)
	}
	e.frameworks = frameworks

	e.history = append([]*SelfAssessment(nil), s.History...)
	sort.SliceStable(e.history, func(i, j int) bool { return e.history[i].Timestamp.Before(e.history[j].Timestamp) })
	e.critiques = append([]*CritiqueSession(nil), s.Critiques...)
	e.applied = append([]AppliedCorrection(nil), s.Applied...)
}

func violations(a *SelfAssessment) []string {
	out := []string{}
	for _, pa := range a.PrincipleAssessments {
		for _, f := range pa.Flaws {
			out = append(out, fmt.Sprintf("%s: %s", pa.PrincipleID, f.Description))
		}
	}
	return out
}

func averageConfidence(a *SelfAssessment) float64 {
	if len(a.PrincipleAssessments) == 0 {
		return 0
	}
	var sum float64
	for _, pa := range a.PrincipleAssessments {
		sum += pa.Confidence
	}
	return sum / float64(len(a.PrincipleAssessments))
}
