// Package cogniflow is the embedding entry point: it builds a ready
// cognition.Service with its snapshot store and loads the last saved state.
//
// Usage:
//
//	import "github.com/BaSui01/cogniflow"
//
//	svc, err := cogniflow.New(ctx)                                    // in-memory, defaults
//	svc, err := cogniflow.New(ctx, cogniflow.WithConfigFile("cogniflow.yaml"))
//	svc, err := cogniflow.New(ctx, cogniflow.WithStore(myStore), cogniflow.WithLogger(l))
//	defer svc.Close()
//	out, err := svc.Call(ctx, "sequential_thinking", cognition.Args{"problem": "..."})
//
// Without WithConfigFile or WithConfig the service keeps its state in memory.
package cogniflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/cogniflow/agent/persistence"
	"github.com/BaSui01/cogniflow/cognition"
	"github.com/BaSui01/cogniflow/config"
)

// Option configures the service created by [New].
type Option func(*options)

type options struct {
	cfg        *config.Config
	configPath string
	store      persistence.SnapshotStore
	logger     *zap.Logger
}

// WithConfig uses cfg as is. Its persistence section selects the store
// unless WithStore is also given.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithConfigFile loads a YAML config file plus COGNIFLOW_ environment overrides.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithStore sets a pre-built snapshot store.
func WithStore(s persistence.SnapshotStore) Option {
	return func(o *options) { o.store = s }
}

// WithLogger sets a custom zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds the service and restores the last snapshot. An empty store
// yields fresh state; a corrupt snapshot fails with PERSISTENCE_FAILED.
func New(ctx context.Context, opts ...Option) (*cognition.Service, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	cfg := o.cfg
	if cfg == nil && o.configPath != "" {
		loaded, err := config.NewLoader().WithConfigPath(o.configPath).Load()
		if err != nil {
			return nil, fmt.Errorf("cogniflow: load config: %w", err)
		}
		cfg = loaded
	}

	store := o.store
	switch {
	case store != nil:
	case cfg == nil:
		store = persistence.NewMemoryStore()
	default:
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("cogniflow: %w", err)
		}
		s, err := persistence.NewSnapshotStore(ctx, persistence.StoreConfigFrom(cfg.Persistence), o.logger)
		if err != nil {
			return nil, fmt.Errorf("cogniflow: open snapshot store: %w", err)
		}
		store = s
	}

	svc := cognition.New(cfg, store, o.logger)
	if err := svc.Load(ctx); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}
