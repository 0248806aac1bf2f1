package action

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Handler executes one action type on behalf of a session.
type Handler interface {
	Handle(ctx context.Context, s *Session, a Action) (Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, s *Session, a Action) (Result, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, s *Session, a Action) (Result, error) {
	return f(ctx, s, a)
}

// Registry maps action types to handlers.
type Registry struct {
	handlers map[Type]Handler
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		handlers: make(map[Type]Handler),
		logger:   logger.With(zap.String("component", "action_registry")),
	}
}

// Register binds a handler to an action type, replacing any previous one.
func (r *Registry) Register(t Type, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[t] = h
	r.logger.Debug("registered action handler", zap.String("type", string(t)))
}

// Get returns the handler for an action type.
func (r *Registry) Get(t Type) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[t]
	return h, ok
}

// List returns the registered types sorted by name.
func (r *Registry) List() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Type, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
