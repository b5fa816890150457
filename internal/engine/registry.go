package engine

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"
)

// Registry selects scope handlers by scope type.
//
// Thread-safety: Register may race with Dispatch; both are guarded.
type Registry struct {
	engine *Engine

	mu       sync.RWMutex
	handlers map[string]ScopeHandler
}

// NewRegistry creates an empty registry. The engine supplies the logger and
// dispatch IDs.
func NewRegistry(eng *Engine) *Registry {
	return &Registry{
		engine:   eng,
		handlers: make(map[string]ScopeHandler),
	}
}

// Register adds h under h.ScopeType(). Registering a scope type twice is an
// error.
func (r *Registry) Register(h ScopeHandler) error {
	scopeType := h.ScopeType()
	if scopeType == "" {
		return fmt.Errorf("register scope handler: empty scope type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[scopeType]; exists {
		return fmt.Errorf("register scope handler: scope type %q already registered", scopeType)
	}
	r.handlers[scopeType] = h
	return nil
}

// Handler returns the handler registered for scopeType.
func (r *Registry) Handler(scopeType string) (ScopeHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[scopeType]
	return h, ok
}

// ScopeTypes returns the registered scope types in ascending order.
func (r *Registry) ScopeTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scopes := make([]string, 0, len(r.handlers))
	for s := range r.handlers {
		scopes = append(scopes, s)
	}
	sort.Strings(scopes)
	return scopes
}

// Consumer returns a Consumer bound to the handler for scopeType.
func (r *Registry) Consumer(scopeType string) (*Consumer, error) {
	h, ok := r.Handler(scopeType)
	if !ok {
		return nil, fmt.Errorf("no scope handler registered for %q", scopeType)
	}
	return NewConsumer(h, r.engine.logger), nil
}

// Dispatch validates env once and forwards its event to every registered
// handler in ascending scope-type order. Stops at the first handler error.
//
// Every dispatch gets a fresh dispatch ID, carried on ctx for the handlers.
func (r *Registry) Dispatch(ctx context.Context, env Envelope) error {
	dispatchID := r.engine.NewDispatchID()
	ctx = WithDispatchID(ctx, dispatchID)
	logger := r.engine.logger.With("dispatch_id", dispatchID)

	ctx, span := startSpan(ctx, "evmatch.dispatch",
		attribute.String("dispatch.id", dispatchID),
		attribute.String("channel.key", env.ChannelKey),
		attribute.String("event.name", env.EventName),
	)

	event, err := ValidateEnvelope(env)
	if err != nil {
		logger.WarnContext(ctx, "invalid event payload",
			"channel", env.ChannelKey,
			"event", env.EventName,
			"error", err,
		)
		endSpan(span, err)
		return err
	}

	scopes := r.ScopeTypes()
	span.SetAttributes(attribute.StringSlice("dispatch.scopes", slices.Clone(scopes)))
	if len(scopes) == 0 {
		logger.WarnContext(ctx, "no scope handlers registered", "event", env.EventName)
	}

	for _, scopeType := range scopes {
		h, _ := r.Handler(scopeType)
		if err := h.HandleEvent(ctx, event); err != nil {
			logger.ErrorContext(ctx, "dispatch failed",
				"scope_type", scopeType,
				"event", env.EventName,
				"error", err,
			)
			endSpan(span, err)
			return err
		}
	}

	endSpan(span, nil)
	return nil
}
