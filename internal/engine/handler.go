package engine

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// Scope types served by the built-in handlers.
const (
	ScopeTypeProcess = "bpmn"
	ScopeTypeCase    = "cmmn"
)

// SubscriptionHandler matches events against the subscriptions of one scope
// type and hands each non-empty result to a Trigger.
type SubscriptionHandler struct {
	scopeType string
	engine    *Engine
	trigger   Trigger
}

// NewSubscriptionHandler creates a handler for scopeType. A nil trigger logs
// matches through the engine's logger.
func NewSubscriptionHandler(scopeType string, eng *Engine, trigger Trigger) *SubscriptionHandler {
	if trigger == nil {
		trigger = NewLogTrigger(eng.logger)
	}
	return &SubscriptionHandler{
		scopeType: scopeType,
		engine:    eng,
		trigger:   trigger,
	}
}

// NewProcessHandler creates the handler for process-scoped subscriptions.
func NewProcessHandler(eng *Engine, trigger Trigger) *SubscriptionHandler {
	return NewSubscriptionHandler(ScopeTypeProcess, eng, trigger)
}

// NewCaseHandler creates the handler for case-scoped subscriptions.
func NewCaseHandler(eng *Engine, trigger Trigger) *SubscriptionHandler {
	return NewSubscriptionHandler(ScopeTypeCase, eng, trigger)
}

// ScopeType implements ScopeHandler.
func (h *SubscriptionHandler) ScopeType() string {
	return h.scopeType
}

// HandleEvent generates candidate keys, finds the interested subscriptions
// and triggers when at least one matched.
func (h *SubscriptionHandler) HandleEvent(ctx context.Context, event EventInstance) error {
	dispatchID, ok := DispatchIDFromContext(ctx)
	if !ok {
		dispatchID = h.engine.NewDispatchID()
		ctx = WithDispatchID(ctx, dispatchID)
	}

	model := event.EventModel()
	ctx, span := startSpan(ctx, "evmatch.handle",
		attribute.String("dispatch.id", dispatchID),
		attribute.String("scope.type", h.scopeType),
		attribute.String("event.type", model.Key),
	)

	err := h.handle(ctx, dispatchID, event)
	endSpan(span, err)
	return err
}

func (h *SubscriptionHandler) handle(ctx context.Context, dispatchID string, event EventInstance) error {
	keys, err := h.engine.GenerateCorrelationKeys(event.CorrelationParameters())
	if err != nil {
		return err
	}

	subs, err := h.engine.FindSubscriptions(ctx, h.scopeType, event, keys)
	if err != nil {
		return err
	}

	model := event.EventModel()
	if len(subs) == 0 {
		h.engine.logger.DebugContext(ctx, "no subscriptions matched",
			"dispatch_id", dispatchID,
			"scope_type", h.scopeType,
			"event_type", model.Key,
		)
		return nil
	}

	m := Match{
		DispatchID:    dispatchID,
		ScopeType:     h.scopeType,
		Event:         event,
		Subscriptions: subs,
	}
	if best, ok := MostSpecific(keys); ok {
		m.MostSpecific = &best
	}

	h.engine.logger.InfoContext(ctx, "subscriptions matched",
		"dispatch_id", dispatchID,
		"scope_type", h.scopeType,
		"event_type", model.Key,
		"matched", len(subs),
		"specificity", m.Specificity(),
	)

	return h.trigger.Trigger(ctx, m)
}
