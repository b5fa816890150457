package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/evmatch/internal/compiler"
	"github.com/roach88/evmatch/internal/engine"
	"github.com/roach88/evmatch/internal/ir"
	"github.com/roach88/evmatch/internal/store"
)

// defaultScopes are registered when a scenario lists none.
var defaultScopes = []string{engine.ScopeTypeProcess, engine.ScopeTypeCase}

// Harness holds the per-scenario collaborators.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	registry *engine.Registry
	recorder *engine.MatchRecorder
	models   []compiler.EventModelSpec
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load and validate the event models
// 3. Write subscription fixtures
// 4. Dispatch each event and check its expectations
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	models, err := compiler.LoadEventModels(scenario.Models)
	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}
	if errs := compiler.Validate(models); len(errs) > 0 {
		return nil, fmt.Errorf("invalid models: %w", errs[0])
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	eng := engine.New(engine.CanonicalEncoder{}, engine.StoreUnitOfWork(st),
		engine.WithLogger(logger),
		engine.WithDispatchIDGenerator(engine.NewFixedGenerator(dispatchIDs(len(scenario.Events))...)),
	)

	h := &Harness{
		store:    st,
		engine:   eng,
		registry: engine.NewRegistry(eng),
		recorder: &engine.MatchRecorder{},
		models:   models,
		logger:   logger,
	}

	scopes := scenario.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}
	for _, scope := range scopes {
		if err := h.registry.Register(engine.NewSubscriptionHandler(scope, eng, h.recorder)); err != nil {
			return nil, err
		}
	}

	ctx := context.Background()

	if err := h.writeSubscriptions(ctx, scenario.Subscriptions); err != nil {
		return nil, fmt.Errorf("failed to write subscriptions: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Events {
		if err := h.dispatch(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
	}

	return result, nil
}

// dispatchIDs returns "dispatch-1".."dispatch-n".
func dispatchIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("dispatch-%d", i+1)
	}
	return ids
}

// writeSubscriptions encodes each fixture's correlation map and stores it.
func (h *Harness) writeSubscriptions(ctx context.Context, fixtures []SubscriptionFixture) error {
	for i, f := range fixtures {
		sub := ir.EventSubscription{
			ID:        f.ID,
			EventType: f.EventType,
			ScopeType: f.ScopeType,
			ScopeID:   f.ScopeID,
			TenantID:  f.TenantID,
		}

		if len(f.Correlation) > 0 {
			obj, err := ir.ObjectFromAny(f.Correlation)
			if err != nil {
				return fmt.Errorf("subscriptions[%d]: correlation: %w", i, err)
			}
			key, err := h.engine.Encoder().Encode(obj)
			if err != nil {
				return fmt.Errorf("subscriptions[%d]: encode correlation: %w", i, err)
			}
			sub.Configuration = &key
		}

		if err := h.store.WriteSubscription(ctx, sub); err != nil {
			return fmt.Errorf("subscriptions[%d]: %w", i, err)
		}
	}
	return nil
}

// dispatch runs one event step and records its matches and failures.
// Returned errors abort the scenario; expectation failures do not.
func (h *Harness) dispatch(ctx context.Context, index int, step EventStep, result *Result) error {
	model, ok := compiler.Lookup(h.models, step.Event)
	if !ok {
		return fmt.Errorf("unknown event model %q", step.Event)
	}

	payload, err := ir.ObjectFromAny(step.Payload)
	if err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	event := model.Extract(payload, step.Tenant)

	h.recorder.Reset()
	if err := h.registry.Dispatch(ctx, engine.Envelope{
		Payload:   event,
		EventName: model.Key,
	}); err != nil {
		return err
	}

	label := step.label(index)
	matches := h.recorder.Matches()
	for _, m := range matches {
		result.Trace = append(result.Trace, MatchTrace{
			Event:         label,
			DispatchID:    m.DispatchID,
			ScopeType:     m.ScopeType,
			Subscriptions: m.SubscriptionIDs(),
			Specificity:   m.Specificity(),
		})
	}

	if step.Expect == nil {
		return nil
	}

	for _, msg := range checkMatches(label, step.Expect.Matches, matches) {
		result.AddError(msg)
	}

	if step.Expect.MostSpecific != nil {
		keys, err := h.engine.GenerateCorrelationKeys(event.CorrelationParameters())
		if err != nil {
			return err
		}
		got := 0
		if best, ok := engine.MostSpecific(keys); ok {
			got = best.Specificity()
		}
		if got != *step.Expect.MostSpecific {
			result.AddError(fmt.Sprintf("%s: most specific key has %d parameters, expected %d",
				label, got, *step.Expect.MostSpecific))
		}
	}

	return nil
}
