package engine

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/roach88/evmatch/internal/ir"
	"github.com/roach88/evmatch/internal/queryir"
	"github.com/roach88/evmatch/internal/store"
)

// Subscription table columns used in lookups.
const (
	fieldEventType     = "event_type"
	fieldScopeType     = "scope_type"
	fieldTenantID      = "tenant_id"
	fieldConfiguration = "configuration"
)

// EventInstance is the capability the engine needs from an event occurrence.
// *ir.EventInstance implements it.
type EventInstance interface {
	EventModel() ir.EventModel
	CorrelationParameters() []ir.CorrelationParameter
}

// Querier lists subscriptions matching a filter.
// *store.Tx implements it.
type Querier interface {
	ListSubscriptions(ctx context.Context, filter queryir.Predicate) ([]ir.EventSubscription, error)
}

// UnitOfWork runs fn inside a transactional scope owned by the caller and
// returns fn's result. The engine never commits, rolls back or retries.
type UnitOfWork func(
	ctx context.Context,
	fn func(ctx context.Context, q Querier) ([]ir.EventSubscription, error),
) ([]ir.EventSubscription, error)

// StoreUnitOfWork runs each lookup inside a store.View transaction.
func StoreUnitOfWork(s *store.Store) UnitOfWork {
	return func(
		ctx context.Context,
		fn func(ctx context.Context, q Querier) ([]ir.EventSubscription, error),
	) ([]ir.EventSubscription, error) {
		var result []ir.EventSubscription
		err := s.View(ctx, func(ctx context.Context, tx *store.Tx) error {
			var err error
			result, err = fn(ctx, tx)
			return err
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}

// SubscriptionQuery composes a subscription lookup predicate.
// Clauses are ANDed in the order they are added.
type SubscriptionQuery struct {
	clauses []queryir.Predicate
}

// NewSubscriptionQuery returns an empty query.
func NewSubscriptionQuery() *SubscriptionQuery {
	return &SubscriptionQuery{}
}

// EventType restricts the query to one event type.
func (q *SubscriptionQuery) EventType(eventType string) *SubscriptionQuery {
	return q.and(queryir.Equals{Field: fieldEventType, Value: ir.IRString(eventType)})
}

// ScopeType restricts the query to one scope type.
func (q *SubscriptionQuery) ScopeType(scopeType string) *SubscriptionQuery {
	return q.and(queryir.Equals{Field: fieldScopeType, Value: ir.IRString(scopeType)})
}

// TenantID restricts the query to one tenant.
func (q *SubscriptionQuery) TenantID(tenantID string) *SubscriptionQuery {
	return q.and(queryir.Equals{Field: fieldTenantID, Value: ir.IRString(tenantID)})
}

// Or adds a group of alternatives. A single branch is added as is.
func (q *SubscriptionQuery) Or(branches ...queryir.Predicate) *SubscriptionQuery {
	switch len(branches) {
	case 0:
		return q
	case 1:
		return q.and(branches[0])
	default:
		return q.and(queryir.Or{Predicates: slices.Clone(branches)})
	}
}

// Predicate returns the composed filter.
func (q *SubscriptionQuery) Predicate() queryir.Predicate {
	return queryir.And{Predicates: slices.Clone(q.clauses)}
}

func (q *SubscriptionQuery) and(p queryir.Predicate) *SubscriptionQuery {
	q.clauses = append(q.clauses, p)
	return q
}

// WithoutConfiguration matches subscriptions registered without correlation.
func WithoutConfiguration() queryir.Predicate {
	return queryir.IsNull{Field: fieldConfiguration}
}

// ConfigurationIn matches subscriptions whose configuration is one of values.
func ConfigurationIn(values []string) queryir.Predicate {
	in := queryir.In{Field: fieldConfiguration, Values: make([]ir.IRValue, len(values))}
	for i, v := range values {
		in.Values[i] = ir.IRString(v)
	}
	return in
}

// SubscriptionFilter builds the lookup predicate for one occurrence.
//
// Subscriptions without configuration always match. When keys is non-empty,
// subscriptions whose configuration is one of the key values match too.
// The tenant filter is applied only when the event model was deployed to a
// tenant; the occurrence's own tenant is not consulted.
func SubscriptionFilter(scopeType string, event EventInstance, keys KeySet) queryir.Predicate {
	model := event.EventModel()

	q := NewSubscriptionQuery().
		EventType(model.Key).
		ScopeType(scopeType)

	if keys.Len() > 0 {
		q.Or(WithoutConfiguration(), ConfigurationIn(keys.Values()))
	} else {
		q.Or(WithoutConfiguration())
	}

	if model.TenantID != ir.NoTenantID {
		q.TenantID(model.TenantID)
	}

	return q.Predicate()
}

// FindSubscriptions returns the subscriptions of scopeType interested in
// event, given its candidate keys.
//
// The lookup runs inside the engine's UnitOfWork. Results keep the store's
// order. Errors from the unit of work are returned unmodified.
func (e *Engine) FindSubscriptions(ctx context.Context, scopeType string, event EventInstance, keys KeySet) ([]ir.EventSubscription, error) {
	model := event.EventModel()
	ctx, span := startSpan(ctx, "evmatch.find_subscriptions",
		attribute.String("scope.type", scopeType),
		attribute.String("event.type", model.Key),
		attribute.String("event.model_tenant", model.TenantID),
		attribute.Int("correlation.keys", keys.Len()),
	)

	filter := SubscriptionFilter(scopeType, event, keys)
	subs, err := e.uow(ctx, func(ctx context.Context, q Querier) ([]ir.EventSubscription, error) {
		return q.ListSubscriptions(ctx, filter)
	})
	if err != nil {
		endSpan(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("subscriptions.found", len(subs)))
	endSpan(span, nil)

	e.logger.DebugContext(ctx, "subscriptions found",
		"scope_type", scopeType,
		"event_type", model.Key,
		"keys", keys.Len(),
		"found", len(subs),
	)
	return subs, nil
}
