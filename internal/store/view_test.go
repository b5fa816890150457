package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/evmatch/internal/ir"
	"github.com/roach88/evmatch/internal/queryir"
)

// lookup builds the correlation lookup predicate the matcher issues.
func lookup(eventType, scopeType, tenantID string, keys ...string) queryir.Predicate {
	var cfg queryir.Predicate = queryir.IsNull{Field: "configuration"}
	if len(keys) > 0 {
		values := make([]ir.IRValue, len(keys))
		for i, k := range keys {
			values[i] = ir.IRString(k)
		}
		cfg = queryir.Or{Predicates: []queryir.Predicate{
			queryir.IsNull{Field: "configuration"},
			queryir.In{Field: "configuration", Values: values},
		}}
	}

	preds := []queryir.Predicate{
		queryir.Equals{Field: "event_type", Value: ir.IRString(eventType)},
		queryir.Equals{Field: "scope_type", Value: ir.IRString(scopeType)},
		cfg,
	}
	if tenantID != ir.NoTenantID {
		preds = append(preds, queryir.Equals{Field: "tenant_id", Value: ir.IRString(tenantID)})
	}
	return queryir.And{Predicates: preds}
}

func listIDs(t *testing.T, s *Store, filter queryir.Predicate) []string {
	t.Helper()
	var ids []string
	err := s.View(context.Background(), func(ctx context.Context, tx *Tx) error {
		subs, err := tx.ListSubscriptions(ctx, filter)
		if err != nil {
			return err
		}
		ids = subscriptionIDs(subs)
		return nil
	})
	require.NoError(t, err)
	return ids
}

func seedLookupFixture(t *testing.T, s *Store) {
	t.Helper()
	mustWrite(t, s,
		createTestSubscription("s-any", "orderPlaced", "bpmn", "", ""),
		createTestSubscription("s-k1", "orderPlaced", "bpmn", "", "k1"),
		createTestSubscription("s-k2", "orderPlaced", "bpmn", "", "k2"),
		createTestSubscription("s-other-key", "orderPlaced", "bpmn", "", "k9"),
		createTestSubscription("s-case", "orderPlaced", "cmmn", "", "k1"),
		createTestSubscription("s-other-event", "invoicePaid", "bpmn", "", ""),
		createTestSubscription("s-tenant-a", "orderPlaced", "bpmn", "tenantA", "k1"),
		createTestSubscription("s-tenant-b", "orderPlaced", "bpmn", "tenantB", "k1"),
	)
}

func TestListSubscriptions_CorrelatedLookup(t *testing.T) {
	s := createTestStore(t)
	seedLookupFixture(t, s)

	ids := listIDs(t, s, lookup("orderPlaced", "bpmn", ir.NoTenantID, "k1", "k2"))
	assert.Equal(t, []string{"s-any", "s-k1", "s-k2", "s-tenant-a", "s-tenant-b"}, ids)
}

func TestListSubscriptions_UncorrelatedLookup(t *testing.T) {
	s := createTestStore(t)
	seedLookupFixture(t, s)

	ids := listIDs(t, s, lookup("orderPlaced", "bpmn", ir.NoTenantID))
	assert.Equal(t, []string{"s-any"}, ids)
}

func TestListSubscriptions_TenantFilter(t *testing.T) {
	s := createTestStore(t)
	seedLookupFixture(t, s)

	ids := listIDs(t, s, lookup("orderPlaced", "bpmn", "tenantA", "k1"))
	assert.Equal(t, []string{"s-tenant-a"}, ids)
}

func TestListSubscriptions_ScopeTypeIsolation(t *testing.T) {
	s := createTestStore(t)
	seedLookupFixture(t, s)

	ids := listIDs(t, s, lookup("orderPlaced", "cmmn", ir.NoTenantID, "k1"))
	assert.Equal(t, []string{"s-case"}, ids)
}

func TestListSubscriptions_NoMatchReturnsEmpty(t *testing.T) {
	s := createTestStore(t)
	seedLookupFixture(t, s)

	var subs []ir.EventSubscription
	err := s.View(context.Background(), func(ctx context.Context, tx *Tx) error {
		var err error
		subs, err = tx.ListSubscriptions(ctx, lookup("unknown", "bpmn", ir.NoTenantID, "k1"))
		return err
	})
	require.NoError(t, err)
	assert.NotNil(t, subs)
	assert.Empty(t, subs)
}

func TestListSubscriptions_NilFilterReturnsAll(t *testing.T) {
	s := createTestStore(t)
	seedLookupFixture(t, s)

	ids := listIDs(t, s, nil)
	assert.Len(t, ids, 8)
	assert.Equal(t, "s-any", ids[0], "ordered by id")
}

func TestListSubscriptions_InvalidFilter(t *testing.T) {
	s := createTestStore(t)

	err := s.View(context.Background(), func(ctx context.Context, tx *Tx) error {
		_, err := tx.ListSubscriptions(ctx, queryir.Equals{Field: "1=1; --", Value: ir.IRString("x")})
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid identifier")
}

func TestView_PassesThroughCallbackError(t *testing.T) {
	s := createTestStore(t)
	sentinel := errors.New("boom")

	err := s.View(context.Background(), func(ctx context.Context, tx *Tx) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestView_NeverCommits(t *testing.T) {
	s := createTestStore(t)

	err := s.View(context.Background(), func(ctx context.Context, tx *Tx) error {
		_, err := tx.tx.ExecContext(ctx,
			"INSERT INTO event_subscriptions (id, event_type, scope_type, seq) VALUES ('x', 'e', 'bpmn', 1)")
		return err
	})
	require.NoError(t, err)

	all, err := s.ReadAllSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
