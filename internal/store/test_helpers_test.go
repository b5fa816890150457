package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/evmatch/internal/ir"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSubscription builds a subscription with a nil configuration
// unless cfg is non-empty.
func createTestSubscription(id, eventType, scopeType, tenantID, cfg string) ir.EventSubscription {
	sub := ir.EventSubscription{
		ID:                id,
		EventType:         eventType,
		ScopeType:         scopeType,
		ScopeID:           "scope-" + id,
		ScopeDefinitionID: "def-" + id,
		TenantID:          tenantID,
	}
	if cfg != "" {
		sub.Configuration = &cfg
	}
	return sub
}

// mustWrite writes every subscription or fails the test.
func mustWrite(t *testing.T, s *Store, subs ...ir.EventSubscription) {
	t.Helper()
	for _, sub := range subs {
		if err := s.WriteSubscription(context.Background(), sub); err != nil {
			t.Fatalf("WriteSubscription(%s) failed: %v", sub.ID, err)
		}
	}
}

// subscriptionIDs projects subscriptions to their ids.
func subscriptionIDs(subs []ir.EventSubscription) []string {
	ids := make([]string, len(subs))
	for i, sub := range subs {
		ids[i] = sub.ID
	}
	return ids
}
