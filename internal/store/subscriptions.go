package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/evmatch/internal/ir"
)

// subscriptionColumns is the scan order shared by every subscription read.
var subscriptionColumns = []string{
	"id", "event_type", "scope_type", "scope_id", "scope_definition_id",
	"tenant_id", "configuration", "seq",
}

// WriteSubscription inserts a subscription record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency. The record's Seq is
// ignored; the store assigns the next value.
func (s *Store) WriteSubscription(ctx context.Context, sub ir.EventSubscription) error {
	if sub.ID == "" {
		return fmt.Errorf("write subscription: id is required")
	}
	if sub.EventType == "" || sub.ScopeType == "" {
		return fmt.Errorf("write subscription %s: event_type and scope_type are required", sub.ID)
	}

	var configuration sql.NullString
	if sub.Configuration != nil {
		configuration = sql.NullString{String: *sub.Configuration, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event_subscriptions
		(id, event_type, scope_type, scope_id, scope_definition_id, tenant_id, configuration, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM event_subscriptions))
		ON CONFLICT(id) DO NOTHING
	`,
		sub.ID,
		sub.EventType,
		sub.ScopeType,
		sub.ScopeID,
		sub.ScopeDefinitionID,
		sub.TenantID,
		configuration,
	)
	if err != nil {
		return fmt.Errorf("write subscription %s: %w", sub.ID, err)
	}

	return nil
}

// ReadSubscription retrieves a single subscription by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSubscription(ctx context.Context, id string) (ir.EventSubscription, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_type, scope_type, scope_id, scope_definition_id, tenant_id, configuration, seq
		FROM event_subscriptions
		WHERE id = ?
	`, id)

	return scanSubscription(row)
}

// ReadAllSubscriptions returns every subscription ordered by seq.
func (s *Store) ReadAllSubscriptions(ctx context.Context) ([]ir.EventSubscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, scope_type, scope_id, scope_definition_id, tenant_id, configuration, seq
		FROM event_subscriptions
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all subscriptions: %w", err)
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSubscription scans one row in subscriptionColumns order.
func scanSubscription(row rowScanner) (ir.EventSubscription, error) {
	var sub ir.EventSubscription
	var configuration sql.NullString

	if err := row.Scan(
		&sub.ID, &sub.EventType, &sub.ScopeType, &sub.ScopeID, &sub.ScopeDefinitionID,
		&sub.TenantID, &configuration, &sub.Seq,
	); err != nil {
		return ir.EventSubscription{}, err
	}

	if configuration.Valid {
		cfg := configuration.String
		sub.Configuration = &cfg
	}
	return sub, nil
}

// collectSubscriptions drains rows. Returns an empty slice (not nil) when
// nothing matched.
func collectSubscriptions(rows *sql.Rows) ([]ir.EventSubscription, error) {
	subs := []ir.EventSubscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}
