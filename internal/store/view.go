package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/evmatch/internal/ir"
	"github.com/roach88/evmatch/internal/queryir"
	"github.com/roach88/evmatch/internal/querysql"
)

// Tx is a read handle scoped to one View call.
type Tx struct {
	tx       *sql.Tx
	compiler *querysql.SQLCompiler
}

// View runs fn inside a transaction that is always rolled back.
// Errors returned by fn are passed through unchanged.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("view: begin tx: %w", err)
	}
	defer sqlTx.Rollback() // read-only: never committed

	return fn(ctx, &Tx{tx: sqlTx, compiler: querysql.NewSQLCompiler()})
}

// ListSubscriptions returns the subscriptions matching filter, ordered by
// id COLLATE BINARY ASC. A nil filter returns every subscription.
func (t *Tx) ListSubscriptions(ctx context.Context, filter queryir.Predicate) ([]ir.EventSubscription, error) {
	query, params, err := t.compiler.Compile(queryir.Select{
		From:    "event_subscriptions",
		Columns: subscriptionColumns,
		Filter:  filter,
	})
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	rows, err := t.tx.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}
