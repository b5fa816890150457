// Package store provides SQLite-backed storage for event subscriptions.
//
// The store holds one table, event_subscriptions. A subscription with a NULL
// configuration matches every occurrence of its event type; otherwise its
// configuration is the correlation key it was registered with.
//
// # Read path
//
// Correlation lookups run inside View, which hands a *Tx to a callback and
// always rolls back: the matcher never writes. Tx.ListSubscriptions accepts a
// queryir predicate and compiles it with querysql, so every lookup is
// parameterized and ordered by id COLLATE BINARY ASC.
//
// # Write path
//
// WriteSubscription is idempotent on id and stamps a monotonic seq. It exists
// for fixtures and the scenario harness; subscription lifecycle belongs to the
// owning engine.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
