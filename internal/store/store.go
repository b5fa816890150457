package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// pragma is a connection setting applied on Open. value is what
// PRAGMA <name> reports back once applied.
type pragma struct {
	name  string
	set   string
	value string
}

var pragmas = []pragma{
	{name: "journal_mode", set: "WAL", value: "wal"},
	{name: "synchronous", set: "NORMAL", value: "1"},
	{name: "busy_timeout", set: "5000", value: "5000"},
	{name: "foreign_keys", set: "ON", value: "1"},
}

// migration upgrades a database to version. Statements must be idempotent;
// a database built from schema.sql runs them all once.
type migration struct {
	version int
	stmt    string
}

var migrations = []migration{
	// Every lookup filters on event_type and scope_type, and on tenant_id
	// for tenant-scoped models.
	{version: 1, stmt: `CREATE INDEX IF NOT EXISTS idx_event_subscriptions_lookup
		ON event_subscriptions(event_type, scope_type, tenant_id)`},
}

// schemaVersion is the user_version of a fully migrated database.
func schemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Store persists event subscriptions in SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the subscription database at path and brings its
// schema up to date. Safe to call repeatedly on the same file.
//
// A single connection is kept open: SQLite allows one writer, and a
// ":memory:" database only lives as long as its connection.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open subscription store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initialize(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open subscription store %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

func initialize(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	for _, p := range pragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.set)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return migrate(db)
}

// migrate runs every migration newer than the stored user_version.
func migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("set user_version %d: %w", m.version, err)
		}
		current = m.version
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// verifyPragma checks that PRAGMA name reports expected.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
