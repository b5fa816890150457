// Package queryir provides the abstract query representation used to look up
// event subscriptions.
//
// QueryIR is the abstraction boundary between the matcher, which decides WHAT
// to look for, and the storage backend, which decides HOW. The matcher builds
// predicates; a backend (querysql for SQLite) compiles them.
//
//	[engine.SubscriptionQuery] → [Query IR] → [SQL backend]
//
// FRAGMENT:
//
//   - Select(from, columns, filter) - single-table access, explicit columns
//   - Predicates: Equals, IsNull, In, And, Or
//
// Correlation lookups need OR and NULL: a subscription with a NULL
// configuration matches every occurrence, so "configuration IS NULL OR
// configuration IN (...)" is the core filter.
//
// SEALED INTERFACES:
//
// Query and Predicate use the marker method pattern; only types in this
// package implement them, so backends can switch exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	case IsNull:
//	case In:
//	case And:
//	case Or:
//	}
//
// Backends interpolate table and field names, so Validate rejects anything that
// is not a plain identifier. Values are always parameters.
package queryir
