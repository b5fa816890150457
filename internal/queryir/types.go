package queryir

import "github.com/roach88/evmatch/internal/ir"

// Query represents an abstract query.
//
// Sealed: only Select implements it today.
type Query interface {
	queryNode()
}

// Predicate represents a filter condition.
//
// Sealed: Equals, IsNull, In, And and Or.
type Predicate interface {
	predicateNode()
}

// Select is single-table access with an explicit column list.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter>
//
// Columns are returned in the listed order so that backends can scan rows
// positionally.
type Select struct {
	From    string    // Table name
	Columns []string  // Explicit column list, in scan order
	Filter  Predicate // WHERE conditions (nil = no filter)
}

func (Select) queryNode() {}

// Equals matches a field against a literal scalar.
//
//	Equals{Field: "event_type", Value: ir.IRString("orderPlaced")}
//
// translates to
//
//	event_type = ?
//
// NULL never equals anything; use IsNull.
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// IsNull matches rows whose field is NULL.
//
//	IsNull{Field: "configuration"}  →  configuration IS NULL
type IsNull struct {
	Field string
}

func (IsNull) predicateNode() {}

// In matches a field against a set of literal scalars.
//
//	In{Field: "configuration", Values: [...]}  →  configuration IN (?, ?, ?)
//
// An empty Values set matches nothing.
type In struct {
	Field  string
	Values []ir.IRValue
}

func (In) predicateNode() {}

// And is a conjunction. Empty Predicates is vacuously true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction. Empty Predicates is vacuously false.
//
//	Or{Predicates: []Predicate{
//	  IsNull{Field: "configuration"},
//	  In{Field: "configuration", Values: keys},
//	}}
//
// translates to
//
//	(configuration IS NULL OR configuration IN (?, ?))
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}
