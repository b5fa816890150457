package queryir

import (
	"fmt"
	"regexp"

	"github.com/roach88/evmatch/internal/ir"
)

// identifierPattern is the only shape allowed for interpolated names.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationResult reports problems found in a query.
type ValidationResult struct {
	// IsValid is true when the query can be compiled safely.
	IsValid bool

	// Errors lists every problem found (not fail-fast).
	Errors []string
}

// Err returns the first error as an error value, or nil.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return fmt.Errorf("invalid query: %s", r.Errors[0])
}

// Validate checks a query before it reaches a backend.
//
// Rules:
//  1. Table and field names must be plain identifiers
//  2. Select must list its columns explicitly
//  3. Equals/In values must be non-null scalars
//  4. Or must have at least one branch
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{errors: []string{}}
	v.validateQuery(query)

	return ValidationResult{
		IsValid: len(v.errors) == 0,
		Errors:  v.errors,
	}
}

// ValidatePredicate checks a standalone filter. See Validate.
func ValidatePredicate(p Predicate) ValidationResult {
	v := &validator{errors: []string{}}
	v.validatePredicate(p)

	return ValidationResult{
		IsValid: len(v.errors) == 0,
		Errors:  v.errors,
	}
}

type validator struct {
	errors []string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) checkIdentifier(kind, name string) {
	if !identifierPattern.MatchString(name) {
		v.addError("%s %q is not a valid identifier", kind, name)
	}
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addError("nil query")
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addError("nil query")
			return
		}
		v.validateSelect(*query)
	default:
		v.addError("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	v.checkIdentifier("table", sel.From)

	if len(sel.Columns) == 0 {
		v.addError("select from %q has no columns - explicit column list required", sel.From)
	}
	for _, col := range sel.Columns {
		v.checkIdentifier("column", col)
	}

	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		// nil filter = no filter
	case Equals:
		v.checkIdentifier("field", pred.Field)
		v.checkScalar(pred.Field, pred.Value)
	case IsNull:
		v.checkIdentifier("field", pred.Field)
	case In:
		v.checkIdentifier("field", pred.Field)
		for _, val := range pred.Values {
			v.checkScalar(pred.Field, val)
		}
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Or:
		if len(pred.Predicates) == 0 {
			v.addError("empty Or - at least one branch required")
		}
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addError("unknown predicate type: %T", p)
	}
}

func (v *validator) checkScalar(field string, val ir.IRValue) {
	switch val.(type) {
	case ir.IRString, ir.IRInt, ir.IRBool:
	case ir.IRNull, nil:
		v.addError("field %q compared to NULL - use IsNull", field)
	default:
		v.addError("field %q compared to non-scalar %T", field, val)
	}
}
