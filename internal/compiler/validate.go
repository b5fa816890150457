package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/evmatch/internal/ir"
)

// Validation error codes (E200-E206)
const (
	// General validation errors (E200)
	ErrUnsupportedType = "E200" // unsupported value for validation

	// EventModelSpec errors (E201-E205)
	ErrModelKeyEmpty        = "E201" // key is required
	ErrInvalidModelKey      = "E202" // key must not contain whitespace
	ErrParameterNameEmpty   = "E203" // correlation entry is empty
	ErrInvalidParameterName = "E204" // correlation entry is not identifier-shaped
	ErrDuplicateParameter   = "E205" // correlation entry listed twice

	// Model set errors (E206)
	ErrDuplicateModelKey = "E206" // two models share (key, tenant)
)

// parameterNamePattern matches identifier-shaped payload field names.
var parameterNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled event models.
// Returns all errors found (does not fail-fast).
// Supports EventModelSpec, *EventModelSpec and []EventModelSpec.
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *EventModelSpec:
		return validateEventModel(spec, "event."+spec.Name)
	case EventModelSpec:
		return validateEventModel(&spec, "event."+spec.Name)
	case []EventModelSpec:
		return validateEventModels(spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

// validateEventModel validates one model. prefix locates its fields.
func validateEventModel(spec *EventModelSpec, prefix string) []ValidationError {
	var errs []ValidationError

	// E201: key is required
	if strings.TrimSpace(spec.Key) == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".key",
			Message: "key is required and must be non-empty",
			Code:    ErrModelKeyEmpty,
		})
	} else if strings.ContainsAny(spec.Key, " \t\r\n") {
		// E202
		errs = append(errs, ValidationError{
			Field:   prefix + ".key",
			Message: fmt.Sprintf("key %q must not contain whitespace", spec.Key),
			Code:    ErrInvalidModelKey,
		})
	}

	seen := make(map[string]bool, len(spec.Correlation))
	for i, name := range spec.Correlation {
		field := fmt.Sprintf("%s.correlation[%d]", prefix, i)

		switch {
		case name == "":
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "correlation field name is empty",
				Code:    ErrParameterNameEmpty,
			})
		case !parameterNamePattern.MatchString(name):
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("correlation field %q is not a valid identifier", name),
				Code:    ErrInvalidParameterName,
			})
		case seen[name]:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate correlation field: %q", name),
				Code:    ErrDuplicateParameter,
			})
		}
		seen[name] = true
	}

	return errs
}

// validateEventModels validates each model and the set as a whole.
func validateEventModels(specs []EventModelSpec) []ValidationError {
	var errs []ValidationError

	owners := make(map[ir.EventModel]string, len(specs))
	for i := range specs {
		spec := &specs[i]
		prefix := "event." + spec.Name
		errs = append(errs, validateEventModel(spec, prefix)...)

		// E206: (key, tenant) identifies a deployed model
		model := spec.Model()
		if owner, dup := owners[model]; dup {
			errs = append(errs, ValidationError{
				Field:   prefix + ".key",
				Message: fmt.Sprintf("key %q (tenant %q) already defined by event.%s", model.Key, model.TenantID, owner),
				Code:    ErrDuplicateModelKey,
			})
			continue
		}
		owners[model] = spec.Name
	}

	return errs
}
