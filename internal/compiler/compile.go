package compiler

import (
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileEventModel parses a CUE value into an EventModelSpec.
//
// The CUE value should be the model struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`event: orderPlaced: { correlation: ["orderId"] }`)
//	spec, err := CompileEventModel(v.LookupPath(cue.ParsePath("event.orderPlaced")))
func CompileEventModel(v cue.Value) (*EventModelSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, &CompileError{
			Field:   "event",
			Message: "event model must be a struct",
			Pos:     v.Pos(),
		}
	}

	spec := &EventModelSpec{}

	// Name from struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	// Key defaults to the label
	spec.Key = spec.Name
	if keyVal := v.LookupPath(cue.ParsePath("key")); keyVal.Exists() {
		key, err := keyVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Key = key
	}

	// Tenant (optional)
	if tenantVal := v.LookupPath(cue.ParsePath("tenant_id")); tenantVal.Exists() {
		tenant, err := tenantVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.TenantID = tenant
	}

	correlation, err := parseCorrelation(v)
	if err != nil {
		return nil, err
	}
	spec.Correlation = correlation

	return spec, nil
}

// CompileEventModels compiles every model under the top-level "event" field.
// Models are returned sorted by Name. Stops at the first error.
func CompileEventModels(root cue.Value) ([]EventModelSpec, error) {
	eventsVal := root.LookupPath(cue.ParsePath("event"))
	if !eventsVal.Exists() {
		return nil, &CompileError{
			Field:   "event",
			Message: "no event models defined",
			Pos:     root.Pos(),
		}
	}

	iter, err := eventsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var models []EventModelSpec
	for iter.Next() {
		spec, err := CompileEventModel(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("event.%s: %w", iter.Label(), err)
		}
		models = append(models, *spec)
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].Name < models[j].Name
	})
	return models, nil
}

// parseCorrelation extracts the ordered correlation field list.
// A missing list means the event is never correlated.
func parseCorrelation(v cue.Value) ([]string, error) {
	names := []string{}

	corrVal := v.LookupPath(cue.ParsePath("correlation"))
	if !corrVal.Exists() {
		return names, nil
	}

	iter, err := corrVal.List()
	if err != nil {
		return nil, &CompileError{
			Field:   "correlation",
			Message: "correlation must be a list of field names",
			Pos:     corrVal.Pos(),
		}
	}

	for i := 0; iter.Next(); i++ {
		name, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("correlation[%d]", i),
				Message: "correlation entries must be strings",
				Pos:     iter.Value().Pos(),
			}
		}
		names = append(names, name)
	}

	return names, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
