package compiler

import (
	"github.com/roach88/evmatch/internal/ir"
)

// EventModelSpec is a compiled event model definition.
type EventModelSpec struct {
	// Name is the CUE label the model was declared under.
	Name string `json:"name"`

	// Key is the event type matched against subscriptions.
	Key string `json:"key"`

	// TenantID is the tenant the model is deployed to; ir.NoTenantID for the
	// shared tenant.
	TenantID string `json:"tenant_id,omitempty"`

	// Correlation lists payload field names in declared order.
	Correlation []string `json:"correlation"`
}

// Model returns the ir.EventModel this spec describes.
func (s EventModelSpec) Model() ir.EventModel {
	return ir.EventModel{Key: s.Key, TenantID: s.TenantID}
}

// Extract builds an event occurrence from payload.
//
// Parameters are emitted in declared order. Names absent from the payload or
// bound to null are skipped. tenantID is the occurrence's own tenant.
func (s EventModelSpec) Extract(payload ir.IRObject, tenantID string) *ir.EventInstance {
	params := make([]ir.CorrelationParameter, 0, len(s.Correlation))
	for _, name := range s.Correlation {
		v, ok := payload[name]
		if !ok {
			continue
		}
		if _, isNull := v.(ir.IRNull); isNull || v == nil {
			continue
		}
		params = append(params, ir.P(name, v))
	}
	return ir.NewEventInstance(s.Model(), tenantID, params...)
}

// Lookup finds a model by Name, falling back to Key.
func Lookup(models []EventModelSpec, name string) (EventModelSpec, bool) {
	for _, m := range models {
		if m.Name == name {
			return m, true
		}
	}
	for _, m := range models {
		if m.Key == name {
			return m, true
		}
	}
	return EventModelSpec{}, false
}
