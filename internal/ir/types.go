package ir

import "slices"

// NoTenantID is the tenant sentinel: "no tenant / default tenant".
// A model deployed with NoTenantID is visible to every tenant.
const NoTenantID = ""

// EventModel identifies a deployed event definition.
type EventModel struct {
	Key      string `json:"key"`                 // Event type, matched against subscriptions
	TenantID string `json:"tenant_id,omitempty"` // Tenant the model was deployed to
}

// CorrelationParameter is one named value extracted from an event occurrence.
// DefinitionName is unique within one event.
type CorrelationParameter struct {
	DefinitionName string  `json:"definition_name"`
	Value          IRValue `json:"value"`
}

// P is a shorthand constructor for CorrelationParameter.
func P(name string, value IRValue) CorrelationParameter {
	return CorrelationParameter{DefinitionName: name, Value: value}
}

// EventInstance is one occurrence of an external event.
// Immutable once constructed: accessors return copies.
type EventInstance struct {
	model    EventModel
	tenantID string
	params   []CorrelationParameter
}

// NewEventInstance creates an EventInstance. tenantID is the occurrence's own
// tenant, which may differ from model.TenantID when the model was deployed to
// the default tenant.
func NewEventInstance(model EventModel, tenantID string, params ...CorrelationParameter) *EventInstance {
	return &EventInstance{
		model:    model,
		tenantID: tenantID,
		params:   slices.Clone(params),
	}
}

// EventModel returns the model this occurrence instantiates.
func (e *EventInstance) EventModel() EventModel {
	return e.model
}

// TenantID returns the occurrence's own tenant.
func (e *EventInstance) TenantID() string {
	return e.tenantID
}

// CorrelationParameters returns the parameters in extraction order.
func (e *EventInstance) CorrelationParameters() []CorrelationParameter {
	return slices.Clone(e.params)
}

// EventSubscription is a persisted interest in an event type.
// Configuration nil means "matches regardless of correlation"; otherwise it
// holds the correlation key the subscriber was registered with.
type EventSubscription struct {
	ID                string  `json:"id"`
	EventType         string  `json:"event_type"`
	ScopeType         string  `json:"scope_type"`
	ScopeID           string  `json:"scope_id,omitempty"`
	ScopeDefinitionID string  `json:"scope_definition_id,omitempty"`
	TenantID          string  `json:"tenant_id,omitempty"`
	Configuration     *string `json:"configuration,omitempty"`
	Seq               int64   `json:"seq"`
}

// HasConfiguration reports whether the subscription requires correlation.
func (s EventSubscription) HasConfiguration() bool {
	return s.Configuration != nil
}
