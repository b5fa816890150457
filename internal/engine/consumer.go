package engine

import (
	"context"
	"log/slog"
	"reflect"
)

// Envelope carries one inbound event payload plus routing metadata.
// ChannelKey and EventName are passed through untouched.
type Envelope struct {
	Payload        any
	ChannelKey     string
	EventName      string
	ProcessingData map[string]any
}

// AddProcessingData records a value on the envelope for downstream handlers.
func (e *Envelope) AddProcessingData(key string, value any) {
	if e.ProcessingData == nil {
		e.ProcessingData = make(map[string]any)
	}
	e.ProcessingData[key] = value
}

// ScopeHandler handles validated events for one scope type.
type ScopeHandler interface {
	ScopeType() string
	HandleEvent(ctx context.Context, event EventInstance) error
}

// Consumer validates envelopes and forwards their events to one handler.
type Consumer struct {
	handler ScopeHandler
	logger  *slog.Logger
}

// NewConsumer creates a Consumer for handler. A nil logger uses
// slog.Default().
func NewConsumer(handler ScopeHandler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{handler: handler, logger: logger}
}

// EventReceived validates env and forwards its event exactly once.
// Returns *InvalidPayloadError without calling the handler when the payload
// is missing or not an EventInstance.
func (c *Consumer) EventReceived(ctx context.Context, env Envelope) error {
	event, err := ValidateEnvelope(env)
	if err != nil {
		c.logger.WarnContext(ctx, "invalid event payload",
			"channel", env.ChannelKey,
			"event", env.EventName,
			"error", err,
		)
		return err
	}

	return c.handler.HandleEvent(ctx, event)
}

// ValidateEnvelope returns the envelope's payload as an EventInstance.
func ValidateEnvelope(env Envelope) (EventInstance, error) {
	if isNilPayload(env.Payload) {
		return nil, newMissingPayloadError(env)
	}

	event, ok := env.Payload.(EventInstance)
	if !ok {
		return nil, newUnsupportedPayloadError(env)
	}
	return event, nil
}

// isNilPayload reports nil and typed-nil payloads such as (*ir.EventInstance)(nil).
func isNilPayload(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
