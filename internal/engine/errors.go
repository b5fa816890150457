package engine

import (
	"errors"
	"fmt"
)

// InvalidPayloadError reports an envelope whose payload cannot be dispatched.
//
// It is fatal to the dispatch and never retried.
type InvalidPayloadError struct {
	// Code distinguishes a missing payload from one of the wrong type.
	Code InvalidPayloadCode

	// Message is a human-readable description.
	Message string

	// ChannelKey and EventName are copied from the envelope.
	ChannelKey string
	EventName  string
}

// InvalidPayloadCode categorizes invalid payloads.
type InvalidPayloadCode string

const (
	// ErrCodeMissingPayload indicates the envelope carried no payload.
	ErrCodeMissingPayload InvalidPayloadCode = "INVALID_PAYLOAD_MISSING"

	// ErrCodeUnsupportedPayload indicates the payload is not an EventInstance.
	ErrCodeUnsupportedPayload InvalidPayloadCode = "INVALID_PAYLOAD_TYPE"
)

// Error implements the error interface.
func (e *InvalidPayloadError) Error() string {
	if e.ChannelKey != "" {
		return fmt.Sprintf("%s: %s (channel=%s, event=%s)", e.Code, e.Message, e.ChannelKey, e.EventName)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidPayload returns true if the error is an InvalidPayloadError.
// Uses errors.As to handle wrapped errors.
func IsInvalidPayload(err error) bool {
	var pe *InvalidPayloadError
	return errors.As(err, &pe)
}

// newMissingPayloadError creates an InvalidPayloadError for a nil payload.
func newMissingPayloadError(env Envelope) *InvalidPayloadError {
	return &InvalidPayloadError{
		Code:       ErrCodeMissingPayload,
		Message:    "no event object was passed to the consumer",
		ChannelKey: env.ChannelKey,
		EventName:  env.EventName,
	}
}

// newUnsupportedPayloadError creates an InvalidPayloadError naming the
// payload's dynamic type.
func newUnsupportedPayloadError(env Envelope) *InvalidPayloadError {
	return &InvalidPayloadError{
		Code:       ErrCodeUnsupportedPayload,
		Message:    fmt.Sprintf("unsupported event object type: %T", env.Payload),
		ChannelKey: env.ChannelKey,
		EventName:  env.EventName,
	}
}
