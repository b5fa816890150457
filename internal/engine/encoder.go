package engine

import (
	"github.com/roach88/evmatch/internal/ir"
)

// Encoder maps a name→value mapping to an opaque canonical string.
//
// Implementations must be deterministic and independent of map iteration
// order: the same mapping always yields the same string.
type Encoder interface {
	Encode(params map[string]ir.IRValue) (string, error)
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(params map[string]ir.IRValue) (string, error)

// Encode calls f(params).
func (f EncoderFunc) Encode(params map[string]ir.IRValue) (string, error) {
	return f(params)
}

// CanonicalEncoder encodes a mapping as RFC 8785 canonical JSON and hashes
// it with SHA-256 under the correlation-key domain.
//
// Floats and nulls are rejected by the canonical form.
type CanonicalEncoder struct{}

// Encode returns the hex-encoded correlation key hash of params.
func (CanonicalEncoder) Encode(params map[string]ir.IRValue) (string, error) {
	return ir.CorrelationKeyHash(ir.IRObject(params))
}
