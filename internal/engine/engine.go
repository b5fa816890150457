package engine

import (
	"log/slog"

	"github.com/roach88/evmatch/internal/ir"
)

// DispatchIDGenerator generates unique dispatch IDs.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type DispatchIDGenerator interface {
	Generate() string
}

// Engine holds the collaborators shared by every dispatch.
//
// Thread-safety: an Engine is read-only after New and safe for concurrent
// use. Each call to GenerateCorrelationKeys or FindSubscriptions is
// self-contained.
type Engine struct {
	encoder Encoder
	uow     UnitOfWork
	logger  *slog.Logger
	idGen   DispatchIDGenerator
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDispatchIDGenerator sets the dispatch ID source.
// Default: UUIDv7Generator.
func WithDispatchIDGenerator(gen DispatchIDGenerator) EngineOption {
	return func(e *Engine) {
		if gen != nil {
			e.idGen = gen
		}
	}
}

// New creates an Engine that encodes keys with enc and runs subscription
// lookups inside uow.
//
// The encoder is resolved here once and held directly; it is never looked up
// per call. Panics if enc or uow is nil.
func New(enc Encoder, uow UnitOfWork, opts ...EngineOption) *Engine {
	if enc == nil {
		panic("engine.New: encoder is required")
	}
	if uow == nil {
		panic("engine.New: unit of work is required")
	}

	e := &Engine{
		encoder: enc,
		uow:     uow,
		logger:  slog.Default(),
		idGen:   UUIDv7Generator{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Encoder returns the encoder the engine was built with.
func (e *Engine) Encoder() Encoder {
	return e.encoder
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// NewDispatchID returns a fresh dispatch ID.
func (e *Engine) NewDispatchID() string {
	return e.idGen.Generate()
}

// GenerateCorrelationKeys builds the candidate key set for params using the
// engine's encoder. See GenerateCorrelationKeys.
func (e *Engine) GenerateCorrelationKeys(params []ir.CorrelationParameter) (KeySet, error) {
	keys, err := GenerateCorrelationKeys(e.encoder, params)
	if err != nil {
		return KeySet{}, err
	}

	e.logger.Debug("correlation keys generated",
		"parameters", len(params),
		"keys", keys.Len(),
	)
	return keys, nil
}
