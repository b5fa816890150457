package engine

import (
	"slices"

	"github.com/roach88/evmatch/internal/ir"
)

// CorrelationKey is one candidate correlation identity.
//
// Value is the encoder's output for the mapping built from Parameters.
// Parameters is a contiguous run of the event's parameter list, in order.
type CorrelationKey struct {
	Value      string
	Parameters []ir.CorrelationParameter
}

// Specificity is the number of parameters backing the key.
func (k CorrelationKey) Specificity() int {
	return len(k.Parameters)
}

// KeySet is a set of correlation keys identified by Value.
//
// The zero value is an empty set ready to use. Adding a key whose Value is
// already present keeps the key that was added first.
type KeySet struct {
	keys  map[string]CorrelationKey
	order []string
}

// Add inserts k. Returns false if a key with the same Value was already
// present; the existing key is kept.
func (s *KeySet) Add(k CorrelationKey) bool {
	if s.keys == nil {
		s.keys = make(map[string]CorrelationKey)
	}
	if _, ok := s.keys[k.Value]; ok {
		return false
	}
	s.keys[k.Value] = k
	s.order = append(s.order, k.Value)
	return true
}

// Len returns the number of distinct keys.
func (s KeySet) Len() int {
	return len(s.keys)
}

// Get returns the key with the given value.
func (s KeySet) Get(value string) (CorrelationKey, bool) {
	k, ok := s.keys[value]
	return k, ok
}

// Values returns the key strings sorted ascending.
func (s KeySet) Values() []string {
	values := slices.Clone(s.order)
	slices.Sort(values)
	return values
}

// Keys returns the keys in insertion order.
func (s KeySet) Keys() []CorrelationKey {
	keys := make([]CorrelationKey, 0, len(s.order))
	for _, v := range s.order {
		keys = append(keys, s.keys[v])
	}
	return keys
}

// GenerateCorrelationKeys returns the candidate keys for params.
//
// For n parameters it encodes every contiguous window params[j:j+i] for
// i in 1..n, shortest windows first: n(n+1)/2 encodings in total. Windows
// that encode to the same string collapse into one key. An empty params
// yields an empty set.
//
// Encoder errors are returned unmodified; no partial set is returned.
func GenerateCorrelationKeys(enc Encoder, params []ir.CorrelationParameter) (KeySet, error) {
	var keys KeySet

	n := len(params)
	for size := 1; size <= n; size++ {
		for start := 0; start+size <= n; start++ {
			key, err := encodeWindow(enc, params[start:start+size])
			if err != nil {
				return KeySet{}, err
			}
			keys.Add(key)
		}
	}

	return keys, nil
}

// encodeWindow encodes one run of parameters. The key keeps its own copy of
// the window.
func encodeWindow(enc Encoder, window []ir.CorrelationParameter) (CorrelationKey, error) {
	mapping := make(map[string]ir.IRValue, len(window))
	for _, p := range window {
		mapping[p.DefinitionName] = p.Value
	}

	value, err := enc.Encode(mapping)
	if err != nil {
		return CorrelationKey{}, err
	}

	return CorrelationKey{
		Value:      value,
		Parameters: slices.Clone(window),
	}, nil
}

// MostSpecific returns a key with the largest Specificity in keys.
//
// When several keys share the largest Specificity, the one with the
// lexicographically smallest Value is returned. Callers must not rely on
// which of the tied keys they get. Returns false for an empty set.
func MostSpecific(keys KeySet) (CorrelationKey, bool) {
	var best CorrelationKey
	found := false

	for _, k := range keys.Keys() {
		switch {
		case !found:
			best, found = k, true
		case k.Specificity() > best.Specificity():
			best = k
		case k.Specificity() == best.Specificity() && k.Value < best.Value:
			best = k
		}
	}

	return best, found
}
