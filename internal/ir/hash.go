package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed strings.
// The version suffix enables future algorithm migration; changing it
// invalidates every persisted subscription configuration.
const (
	DomainCorrelationKey = "evmatch/correlation-key/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CorrelationKeyHash computes the canonical correlation key for a
// name → value mapping. The result depends only on the mapping's contents,
// never on insertion order.
func CorrelationKeyHash(data IRObject) (string, error) {
	canonical, err := MarshalCanonical(data)
	if err != nil {
		return "", fmt.Errorf("CorrelationKeyHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCorrelationKey, canonical), nil
}

// MustCorrelationKeyHash is like CorrelationKeyHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCorrelationKeyHash(data IRObject) string {
	key, err := CorrelationKeyHash(data)
	if err != nil {
		panic(err)
	}
	return key
}
