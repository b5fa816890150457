// Package ir provides the canonical value and record types shared by every
// evmatch package.
//
// ir imports nothing internal. All other internal packages import ir, which
// keeps it the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere - correlation values must encode deterministically
//   - Correlation keys are derived ONLY through MarshalCanonical + CorrelationKeyHash
//   - The tenant sentinel is NoTenantID (the empty string)
//   - All JSON tags use snake_case
package ir
