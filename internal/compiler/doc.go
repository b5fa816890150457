// Package compiler turns CUE event model definitions into EventModelSpecs.
//
// An event model names an event type and the payload fields that carry its
// correlation parameters:
//
//	event: orderPlaced: {
//		key:         "orderPlaced" // optional, defaults to the label
//		tenant_id:   "tenantA"     // optional, defaults to the shared tenant
//		correlation: ["orderId", "region"]
//	}
//
// The order of the correlation list is significant: it is the order in which
// Extract emits parameters, and candidate correlation keys are built from
// contiguous runs of that list.
//
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
package compiler
