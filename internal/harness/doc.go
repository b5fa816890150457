// Package harness runs YAML matching scenarios end to end.
//
// A scenario names a directory of CUE event models, seeds subscriptions into a
// fresh in-memory store and dispatches events through the real engine:
//
//	name: order_correlation
//	description: "orders correlate on orderId and region"
//	models: models
//	subscriptions:
//	  - id: p-both
//	    event_type: orderPlaced
//	    scope_type: bpmn
//	    correlation: { orderId: "42", region: "EU" }
//	events:
//	  - name: order-42
//	    event: orderPlaced
//	    payload: { orderId: "42", region: "EU" }
//	    expect:
//	      matches: { bpmn: [p-both] }
//	      most_specific: 2
//
// Subscription correlation maps are encoded with the same encoder the engine
// uses, so a fixture's configuration is exactly the key an event would
// generate.
//
// Dispatch IDs are "dispatch-1", "dispatch-2", ... in event order, so match
// traces are stable enough for golden comparison.
package harness
