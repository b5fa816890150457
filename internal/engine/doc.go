// Package engine implements event correlation matching.
//
// Given one occurrence of an external event, the engine decides which
// registered subscriptions are interested in it. Matching is partial: an
// occurrence with parameters [orderId, region] is offered to subscriptions
// registered on orderId alone, on region alone, and on both.
//
// Dispatch Flow:
// 1. Registry.Dispatch (or Consumer.EventReceived) validates the envelope
// 2. The payload is forwarded once to each scope handler
// 3. The handler generates candidate correlation keys
// 4. FindSubscriptions runs one lookup inside the caller's UnitOfWork
// 5. MostSpecific picks the key backed by the most parameters
// 6. A Match is handed to the handler's Trigger
//
// CRITICAL PATTERNS:
//
// Contiguous windows:
// Candidate keys are the n(n+1)/2 contiguous runs of the parameter list,
// never the power set. Stored subscription configurations were produced by
// this enumeration and must keep matching.
//
// Model tenant:
// The tenant filter uses the event MODEL's tenant. A model deployed to the
// default tenant (ir.NoTenantID) is visible to subscriptions of every tenant.
//
// No local recovery:
// Encoder, store and handler errors reach the caller unmodified; the
// dispatch ID and scope type are logged instead of wrapped in. A dispatch
// either generates and queries the full candidate set or fails.
package engine
