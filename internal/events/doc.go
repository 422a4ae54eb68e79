// Package events defines the closed set of domain events describing committed
// question mutations, and the publisher that delivers them to the message
// channel consumed by the search index and other subscribers.
//
// Events are facts about already-committed state, never speculative. Delivery
// is at-least-once: a consumer must treat repeated deliveries of the same
// event as idempotent, and must use the event's own timestamp rather than
// arrival order to resolve conflicting updates, because publish calls issued
// concurrently from different requests are not ordered.
package events
