// Package notify delivers storage-change notifications between cart
// sessions, the way storage events fan out between browser tabs. Delivery
// is best-effort and at-most-once per write; the contract is
// last-write-visible, not guaranteed delivery.
package notify

import "context"

// Change describes a committed write to the durable cart storage.
type Change struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Publisher announces a committed write to other sessions.
type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

// Subscription receives changes committed by other sessions. The channel
// is closed when the subscription is cancelled.
type Subscription interface {
	Changes() <-chan Change
	Close()
}
