// Package events carries the push messages a real payment backend would
// deliver over a websocket. With no backend in scope, delivery is an
// in-process fan-out consumed by the UI adapter (e.g. as server-sent events).
package events

import (
	"context"
	"sync"
)

// MessageType defines the type of a push message.
type MessageType string

const (
	// MessageTypeBalanceUpdate is for messages that update account balances.
	MessageTypeBalanceUpdate MessageType = "balanceUpdate"
	// MessageTypeSessionExpired is for forced-logout notifications.
	MessageTypeSessionExpired MessageType = "sessionExpired"
)

// Message represents a generic push message.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// SessionExpiredPayload is the payload for a sessionExpired message.
type SessionExpiredPayload struct {
	Reason string `json:"reason"`
}

// Publisher defines the interface for publishing messages to subscribers.
type Publisher interface {
	Publish(ctx context.Context, message Message) error
}

// Listener receives published messages.
type Listener func(Message)

// Broadcaster is the in-process implementation of Publisher. Listeners are
// invoked synchronously on the publisher's goroutine, in subscription order.
type Broadcaster struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[int]Listener)}
}

// Subscribe registers a listener and returns its unsubscribe function.
// Unsubscribing is idempotent.
func (b *Broadcaster) Subscribe(fn Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Publish sends a message to all current subscribers. The listener snapshot
// is taken under the lock; delivery happens outside it so a listener may
// unsubscribe itself.
func (b *Broadcaster) Publish(ctx context.Context, message Message) error {
	b.mu.Lock()
	snapshot := make([]Listener, 0, len(b.listeners))
	for _, fn := range b.listeners {
		snapshot = append(snapshot, fn)
	}
	b.mu.Unlock()

	for _, fn := range snapshot {
		fn(message)
	}
	return nil
}

// NoOpPublisher is a mock publisher that does nothing.
type NoOpPublisher struct{}

// Publish does nothing.
func (p *NoOpPublisher) Publish(ctx context.Context, message Message) error {
	return nil
}
