// Package bus is the cross-session broadcast channel. A mutation by one
// session is announced to sibling sessions so they can refresh without
// waiting for their own poll interval. Every message carries the sender's ID;
// receivers drop their own messages to prevent loops.
package bus

import (
	"context"
	"encoding/json"
	"sync"
)

// MessageType tags what a broadcast announces.
type MessageType string

const (
	TypeRefresh      MessageType = "refresh"
	TypeNewRequest   MessageType = "newRequest"
	TypeStatusUpdate MessageType = "statusUpdate"
)

// Message is the wire unit on the channel.
type Message struct {
	Type     MessageType     `json:"type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	SenderID string          `json:"senderId"`
}

// Handler receives broadcast messages. Called from the bus's delivery
// goroutine; keep it fast and non-blocking.
type Handler func(Message)

// Bus is the abstract pub/sub channel. Implementations decide the transport;
// the contract is identical whether it is in-process or networked.
type Bus interface {
	Publish(ctx context.Context, msg Message) error
	// Subscribe registers a handler and returns an unsubscribe function.
	Subscribe(ctx context.Context, handler Handler) (func(), error)
}

// InMemoryBus delivers to subscribers within one process. Sessions in the
// same process (tests, the terminal binary's tabs) share one instance.
type InMemoryBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[int]Handler)}
}

func (b *InMemoryBus) Publish(_ context.Context, msg Message) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(msg)
	}
	return nil
}

func (b *InMemoryBus) Subscribe(_ context.Context, handler Handler) (func(), error) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}, nil
}
