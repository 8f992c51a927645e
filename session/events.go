package session

import (
	"context"
	"errors"
	"sync"

	"github.com/sagentic-ai/sagentic-af/ledger"
)

// EventType names the kind of event a Session publishes.
type EventType string

const (
	EventAgentStart    EventType = "agent-start"
	EventAgentStop     EventType = "agent-stop"
	EventAgentStopping EventType = "agent-stopping"
	EventAgentStep     EventType = "agent-step"
	EventLedgerEntry   EventType = "ledger-entry"
	EventHeartbeat     EventType = "heartbeat"
)

// Event is one notification published by a Session.
type Event struct {
	Type    EventType
	AgentID string
	Entry   *ledger.Entry // set only for EventLedgerEntry
}

// Subscriber reacts to published Session events.
type Subscriber interface {
	HandleEvent(ctx context.Context, event Event) error
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(ctx context.Context, event Event) error

func (f SubscriberFunc) HandleEvent(ctx context.Context, event Event) error { return f(ctx, event) }

// Subscription represents an active registration on a Bus.
type Subscription interface {
	Close() error
}

// Bus fans events out to subscribers, synchronously, stopping at the first
// subscriber error. Publish never blocks on I/O performed by subscribers
// beyond what the subscriber itself does, and is safe for concurrent use
// with Register/Close.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[*subscription]Subscriber
}

// NewBus constructs an empty, ready-to-use Bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[*subscription]Subscriber)}
}

// Publish delivers event to every subscriber registered at the moment of
// the call, stopping at the first error. Subscribers are held in a map, so
// the delivery order is not defined.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.HandleEvent(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Register adds sub to the bus, returning a Subscription that can be closed
// to unregister it.
func (b *Bus) Register(sub Subscriber) (Subscription, error) {
	if sub == nil {
		return nil, errors.New("session: subscriber is required")
	}
	s := &subscription{bus: b}
	b.mu.Lock()
	b.subscribers[s] = sub
	b.mu.Unlock()
	return s, nil
}

type subscription struct {
	bus  *Bus
	once sync.Once
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subscribers, s)
		s.bus.mu.Unlock()
	})
	return nil
}
