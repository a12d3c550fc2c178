package channel

import (
	"context"
	"errors"
	"sync"
)

// ErrNotConnected is returned when publishing or subscribing on a client
// that has not connected or has been closed.
var ErrNotConnected = errors.New("channel: not connected")

// Broker is an in-process message broker with relay semantics: a frame
// published by one client is delivered to every other client subscribed to
// the topic, never back to the publisher. Delivery is synchronous and in
// publish order, matching the single-channel ordering guarantee.
type Broker struct {
	mu   sync.Mutex
	subs map[string][]*memSub
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string][]*memSub)}
}

// Client creates a new client attached to this broker.
func (b *Broker) Client() *MemoryClient {
	return &MemoryClient{broker: b}
}

func (b *Broker) publish(from *MemoryClient, topic string, data []byte) {
	b.mu.Lock()
	targets := make([]*memSub, 0, len(b.subs[topic]))
	for _, sub := range b.subs[topic] {
		if sub.owner != from {
			targets = append(targets, sub)
		}
	}
	b.mu.Unlock()

	// Handlers run outside the broker lock so they can publish in turn.
	for _, sub := range targets {
		sub.handler(Message{Topic: topic, Data: data})
	}
}

func (b *Broker) subscribe(owner *MemoryClient, topic string, h Handler) *memSub {
	sub := &memSub{broker: b, owner: owner, topic: topic, handler: h}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	return sub
}

func (b *Broker) unsubscribe(sub *memSub) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[sub.topic]
	for i, s := range list {
		if s == sub {
			b.subs[sub.topic] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

type memSub struct {
	broker  *Broker
	owner   *MemoryClient
	topic   string
	handler Handler
	once    sync.Once
}

func (s *memSub) Unsubscribe() {
	s.once.Do(func() {
		s.broker.unsubscribe(s)
	})
}

// MemoryClient is an in-process Client implementation used by tests and by
// single-process deployments where peers share a broker.
type MemoryClient struct {
	broker *Broker

	mu        sync.Mutex
	connected bool
	subs      []*memSub
}

var _ Client = (*MemoryClient)(nil)

// Connect marks the client connected. It never fails for a live broker.
func (c *MemoryClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	return nil
}

// Close drops every subscription owned by this client and disconnects.
func (c *MemoryClient) Close() error {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.connected = false
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	return nil
}

// Publish delivers a frame to every other subscriber of the topic.
func (c *MemoryClient) Publish(topic string, data []byte) error {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		return ErrNotConnected
	}

	c.broker.publish(c, topic, data)
	return nil
}

// Subscribe registers a handler for a topic.
func (c *MemoryClient) Subscribe(topic string, h Handler) (Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, ErrNotConnected
	}

	sub := c.broker.subscribe(c, topic, h)
	c.subs = append(c.subs, sub)
	return sub, nil
}
