package channel

import "context"

// Message is one frame delivered to a topic subscriber.
type Message struct {
	Topic string
	Data  []byte
}

// Handler consumes messages for one subscription. Handlers on a single
// client are invoked sequentially in arrival order.
type Handler func(msg Message)

// Subscription is a live topic registration. Unsubscribe is idempotent and
// must be called before the owning component tears down; a handler firing
// after teardown is a defect.
type Subscription interface {
	Unsubscribe()
}

// Client is the event channel boundary: a persistent bidirectional
// connection with topic-keyed publish/subscribe. Reconnect, heartbeat, and
// retry policy live behind this interface, not in the sync core.
type Client interface {
	Connect(ctx context.Context) error
	Close() error
	Publish(topic string, data []byte) error
	Subscribe(topic string, h Handler) (Subscription, error)
}

// Publisher is the outbound-only slice of Client used by the diff
// synchronizer.
type Publisher interface {
	Publish(topic string, data []byte) error
}
