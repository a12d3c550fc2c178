package wschannel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/loomworks/agentboard/internal/channel"
	"github.com/loomworks/agentboard/internal/infrastructure/config"
	"github.com/loomworks/agentboard/internal/infrastructure/logging"
	"github.com/loomworks/agentboard/internal/infrastructure/monitoring"
	"github.com/loomworks/agentboard/internal/infrastructure/resilience"
)

// Options configures the websocket channel client.
type Options struct {
	RelayURL  string
	TicketURL string
	AuthToken string

	HandshakeTimeout time.Duration
	ReconnectWaitMin time.Duration
	ReconnectWaitMax time.Duration
}

// FromConfig derives client options from the sync configuration.
func FromConfig(cfg config.SyncConfig) Options {
	return Options{
		RelayURL:  cfg.RelayURL,
		TicketURL: cfg.TicketURL,
		AuthToken: cfg.AuthToken,
	}
}

func (o *Options) withDefaults() {
	if o.HandshakeTimeout == 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.ReconnectWaitMin == 0 {
		o.ReconnectWaitMin = 1 * time.Second
	}
	if o.ReconnectWaitMax == 0 {
		o.ReconnectWaitMax = 30 * time.Second
	}
}

// Client is a channel.Client backed by one websocket connection to the
// relay. A single read loop delivers inbound frames to topic handlers in
// arrival order. On a broken connection the loop redials with backoff and
// replays every active subscription, so handlers survive reconnects.
type Client struct {
	opts    Options
	logger  *logging.Logger
	metrics *monitoring.Metrics
	breaker *resilience.Breaker

	mu       sync.Mutex
	conn     *websocket.Conn
	closed   bool
	nextID   int
	handlers map[string]map[int]channel.Handler

	writeMu sync.Mutex
	done    chan struct{}
}

// New creates a websocket channel client. Call Connect before use.
func New(opts Options, logger *logging.Logger) *Client {
	opts.withDefaults()
	log := logger.Named("wschannel")

	return &Client{
		opts:   opts,
		logger: log,
		breaker: resilience.New("relay-dial", resilience.Settings{
			Timeout: opts.ReconnectWaitMax,
			ReadyToTrip: func(c resilience.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to resilience.State) {
				log.Info("dial breaker state changed",
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}),
		handlers: make(map[string]map[int]channel.Handler),
	}
}

// WithMetrics adds frame and connection accounting.
func (c *Client) WithMetrics(m *monitoring.Metrics) *Client {
	c.metrics = m
	return c
}

// Connect performs the ticket handshake, dials the relay, and starts the
// read loop. Connect on a connected client is a no-op; Connect after Close
// opens a fresh connection.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}
	if c.done != nil {
		select {
		case <-c.done:
		default:
			return fmt.Errorf("wschannel: previous connection still shutting down")
		}
	}

	conn, err := c.dialGuarded(ctx)
	if err != nil {
		return err
	}
	c.conn = conn
	c.closed = false
	c.done = make(chan struct{})

	if c.metrics != nil {
		c.metrics.RelayConnections.Inc()
	}
	go c.readLoop(conn, c.done)

	c.logger.Info("connected to relay", zap.String("url", c.opts.RelayURL))
	return nil
}

// Close tears the connection down and releases every handler. The client
// can be connected again afterwards; topics must then be re-subscribed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	done := c.done
	c.conn = nil
	c.handlers = make(map[string]map[int]channel.Handler)
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	if c.metrics != nil {
		c.metrics.RelayConnections.Dec()
	}
	err := conn.Close()
	if done != nil {
		// Wait for the read loop to observe the close so a subsequent
		// Connect cannot race a dying loop.
		<-done
	}
	return err
}

// Publish sends one payload to a topic.
func (c *Client) Publish(topic string, data []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return channel.ErrNotConnected
	}

	if err := c.writeFrame(conn, channel.Frame{Op: channel.OpPublish, Topic: topic, Data: data}); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	if c.metrics != nil {
		c.metrics.RelayFrames.WithLabelValues(topic, "outbound").Inc()
	}
	return nil
}

// Subscribe registers a handler for a topic. The relay is told about the
// topic on the first handler only; further handlers share the stream.
func (c *Client) Subscribe(topic string, h channel.Handler) (channel.Subscription, error) {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil, channel.ErrNotConnected
	}

	first := len(c.handlers[topic]) == 0
	if c.handlers[topic] == nil {
		c.handlers[topic] = make(map[int]channel.Handler)
	}
	c.nextID++
	id := c.nextID
	c.handlers[topic][id] = h
	c.mu.Unlock()

	if first {
		if err := c.writeFrame(conn, channel.Frame{Op: channel.OpSubscribe, Topic: topic}); err != nil {
			c.mu.Lock()
			delete(c.handlers[topic], id)
			c.mu.Unlock()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}
	return &subscription{client: c, topic: topic, id: id}, nil
}

type subscription struct {
	client *Client
	topic  string
	id     int
	once   sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.client.unsubscribe(s.topic, s.id) })
}

func (c *Client) unsubscribe(topic string, id int) {
	c.mu.Lock()
	handlers := c.handlers[topic]
	delete(handlers, id)
	last := len(handlers) == 0
	if last {
		delete(c.handlers, topic)
	}
	conn := c.conn
	c.mu.Unlock()

	if last && conn != nil {
		// Best effort; a dead connection drops its topics anyway.
		_ = c.writeFrame(conn, channel.Frame{Op: channel.OpUnsubscribe, Topic: topic})
	}
}

// dialGuarded routes dialing through the circuit breaker so a dead relay
// is probed on a cooldown instead of on every reconnect tick.
func (c *Client) dialGuarded(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn
	err := c.breaker.Do(func() error {
		var dialErr error
		conn, dialErr = c.dial(ctx)
		return dialErr
	})
	return conn, err
}

func (c *Client) writeFrame(conn *websocket.Conn, f channel.Frame) error {
	data, err := channel.EncodeFrame(f)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop delivers inbound frames until the connection breaks, then hands
// off to the reconnect path. Handlers run on this goroutine, preserving
// arrival order per connection.
func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.reconnect(conn) {
				return
			}
			c.mu.Lock()
			conn = c.conn
			c.mu.Unlock()
			continue
		}

		frame, err := channel.DecodeFrame(data)
		if err != nil {
			c.logger.Warn("dropping malformed relay frame", zap.Error(err))
			continue
		}

		c.mu.Lock()
		hs := make([]channel.Handler, 0, len(c.handlers[frame.Topic]))
		for _, h := range c.handlers[frame.Topic] {
			hs = append(hs, h)
		}
		c.mu.Unlock()

		if c.metrics != nil {
			c.metrics.RelayFrames.WithLabelValues(frame.Topic, "inbound").Inc()
		}
		for _, h := range hs {
			h(channel.Message{Topic: frame.Topic, Data: frame.Data})
		}
	}
}

// reconnect redials with exponential backoff and replays the active topic
// subscriptions. Returns true when the client was closed and the loop
// should exit.
func (c *Client) reconnect(old *websocket.Conn) bool {
	_ = old.Close()

	wait := c.opts.ReconnectWaitMin
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return true
		}
		c.conn = nil
		topics := make([]string, 0, len(c.handlers))
		for topic := range c.handlers {
			topics = append(topics, topic)
		}
		c.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), c.opts.HandshakeTimeout)
		conn, err := c.dialGuarded(ctx)
		cancel()
		if err != nil {
			c.logger.Warn("relay redial failed",
				zap.Error(err),
				zap.Duration("retry_in", wait))
			time.Sleep(wait)
			wait *= 2
			if wait > c.opts.ReconnectWaitMax {
				wait = c.opts.ReconnectWaitMax
			}
			continue
		}

		ok := true
		for _, topic := range topics {
			if err := c.writeFrame(conn, channel.Frame{Op: channel.OpSubscribe, Topic: topic}); err != nil {
				c.logger.Warn("resubscribe failed", zap.String("topic", topic), zap.Error(err))
				_ = conn.Close()
				ok = false
				break
			}
		}
		if !ok {
			time.Sleep(wait)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return true
		}
		c.conn = conn
		c.mu.Unlock()

		c.logger.Info("reconnected to relay", zap.Int("topics", len(topics)))
		return false
	}
}
