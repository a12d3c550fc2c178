package relay

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/loomworks/agentboard/internal/channel"
	"github.com/loomworks/agentboard/internal/infrastructure/logging"
	"github.com/loomworks/agentboard/internal/infrastructure/monitoring"
)

// Hub owns the topic rooms. A published frame fans out to every other
// connection subscribed to its topic; the publisher never hears its own
// frame back, mirroring the in-memory broker semantics clients test
// against.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[string]*connection

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[string]*connection),
		logger: logger.Named("relay"),
	}
}

// WithMetrics adds connection and frame accounting.
func (h *Hub) WithMetrics(m *monitoring.Metrics) *Hub {
	h.metrics = m
	return h
}

// connection is one websocket client attached to the hub. Outbound frames
// flow through the send channel so the write pump is the only writer.
type connection struct {
	id     string
	ws     *websocket.Conn
	send   chan []byte
	topics map[string]bool

	sendMu sync.Mutex
	closed bool
}

const sendBuffer = 64

func newConnection(ws *websocket.Conn) *connection {
	return &connection{
		id:     uuid.NewString(),
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		topics: make(map[string]bool),
	}
}

// trySend enqueues without blocking. False means the connection is closed
// or the buffer is full.
func (c *connection) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *connection) close() {
	c.sendMu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.sendMu.Unlock()
	_ = c.ws.Close()
}

// Serve runs the read pump for one upgraded websocket until it
// disconnects. The write pump runs alongside on its own goroutine.
func (h *Hub) Serve(ws *websocket.Conn) {
	conn := newConnection(ws)
	if h.metrics != nil {
		h.metrics.RelayConnections.Inc()
	}
	h.logger.Info("connection opened", zap.String("conn_id", conn.id))

	go h.writePump(conn)
	h.readPump(conn)

	h.detach(conn)
	conn.close()
	if h.metrics != nil {
		h.metrics.RelayConnections.Dec()
	}
	h.logger.Info("connection closed", zap.String("conn_id", conn.id))
}

func (h *Hub) readPump(conn *connection) {
	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			return
		}

		frame, err := channel.DecodeFrame(data)
		if err != nil {
			h.logger.Warn("dropping malformed frame",
				zap.String("conn_id", conn.id),
				zap.Error(err))
			continue
		}

		switch frame.Op {
		case channel.OpSubscribe:
			h.subscribe(conn, frame.Topic)
		case channel.OpUnsubscribe:
			h.unsubscribe(conn, frame.Topic)
		case channel.OpPublish:
			h.broadcast(conn, frame)
		default:
			h.logger.Warn("dropping frame with unknown op",
				zap.String("conn_id", conn.id),
				zap.String("op", frame.Op))
		}
	}
}

func (h *Hub) writePump(conn *connection) {
	for data := range conn.send {
		if err := conn.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (h *Hub) subscribe(conn *connection, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.topics[topic]
	if room == nil {
		room = make(map[string]*connection)
		h.topics[topic] = room
	}
	room[conn.id] = conn
	conn.topics[topic] = true
}

func (h *Hub) unsubscribe(conn *connection, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(conn.topics, topic)
	room := h.topics[topic]
	delete(room, conn.id)
	if len(room) == 0 {
		delete(h.topics, topic)
	}
}

// broadcast fans a publish frame out to the topic room, skipping the
// sender. A peer with a full send buffer loses the frame rather than
// stalling the room; the diff protocol reconverges on the next change.
func (h *Hub) broadcast(from *connection, frame channel.Frame) {
	data, err := channel.EncodeFrame(frame)
	if err != nil {
		h.logger.Warn("failed to re-encode frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	peers := make([]*connection, 0, len(h.topics[frame.Topic]))
	for id, peer := range h.topics[frame.Topic] {
		if id == from.id {
			continue
		}
		peers = append(peers, peer)
	}
	h.mu.RUnlock()

	if h.metrics != nil {
		h.metrics.RelayFrames.WithLabelValues(frame.Topic, "inbound").Inc()
	}
	for _, peer := range peers {
		if peer.trySend(data) {
			if h.metrics != nil {
				h.metrics.RelayFrames.WithLabelValues(frame.Topic, "outbound").Inc()
			}
			continue
		}
		h.logger.Warn("dropping frame for slow or closed consumer",
			zap.String("conn_id", peer.id),
			zap.String("topic", frame.Topic))
	}
}

func (h *Hub) detach(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic := range conn.topics {
		room := h.topics[topic]
		delete(room, conn.id)
		if len(room) == 0 {
			delete(h.topics, topic)
		}
	}
}
