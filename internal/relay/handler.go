package relay

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/loomworks/agentboard/internal/api/middleware"
	"github.com/loomworks/agentboard/internal/infrastructure/config"
	"github.com/loomworks/agentboard/internal/infrastructure/logging"
	"github.com/loomworks/agentboard/internal/infrastructure/monitoring"
)

// ticketTTL bounds how long an issued ticket can be redeemed.
const ticketTTL = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origins are filtered by the CORS layer.
	},
}

// Handler exposes the relay over HTTP: the websocket endpoint, the ticket
// exchange, health, and metrics.
type Handler struct {
	hub     *Hub
	cfg     config.RelayConfig
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.Mutex
	tickets map[string]time.Time
}

// NewHandler creates a relay handler around a hub.
func NewHandler(hub *Hub, cfg config.RelayConfig, logger *logging.Logger) *Handler {
	return &Handler{
		hub:     hub,
		cfg:     cfg,
		logger:  logger.Named("relay.http"),
		tickets: make(map[string]time.Time),
	}
}

// WithMetrics enables the metrics endpoint and request accounting.
func (h *Handler) WithMetrics(m *monitoring.Metrics) *Handler {
	h.metrics = m
	return h
}

// Routes mounts the relay endpoints on a router.
func (h *Handler) Routes(r *gin.Engine, rateCfg config.RateLimitConfig) {
	if rateCfg.Enabled {
		r.Use(middleware.RateLimit(rateCfg))
	}
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if h.metrics != nil {
		r.Use(monitoring.Middleware(h.metrics))
	}

	r.GET("/health", h.handleHealth)
	r.POST("/ticket", h.handleTicket)
	r.GET("/ws", h.handleWS)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
			h.metrics.Registry(),
			promhttp.HandlerOpts{},
		)))
	}
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleTicket exchanges a bearer token for a one-shot short-lived ticket,
// keeping the token off the websocket URL.
func (h *Handler) handleTicket(c *gin.Context) {
	if !h.authorized(c.GetHeader("Authorization")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ticket := uuid.NewString()
	now := time.Now()

	h.mu.Lock()
	for t, issued := range h.tickets {
		if now.Sub(issued) > ticketTTL {
			delete(h.tickets, t)
		}
	}
	h.tickets[ticket] = now
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

func (h *Handler) handleWS(c *gin.Context) {
	if !h.admit(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.Serve(conn)
}

// admit accepts either a previously issued ticket or the bearer token
// directly. An open relay (no configured token) admits everyone.
func (h *Handler) admit(c *gin.Context) bool {
	if h.cfg.AuthToken == "" {
		return true
	}
	if ticket := c.Query("ticket"); ticket != "" {
		return h.redeem(ticket)
	}
	return h.authorized(c.GetHeader("Authorization"))
}

func (h *Handler) redeem(ticket string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	issued, ok := h.tickets[ticket]
	if !ok {
		return false
	}
	delete(h.tickets, ticket)
	return time.Since(issued) <= ticketTTL
}

func (h *Handler) authorized(header string) bool {
	if h.cfg.AuthToken == "" {
		return true
	}
	return header == "Bearer "+h.cfg.AuthToken
}
