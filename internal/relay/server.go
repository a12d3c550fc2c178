package relay

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/loomworks/agentboard/internal/infrastructure/config"
	"github.com/loomworks/agentboard/internal/infrastructure/logging"
	"github.com/loomworks/agentboard/internal/infrastructure/monitoring"
)

// Server is the relay daemon: the hub plus its HTTP surface.
type Server struct {
	hub     *Hub
	handler *Handler
	http    *http.Server
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewServer wires the hub, handler, middleware and routes from
// configuration.
func NewServer(cfg *config.Config, logger *logging.Logger) *Server {
	metrics := monitoring.NewMetrics()

	hub := NewHub(logger).WithMetrics(metrics)
	handler := NewHandler(hub, cfg.Relay, logger).WithMetrics(metrics)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.Routes(router, cfg.RateLimit)

	return &Server{
		hub:     hub,
		handler: handler,
		http: &http.Server{
			Addr:    net.JoinHostPort(cfg.Relay.Host, cfg.Relay.Port),
			Handler: router,
		},
		logger:  logger.Named("relay.server"),
		metrics: metrics,
	}
}

// Run serves until the listener fails or Close is called.
func (s *Server) Run() error {
	s.logger.Info("relay listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close drains in-flight requests and stops the listener. Open websockets
// are closed by the shutdown of their underlying connections.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}
