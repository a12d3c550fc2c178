package client

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/loomworks/agentboard/internal/cache"
	"github.com/loomworks/agentboard/internal/channel"
	"github.com/loomworks/agentboard/internal/infrastructure/config"
	"github.com/loomworks/agentboard/internal/infrastructure/logging"
	"github.com/loomworks/agentboard/internal/infrastructure/monitoring"
	"github.com/loomworks/agentboard/internal/notify"
	"github.com/loomworks/agentboard/internal/sync/diff"
	"github.com/loomworks/agentboard/internal/sync/dispatch"
	"github.com/loomworks/agentboard/internal/sync/event"
	"github.com/loomworks/agentboard/internal/sync/extension"
	"github.com/loomworks/agentboard/internal/sync/store"
)

// Service assembles the sync core over one channel client: the session
// store, the cache invalidator, the remote event dispatcher, the layout
// diff synchronizer and the extension coordinator. Components receive
// their collaborators here and nowhere else.
type Service struct {
	cfg    config.SyncConfig
	logger *logging.Logger

	store       *store.Store
	invalidator *cache.Invalidator
	channel     channel.Client

	dispatcher   *dispatch.Dispatcher
	synchronizer *diff.Synchronizer
	coordinator  *extension.Coordinator

	mu        sync.Mutex
	layoutSub channel.Subscription
	started   bool
}

// New wires a service from its configuration and a channel client.
func New(cfg config.SyncConfig, ch channel.Client, logger *logging.Logger) *Service {
	st := store.New()
	inv := cache.New()

	d := dispatch.New(st, inv, cfg.WorkspaceID, logger).
		WithNotifier(notify.NewLogNotifier(logger))

	s := &Service{
		cfg:          cfg,
		logger:       logger.Named("sync"),
		store:        st,
		invalidator:  inv,
		channel:      ch,
		dispatcher:   d,
		synchronizer: diff.New(st, ch, cfg.WorkspaceID, logger),
		coordinator:  extension.New(ch, d, cfg, logger),
	}
	s.applyConfig(cfg)
	return s
}

// applyConfig is the single path that pushes sync options into the
// components holding them, so the dispatcher's scope filter, the
// synchronizer's outbound workspace id, and the notification flag can
// never drift from the active configuration.
func (s *Service) applyConfig(cfg config.SyncConfig) {
	s.dispatcher.Configure(cfg.WorkspaceID, cfg.ShowNotifications)
	s.synchronizer.SetWorkspace(cfg.WorkspaceID)
}

// WithNotifier replaces the default log-backed notifier. Whether toasts
// are shown at all stays governed by the active configuration.
func (s *Service) WithNotifier(n notify.Notifier) *Service {
	s.dispatcher.WithNotifier(n)
	return s
}

// WithMetrics enables metrics collection on every component.
func (s *Service) WithMetrics(m *monitoring.Metrics) *Service {
	s.dispatcher.WithMetrics(m)
	s.synchronizer.WithMetrics(m)
	return s
}

// Store exposes the session store for local mutation and reads.
func (s *Service) Store() *store.Store {
	return s.store
}

// Invalidator exposes cache staleness tracking to local consumers.
func (s *Service) Invalidator() *cache.Invalidator {
	return s.invalidator
}

// State reports the coordinator's connection state.
func (s *Service) State() extension.State {
	return s.coordinator.State()
}

// Start brings the service online. The coordinator decides whether sync is
// active at all; when it declines (disabled by config or missing token) the
// store keeps working locally and no topic is subscribed. Start after Start
// is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	if err := s.coordinator.Start(ctx); err != nil {
		return err
	}
	if s.coordinator.State() != extension.StateSubscribed {
		s.logger.Info("sync inactive, store is local only")
		return nil
	}

	sub, err := s.dispatcher.Listen(s.channel)
	if err != nil {
		s.coordinator.Stop()
		return err
	}
	s.layoutSub = sub
	s.synchronizer.Start()
	s.started = true

	s.logger.Info("sync service started",
		zap.String("workspace_id", s.cfg.WorkspaceID),
		zap.String("topic", event.TopicLayout))
	return nil
}

// Stop tears the service down in reverse order: no more local emission,
// then no more inbound frames, then the channel itself. Idempotent.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		s.coordinator.Stop()
		return
	}

	s.synchronizer.Stop()
	if s.layoutSub != nil {
		s.layoutSub.Unsubscribe()
		s.layoutSub = nil
	}
	s.coordinator.Stop()
	s.started = false

	s.logger.Info("sync service stopped")
}

// UpdateConfig reacts to a settings change at runtime. Toggling sync off
// stops everything; toggling it on starts fresh.
func (s *Service) UpdateConfig(ctx context.Context, cfg config.SyncConfig) error {
	s.Stop()

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.applyConfig(cfg)

	if err := s.coordinator.UpdateConfig(ctx, cfg); err != nil {
		return err
	}
	if s.coordinator.State() != extension.StateSubscribed {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sub, err := s.dispatcher.Listen(s.channel)
	if err != nil {
		s.coordinator.Stop()
		return err
	}
	s.layoutSub = sub
	s.synchronizer.Start()
	s.started = true
	return nil
}
