package extension

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/loomworks/agentboard/internal/channel"
	"github.com/loomworks/agentboard/internal/infrastructure/config"
	"github.com/loomworks/agentboard/internal/infrastructure/logging"
	"github.com/loomworks/agentboard/internal/sync/dispatch"
	"github.com/loomworks/agentboard/internal/sync/event"
)

// State is the coordinator lifecycle state.
type State string

const (
	StateDisabled   State = "disabled"
	StateConnecting State = "connecting"
	StateSubscribed State = "subscribed"
)

// Coordinator owns the four extension lifecycle subscriptions. They are
// acquired as a unit and released as a unit on every exit path, so no
// handler is left dangling after teardown.
//
// Lifecycle: disabled -> connecting -> subscribed -> disabled. Entering
// subscribed requires the sync option to be enabled and a non-empty auth
// token; losing either flips back to disabled.
type Coordinator struct {
	client     channel.Client
	dispatcher *dispatch.Dispatcher
	logger     *logging.Logger

	mu    sync.Mutex
	cfg   config.SyncConfig
	state State
	subs  []channel.Subscription
}

// New creates a coordinator in the disabled state.
func New(client channel.Client, dispatcher *dispatch.Dispatcher, cfg config.SyncConfig, logger *logging.Logger) *Coordinator {
	return &Coordinator{
		client:     client,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger.Named("extension"),
		state:      StateDisabled,
	}
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start connects the channel and subscribes the four extension topics.
// Without an auth token, or with sync disabled, the coordinator stays
// disabled and Start is a no-op. Calling Start while already subscribed
// releases the existing subscriptions first, so repeated starts never
// duplicate handlers.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cfg.Enabled || c.cfg.AuthToken == "" {
		c.releaseLocked()
		c.state = StateDisabled
		return nil
	}

	// Re-entry from subscribed state (re-render, reconnect): drop existing
	// handlers before subscribing again.
	c.releaseLocked()
	c.state = StateConnecting

	if err := c.client.Connect(ctx); err != nil {
		c.state = StateDisabled
		return fmt.Errorf("failed to connect sync channel: %w", err)
	}

	for _, topic := range event.ExtensionTopics {
		sub, err := c.client.Subscribe(topic, c.dispatcher.HandleFrame)
		if err != nil {
			// All-or-nothing: release what was acquired and fall back.
			c.releaseLocked()
			c.state = StateDisabled
			return fmt.Errorf("failed to subscribe %s: %w", topic, err)
		}
		c.subs = append(c.subs, sub)
	}

	c.state = StateSubscribed
	c.logger.Info("extension sync subscribed",
		zap.Int("topics", len(c.subs)),
	)
	return nil
}

// Stop releases all four subscriptions together and disconnects. Idempotent.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.releaseLocked()
	if c.state != StateDisabled {
		if err := c.client.Close(); err != nil {
			c.logger.Warn("failed to close sync channel", zap.Error(err))
		}
	}
	c.state = StateDisabled
}

// UpdateConfig applies new sync options. Losing the token or the enabled
// flag tears the coordinator down; gaining them subscribes. Token changes
// while subscribed resubscribe with the new credentials.
func (c *Coordinator) UpdateConfig(ctx context.Context, cfg config.SyncConfig) error {
	c.mu.Lock()
	changed := c.cfg != cfg
	wasSubscribed := c.state == StateSubscribed
	c.cfg = cfg
	c.mu.Unlock()

	if !changed && wasSubscribed {
		return nil
	}

	if !cfg.Enabled || cfg.AuthToken == "" {
		c.Stop()
		return nil
	}
	return c.Start(ctx)
}

// releaseLocked unsubscribes every held handler. Caller holds c.mu.
func (c *Coordinator) releaseLocked() {
	for _, sub := range c.subs {
		sub.Unsubscribe()
	}
	c.subs = nil
}
