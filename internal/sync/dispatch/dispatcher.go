package dispatch

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/loomworks/agentboard/internal/cache"
	"github.com/loomworks/agentboard/internal/channel"
	"github.com/loomworks/agentboard/internal/infrastructure/logging"
	"github.com/loomworks/agentboard/internal/infrastructure/monitoring"
	"github.com/loomworks/agentboard/internal/notify"
	"github.com/loomworks/agentboard/internal/sync/event"
	"github.com/loomworks/agentboard/internal/sync/store"
)

// Dispatcher routes inbound events to the session store. It owns the scope
// filter: workspace-scoped events for another workspace are dropped without
// mutation, which is the normal filtering path, not a failure.
type Dispatcher struct {
	store       *store.Store
	invalidator *cache.Invalidator

	mu                sync.RWMutex
	workspaceID       string
	notifier          notify.Notifier
	showNotifications bool

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a dispatcher for one client's active workspace. Notifications
// are on by default; Configure adjusts both at runtime.
func New(st *store.Store, invalidator *cache.Invalidator, workspaceID string, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{
		store:             st,
		invalidator:       invalidator,
		workspaceID:       workspaceID,
		showNotifications: true,
		logger:            logger.Named("dispatch"),
	}
}

// WithNotifier enables user-facing notifications for extension events.
// Layout sync events never notify regardless.
func (d *Dispatcher) WithNotifier(n notify.Notifier) *Dispatcher {
	d.mu.Lock()
	d.notifier = n
	d.mu.Unlock()
	return d
}

// Configure re-targets the dispatcher at runtime: the workspace id used by
// the scope filter and the notification flag both follow settings changes,
// so events for a newly active workspace are accepted without rebuilding
// the wiring.
func (d *Dispatcher) Configure(workspaceID string, showNotifications bool) {
	d.mu.Lock()
	d.workspaceID = workspaceID
	d.showNotifications = showNotifications
	d.mu.Unlock()
}

// WithMetrics adds metrics tracking to the dispatcher.
func (d *Dispatcher) WithMetrics(metrics *monitoring.Metrics) *Dispatcher {
	d.metrics = metrics
	return d
}

// HandleFrame decodes a raw channel frame and dispatches it. Malformed and
// unknown frames are logged and dropped; processing of later frames is
// never halted.
func (d *Dispatcher) HandleFrame(msg channel.Message) {
	ev, err := event.Decode(msg.Data)
	if err != nil {
		reason := monitoring.DropMalformed
		if errors.Is(err, event.ErrUnknownKind) {
			reason = monitoring.DropUnknownKind
		}
		d.drop(reason)
		d.logger.Warn("dropping frame",
			zap.String("topic", msg.Topic),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return
	}
	d.Dispatch(ev)
}

// Dispatch validates scope and applies one event to the store. It never
// returns an error and never panics: every failure path degrades to a no-op
// plus diagnostics.
func (d *Dispatcher) Dispatch(ev event.Event) {
	if !d.inScope(ev) {
		d.drop(monitoring.DropScopeMismatch)
		return
	}

	switch e := ev.(type) {
	case *event.ViewModeSync:
		d.applied(e, d.store.SetViewMode(e.SessionID, e.ViewMode, store.OriginRemote))
	case *event.ActiveAgentSync:
		d.applied(e, d.store.SetActiveAgent(e.SessionID, e.AgentID, store.OriginRemote))
	case *event.AgentGridSpanSync:
		d.applied(e, d.store.SetAgentGridSpan(e.SessionID, e.AgentID, e.GridSpan, store.OriginRemote))
	case *event.AgentPositionSync:
		d.applied(e, d.store.SetAgentPosition(e.SessionID, e.AgentID, e.Position, store.OriginRemote))
	case *event.FilePreviewLayoutSync:
		d.applied(e, d.store.ApplyPreviewPatch(e.SessionID, e.PreviewID, e.PreviewPatch, store.OriginRemote))
	case *event.ExtensionInstalled:
		d.invalidate(e)
		d.toast(notify.ExtensionInstalled(e.DisplayName, e.EventScope()))
	case *event.ExtensionUninstalled:
		d.invalidate(e)
		d.toast(notify.ExtensionUninstalled(e.EventScope()))
	case *event.ExtensionToggled:
		d.invalidate(e)
		d.toast(notify.ExtensionToggled(e.Enabled, e.EventScope()))
	case *event.ExtensionSettingsChanged:
		// Too frequent and too subtle to surface; invalidation only.
		d.invalidate(e)
	}
}

// inScope applies the scope filter: account events always pass, workspace
// events only for the client's active workspace.
func (d *Dispatcher) inScope(ev event.Event) bool {
	switch ev.EventScope() {
	case event.ScopeAccount:
		return true
	case event.ScopeWorkspace:
		d.mu.RLock()
		workspaceID := d.workspaceID
		d.mu.RUnlock()
		return ev.EventWorkspace() != "" && ev.EventWorkspace() == workspaceID
	default:
		return false
	}
}

// applied records the outcome of a layout patch. A rejected patch means the
// target session or entity is gone locally, which is tolerated.
func (d *Dispatcher) applied(ev event.Event, ok bool) {
	if !ok {
		d.drop(monitoring.DropStaleTarget)
		d.logger.Debug("stale sync target",
			zap.String("kind", string(ev.Kind())),
		)
		return
	}
	if d.metrics != nil {
		d.metrics.EventsDispatched.WithLabelValues(string(ev.Kind())).Inc()
	}
}

func (d *Dispatcher) invalidate(ev event.Event) {
	d.invalidator.Invalidate(cache.KeyExtensionsInstalled)
	if d.metrics != nil {
		d.metrics.EventsDispatched.WithLabelValues(string(ev.Kind())).Inc()
		d.metrics.CacheInvalidations.WithLabelValues(cache.KeyExtensionsInstalled).Inc()
	}
}

func (d *Dispatcher) toast(n notify.Notification) {
	d.mu.RLock()
	notifier := d.notifier
	show := d.showNotifications
	d.mu.RUnlock()

	if !show || notifier == nil {
		return
	}
	notifier.Notify(n)
	if d.metrics != nil {
		d.metrics.NotificationsShown.Inc()
	}
}

func (d *Dispatcher) drop(reason string) {
	if d.metrics != nil {
		d.metrics.EventsDropped.WithLabelValues(reason).Inc()
	}
}
