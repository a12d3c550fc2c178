package diff

import (
	"sync"

	"go.uber.org/zap"

	"github.com/loomworks/agentboard/internal/channel"
	"github.com/loomworks/agentboard/internal/infrastructure/logging"
	"github.com/loomworks/agentboard/internal/infrastructure/monitoring"
	"github.com/loomworks/agentboard/internal/shared/types"
	"github.com/loomworks/agentboard/internal/sync/event"
	"github.com/loomworks/agentboard/internal/sync/store"
)

// Synchronizer observes store mutations, diffs each session against its
// retained watermark, and publishes minimal sync commands for fields that
// changed. Remote-origin mutations refresh the watermark without emitting,
// so patches applied by the dispatcher never echo back onto the wire.
type Synchronizer struct {
	store       *store.Store
	publisher   channel.Publisher
	workspaceID string

	mu        sync.Mutex
	watermark map[string]*snapshot
	cancel    func()

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a synchronizer. Call Start to begin observing the store.
func New(st *store.Store, publisher channel.Publisher, workspaceID string, logger *logging.Logger) *Synchronizer {
	return &Synchronizer{
		store:       st,
		publisher:   publisher,
		workspaceID: workspaceID,
		watermark:   make(map[string]*snapshot),
		logger:      logger.Named("diff"),
	}
}

// WithMetrics adds metrics tracking to the synchronizer.
func (s *Synchronizer) WithMetrics(metrics *monitoring.Metrics) *Synchronizer {
	s.metrics = metrics
	return s
}

// SetWorkspace changes the workspace id stamped on outbound commands.
// Follows settings changes so commands emitted after a workspace switch
// carry the new id.
func (s *Synchronizer) SetWorkspace(workspaceID string) {
	s.mu.Lock()
	s.workspaceID = workspaceID
	s.mu.Unlock()
}

// Start subscribes to store change notifications. Idempotent: a running
// synchronizer is not subscribed twice.
func (s *Synchronizer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}
	s.cancel = s.store.Subscribe(s.evaluate)
}

// Stop unsubscribes from the store. After Stop returns no further commands
// are emitted.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// evaluate runs one diff pass for the mutated session. The watermark is
// replaced with the current state whether or not anything was emitted, so
// an unchanged session never re-triggers emission.
func (s *Synchronizer) evaluate(c store.Change) {
	s.mu.Lock()

	sess, ok := s.store.Get(c.SessionID)
	if !ok {
		// Session closed or deleted. Drop the watermark; removal itself is
		// propagated by session lifecycle events, not by this pass.
		delete(s.watermark, c.SessionID)
		s.mu.Unlock()
		return
	}

	prev := s.watermark[c.SessionID]
	if prev == nil {
		prev = &snapshot{}
	}
	cur := capture(sess)
	s.watermark[c.SessionID] = cur

	if c.Origin == store.OriginRemote {
		// Absorb the remote patch into the watermark; emitting here would
		// start an echo loop between peers.
		s.mu.Unlock()
		return
	}

	cmds := diffSnapshots(prev, cur, c.SessionID, s.workspaceID)
	s.mu.Unlock()

	for _, cmd := range cmds {
		s.publish(cmd)
	}
}

func (s *Synchronizer) publish(cmd event.Event) {
	data, err := event.Encode(cmd)
	if err != nil {
		s.logger.Error("failed to encode sync command",
			zap.String("kind", string(cmd.Kind())),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.Publish(event.TopicLayout, data); err != nil {
		// Delivery retry is the channel's job; this layer only records it.
		s.logger.Warn("failed to publish sync command",
			zap.String("kind", string(cmd.Kind())),
			zap.Error(err),
		)
		return
	}

	if s.metrics != nil {
		s.metrics.CommandsEmitted.WithLabelValues(string(cmd.Kind())).Inc()
	}
}

// snapshot retains the observed fields of one session: the watermark the
// next pass diffs against.
type snapshot struct {
	viewMode      types.ViewMode
	activeAgentID *string
	agentOrder    []string
	agents        map[string]agentLayout
	previewOrder  []string
	previews      map[string]previewLayout
}

type agentLayout struct {
	gridSpan *types.GridSpan
	position *types.Position
}

type previewLayout struct {
	gridSpan *types.GridSpan
	docked   bool
	pinned   bool
	path     string
}

// capture copies the observed fields out of a session clone.
func capture(sess *types.Session) *snapshot {
	snap := &snapshot{
		viewMode:      sess.ViewMode,
		activeAgentID: sess.ActiveAgentID,
		agents:        make(map[string]agentLayout, len(sess.Agents)),
		previews:      make(map[string]previewLayout, len(sess.FilePreviews)),
	}
	for i := range sess.Agents {
		a := &sess.Agents[i]
		snap.agentOrder = append(snap.agentOrder, a.ID)
		snap.agents[a.ID] = agentLayout{gridSpan: a.GridSpan, position: a.Position}
	}
	for i := range sess.FilePreviews {
		p := &sess.FilePreviews[i]
		snap.previewOrder = append(snap.previewOrder, p.ID)
		snap.previews[p.ID] = previewLayout{
			gridSpan: p.GridSpan,
			docked:   p.Docked,
			pinned:   p.Pinned,
			path:     p.Path,
		}
	}
	return snap
}
