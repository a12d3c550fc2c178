package store

import (
	"sync"

	"github.com/loomworks/agentboard/internal/shared/types"
	"github.com/loomworks/agentboard/internal/sync/event"
)

// Origin identifies which side of the channel produced a mutation. The diff
// synchronizer uses it to refresh its watermark without echoing remote
// patches back onto the wire.
type Origin int

const (
	OriginLocal Origin = iota
	OriginRemote
)

// Change notifies subscribers that one session was mutated.
type Change struct {
	SessionID string
	Origin    Origin
}

// SessionPatch is a partial update to session-level scalars. Nil fields are
// absent. Unknown JSON fields disappear at decode time, so Apply never sees
// them.
type SessionPatch struct {
	Name                    *string                `json:"name,omitempty"`
	ViewMode                *types.ViewMode        `json:"view_mode,omitempty"`
	WorkspaceStatus         *types.WorkspaceStatus `json:"workspace_status,omitempty"`
	WorkspaceStatusChecking *bool                  `json:"workspace_status_checking,omitempty"`
}

// Store is the single source of truth for all open sessions, plus
// client-only metadata (current session id, recent files). Every write goes
// through Apply or a narrow mutator, which is the choke point that lets the
// synchronizer distinguish local edits from remote patches.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string]*types.Session
	currentID string
	recent    []string

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

const maxRecentFiles = 20

// New creates an empty store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*types.Session),
		subs:     make(map[int]func(Change)),
	}
}

// Subscribe registers a change listener. The returned cancel func must be
// called on teardown; it stops future notifications, though a notification
// already in flight on another goroutine may still reach the listener once.
// Listeners run synchronously on the mutating goroutine, in mutation order.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(sessionID string, origin Origin) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(Change{SessionID: sessionID, Origin: origin})
	}
}

// Get returns a deep copy of one session. Callers never receive pointers
// into store-owned state.
func (s *Store) Get(sessionID string) (*types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return sess.Clone(), true
}

// List returns deep copies of all open sessions.
func (s *Store) List() []*types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Clone())
	}
	return out
}

// CurrentSessionID returns the session the client currently has focused.
func (s *Store) CurrentSessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentID
}

// SetCurrentSessionID records the focused session. Client-only metadata;
// never synchronized.
func (s *Store) SetCurrentSessionID(sessionID string) {
	s.mu.Lock()
	s.currentID = sessionID
	s.mu.Unlock()
}

// RecentFiles returns the most-recently-opened file paths, newest first.
func (s *Store) RecentFiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.recent...)
}

// TouchRecentFile moves a path to the front of the recent list.
func (s *Store) TouchRecentFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]string, 0, len(s.recent)+1)
	filtered = append(filtered, path)
	for _, p := range s.recent {
		if p != path {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) > maxRecentFiles {
		filtered = filtered[:maxRecentFiles]
	}
	s.recent = filtered
}

// Put adds or replaces a session. Used when a workspace is opened or joined.
func (s *Store) Put(sess *types.Session, origin Origin) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess.Clone()
	s.mu.Unlock()

	s.notify(sess.ID, origin)
}

// Remove drops a session. Used on close or remote deletion.
func (s *Store) Remove(sessionID string, origin Origin) bool {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
		if s.currentID == sessionID {
			s.currentID = ""
		}
	}
	s.mu.Unlock()

	if ok {
		s.notify(sessionID, origin)
	}
	return ok
}

// Apply merges a partial patch into one session. An absent target is a
// silent no-op: the session may have been closed concurrently.
func (s *Store) Apply(sessionID string, patch SessionPatch, origin Origin) bool {
	return s.mutate(sessionID, origin, func(sess *types.Session) bool {
		if patch.Name != nil {
			sess.Name = *patch.Name
		}
		if patch.ViewMode != nil {
			sess.ViewMode = *patch.ViewMode
		}
		if patch.WorkspaceStatus != nil {
			sess.WorkspaceStatus = *patch.WorkspaceStatus
		}
		if patch.WorkspaceStatusChecking != nil {
			sess.WorkspaceStatusChecking = *patch.WorkspaceStatusChecking
		}
		return true
	})
}

// SetViewMode patches the session layout mode.
func (s *Store) SetViewMode(sessionID string, mode types.ViewMode, origin Origin) bool {
	return s.mutate(sessionID, origin, func(sess *types.Session) bool {
		sess.ViewMode = mode
		return true
	})
}

// SetActiveAgent patches the active agent pointer. Nil clears it. Setting an
// id that references no agent in the session is dropped, keeping the
// at-most-one-valid-reference invariant.
func (s *Store) SetActiveAgent(sessionID string, agentID *string, origin Origin) bool {
	return s.mutate(sessionID, origin, func(sess *types.Session) bool {
		if agentID == nil {
			sess.ActiveAgentID = nil
			return true
		}
		if _, ok := sess.Agent(*agentID); !ok {
			return false
		}
		v := *agentID
		sess.ActiveAgentID = &v
		return true
	})
}

// SetAgentGridSpan patches one agent's grid span. Non-positive spans and
// stale agent ids are dropped.
func (s *Store) SetAgentGridSpan(sessionID, agentID string, span types.GridSpan, origin Origin) bool {
	if !span.Valid() {
		return false
	}
	return s.mutate(sessionID, origin, func(sess *types.Session) bool {
		agent, ok := sess.Agent(agentID)
		if !ok {
			return false
		}
		v := span
		agent.GridSpan = &v
		return true
	})
}

// SetAgentPosition patches one agent's free-form position.
func (s *Store) SetAgentPosition(sessionID, agentID string, pos types.Position, origin Origin) bool {
	return s.mutate(sessionID, origin, func(sess *types.Session) bool {
		agent, ok := sess.Agent(agentID)
		if !ok {
			return false
		}
		v := pos
		agent.Position = &v
		return true
	})
}

// ApplyPreviewPatch merges present fields into one file preview.
func (s *Store) ApplyPreviewPatch(sessionID, previewID string, patch event.PreviewPatch, origin Origin) bool {
	if patch.Empty() {
		return false
	}
	if patch.GridSpan != nil && !patch.GridSpan.Valid() {
		return false
	}
	return s.mutate(sessionID, origin, func(sess *types.Session) bool {
		preview, ok := sess.Preview(previewID)
		if !ok {
			return false
		}
		if patch.GridSpan != nil {
			v := *patch.GridSpan
			preview.GridSpan = &v
		}
		if patch.Docked != nil {
			preview.Docked = *patch.Docked
		}
		if patch.Pinned != nil {
			preview.Pinned = *patch.Pinned
		}
		if patch.Path != nil {
			preview.Path = *patch.Path
		}
		return true
	})
}

// AddFilePreview inserts a preview, replacing any existing one with the same
// id so ids stay unique within the session.
func (s *Store) AddFilePreview(sessionID string, preview types.FilePreview, origin Origin) bool {
	return s.mutate(sessionID, origin, func(sess *types.Session) bool {
		if existing, ok := sess.Preview(preview.ID); ok {
			*existing = preview
			return true
		}
		sess.FilePreviews = append(sess.FilePreviews, preview)
		return true
	})
}

// RemoveFilePreview drops a preview from the session.
func (s *Store) RemoveFilePreview(sessionID, previewID string, origin Origin) bool {
	return s.mutate(sessionID, origin, func(sess *types.Session) bool {
		for i := range sess.FilePreviews {
			if sess.FilePreviews[i].ID == previewID {
				sess.FilePreviews = append(sess.FilePreviews[:i], sess.FilePreviews[i+1:]...)
				return true
			}
		}
		return false
	})
}

// AddAgent inserts an agent, replacing any existing one with the same id.
func (s *Store) AddAgent(sessionID string, agent types.AgentCore, origin Origin) bool {
	return s.mutate(sessionID, origin, func(sess *types.Session) bool {
		if existing, ok := sess.Agent(agent.ID); ok {
			*existing = agent
			return true
		}
		sess.Agents = append(sess.Agents, agent)
		return true
	})
}

// RemoveAgent drops an agent. The active agent pointer is cleared if it
// referenced the removed agent.
func (s *Store) RemoveAgent(sessionID, agentID string, origin Origin) bool {
	return s.mutate(sessionID, origin, func(sess *types.Session) bool {
		for i := range sess.Agents {
			if sess.Agents[i].ID == agentID {
				sess.Agents = append(sess.Agents[:i], sess.Agents[i+1:]...)
				if sess.ActiveAgentID != nil && *sess.ActiveAgentID == agentID {
					sess.ActiveAgentID = nil
				}
				return true
			}
		}
		return false
	})
}

// SetWorkspaceStatus is the narrow mutator used by workspace lifecycle
// events: it records the status, the error (nil clears it), and marks the
// status check finished.
func (s *Store) SetWorkspaceStatus(sessionID string, status types.WorkspaceStatus, wsErr *string, origin Origin) bool {
	return s.mutate(sessionID, origin, func(sess *types.Session) bool {
		sess.WorkspaceStatus = status
		sess.WorkspaceStatusChecking = false
		if wsErr == nil {
			sess.WorkspaceError = nil
		} else {
			v := *wsErr
			sess.WorkspaceError = &v
		}
		return true
	})
}

// mutate runs fn against the live session under the write lock and fires
// change notifications after the lock is released. Missing sessions and
// rejected mutations notify nothing.
func (s *Store) mutate(sessionID string, origin Origin, fn func(*types.Session) bool) bool {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	applied := ok && fn(sess)
	s.mu.Unlock()

	if applied {
		s.notify(sessionID, origin)
	}
	return applied
}
