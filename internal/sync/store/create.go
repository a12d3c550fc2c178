package store

import (
	"time"

	"github.com/loomworks/agentboard/internal/shared/id"
	"github.com/loomworks/agentboard/internal/shared/types"
)

// Creation helpers mint ids through the shared generator so every entity
// created on this client carries a sortable, prefixed ULID. Entities arriving
// over the channel keep whatever id their author minted.

// CreateSession mints a session with a fresh id and stores it.
func (s *Store) CreateSession(name string, origin Origin) *types.Session {
	sess := &types.Session{
		ID:       id.NewSessionID().String(),
		Name:     name,
		ViewMode: types.ViewModeGrid,
	}
	s.Put(sess, origin)
	return sess
}

// CreateAgent mints an agent with a fresh id and adds it to the session.
// The zero value for ok means the session does not exist.
func (s *Store) CreateAgent(sessionID, name string, origin Origin) (agent types.AgentCore, ok bool) {
	agent = types.AgentCore{
		ID:     id.NewAgentID().String(),
		Name:   name,
		Status: types.AgentStatusIdle,
		Mode:   types.AgentModeManual,
	}
	ok = s.AddAgent(sessionID, agent, origin)
	return agent, ok
}

// CreateFilePreview mints a preview tile for a path and adds it to the
// session.
func (s *Store) CreateFilePreview(sessionID, path string, origin Origin) (preview types.FilePreview, ok bool) {
	preview = types.FilePreview{
		ID:   id.NewPreviewID().String(),
		Path: path,
	}
	ok = s.AddFilePreview(sessionID, preview, origin)
	return preview, ok
}

// CreateConversation mints a conversation session and adds it to the session.
func (s *Store) CreateConversation(sessionID, name string, origin Origin) (conv types.ConversationSession, ok bool) {
	now := time.Now()
	conv = types.ConversationSession{
		ID:        id.NewConversationID().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ok = s.AddConversation(sessionID, conv, origin)
	return conv, ok
}
