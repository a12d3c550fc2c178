package store

import (
	"time"

	"github.com/loomworks/agentboard/internal/shared/types"
)

// AddConversation inserts a conversation session, replacing an existing one
// with the same id.
func (s *Store) AddConversation(sessionID string, conv types.ConversationSession, origin Origin) bool {
	return s.mutate(sessionID, origin, func(sess *types.Session) bool {
		for i := range sess.ConversationSessions {
			if sess.ConversationSessions[i].ID == conv.ID {
				sess.ConversationSessions[i] = conv
				return true
			}
		}
		sess.ConversationSessions = append(sess.ConversationSessions, conv)
		return true
	})
}

// RemoveConversation drops a conversation session. This is the only path
// that may lower a conversation's message count, by removing it entirely.
func (s *Store) RemoveConversation(sessionID, convID string, origin Origin) bool {
	return s.mutate(sessionID, origin, func(sess *types.Session) bool {
		for i := range sess.ConversationSessions {
			if sess.ConversationSessions[i].ID == convID {
				sess.ConversationSessions = append(
					sess.ConversationSessions[:i], sess.ConversationSessions[i+1:]...)
				return true
			}
		}
		return false
	})
}

// AppendConversationMessage appends a message to a conversation, bumping the
// monotonic message count and the timestamps. Attached agent ids are left
// untouched even when dangling; reconciliation is the server's job.
func (s *Store) AppendConversationMessage(sessionID, convID string, msg types.AgentMessage, origin Origin) bool {
	return s.mutate(sessionID, origin, func(sess *types.Session) bool {
		for i := range sess.ConversationSessions {
			conv := &sess.ConversationSessions[i]
			if conv.ID != convID {
				continue
			}
			conv.Messages = append(conv.Messages, msg)
			conv.MessageCount++
			now := msg.CreatedAt
			if now.IsZero() {
				now = time.Now()
			}
			conv.LastMessageAt = &now
			conv.UpdatedAt = now
			return true
		}
		return false
	})
}

// AttachAgent links an agent id to a conversation. The id is recorded even
// if no such agent exists yet in the session; dangling references are
// tolerated pending reconciliation.
func (s *Store) AttachAgent(sessionID, convID, agentID string, origin Origin) bool {
	return s.mutate(sessionID, origin, func(sess *types.Session) bool {
		for i := range sess.ConversationSessions {
			conv := &sess.ConversationSessions[i]
			if conv.ID != convID {
				continue
			}
			for _, existing := range conv.AttachedAgentIDs {
				if existing == agentID {
					return false
				}
			}
			conv.AttachedAgentIDs = append(conv.AttachedAgentIDs, agentID)
			conv.UpdatedAt = time.Now()
			return true
		}
		return false
	})
}
