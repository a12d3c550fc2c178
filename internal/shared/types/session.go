package types

import "time"

// ViewMode represents how a workspace session lays out its agents
type ViewMode string

const (
	ViewModeGrid         ViewMode = "grid"
	ViewModeFocus        ViewMode = "focus"
	ViewModeConversation ViewMode = "conversation"
)

// WorkspaceStatus represents the lifecycle state of the backing workspace
type WorkspaceStatus string

const (
	WorkspaceStatusUnknown      WorkspaceStatus = "unknown"
	WorkspaceStatusProvisioning WorkspaceStatus = "provisioning"
	WorkspaceStatusRunning      WorkspaceStatus = "running"
	WorkspaceStatusStopped      WorkspaceStatus = "stopped"
	WorkspaceStatusError        WorkspaceStatus = "error"
)

// AgentStatus represents an agent's activity state
type AgentStatus string

const (
	AgentStatusIdle       AgentStatus = "idle"
	AgentStatusThinking   AgentStatus = "thinking"
	AgentStatusResponding AgentStatus = "responding"
	AgentStatusError      AgentStatus = "error"
)

// AgentMode represents how an agent is driven
type AgentMode string

const (
	AgentModeAuto   AgentMode = "auto"
	AgentModeManual AgentMode = "manual"
)

// GridSpan represents how many grid cells an entity occupies.
// Both fields are positive when the span is set at all.
type GridSpan struct {
	ColSpan int `json:"col_span"`
	RowSpan int `json:"row_span"`
}

// Valid reports whether both spans are positive integers.
func (g GridSpan) Valid() bool {
	return g.ColSpan > 0 && g.RowSpan > 0
}

// Position represents free-form placement of an agent tile
type Position struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// AgentMessage represents one message in an agent or conversation transcript
type AgentMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AgentCore represents one agent tile inside a session
type AgentCore struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Role     string         `json:"role"`
	Status   AgentStatus    `json:"status"`
	Model    string         `json:"model"`
	Color    string         `json:"color"`
	Messages []AgentMessage `json:"messages"`
	Mode     AgentMode      `json:"mode"`
	Position *Position      `json:"position,omitempty"`
	GridSpan *GridSpan      `json:"grid_span,omitempty"`
}

// ConversationSession represents a shared conversation attached to agents.
// AttachedAgentIDs may reference agents that no longer exist; dangling
// references are tolerated until the server reconciles them.
type ConversationSession struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Messages         []AgentMessage `json:"messages"`
	AttachedAgentIDs []string       `json:"attached_agent_ids"`
	MessageCount     int            `json:"message_count"`
	LastMessageAt    *time.Time     `json:"last_message_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Active reports whether the conversation has ever carried a message.
func (c *ConversationSession) Active() bool {
	return c.MessageCount > 0
}

// FilePreview represents one file preview tile in a session
type FilePreview struct {
	ID       string    `json:"id"`
	Path     string    `json:"path"`
	GridSpan *GridSpan `json:"grid_span,omitempty"`
	Docked   bool      `json:"docked"`
	Pinned   bool      `json:"pinned"`
}

// Session represents one open collaborative workspace with its agents,
// conversations, and layout
type Session struct {
	ID                      string                `json:"id"`
	Name                    string                `json:"name"`
	Agents                  []AgentCore           `json:"agents"`
	ConversationSessions    []ConversationSession `json:"conversation_sessions"`
	ViewMode                ViewMode              `json:"view_mode"`
	ActiveAgentID           *string               `json:"active_agent_id,omitempty"`
	WorkspaceStatus         WorkspaceStatus       `json:"workspace_status"`
	WorkspaceStatusChecking bool                  `json:"workspace_status_checking"`
	WorkspaceError          *string               `json:"workspace_error,omitempty"`
	FilePreviews            []FilePreview         `json:"file_previews"`
}

// Agent returns the agent with the given id, if present.
func (s *Session) Agent(id string) (*AgentCore, bool) {
	for i := range s.Agents {
		if s.Agents[i].ID == id {
			return &s.Agents[i], true
		}
	}
	return nil, false
}

// Preview returns the file preview with the given id, if present.
func (s *Session) Preview(id string) (*FilePreview, bool) {
	for i := range s.FilePreviews {
		if s.FilePreviews[i].ID == id {
			return &s.FilePreviews[i], true
		}
	}
	return nil, false
}

// Clone performs a deep copy so callers can diverge safely.
func (s *Session) Clone() *Session {
	out := *s

	out.Agents = make([]AgentCore, len(s.Agents))
	for i, a := range s.Agents {
		out.Agents[i] = *a.clone()
	}

	out.ConversationSessions = make([]ConversationSession, len(s.ConversationSessions))
	for i, c := range s.ConversationSessions {
		out.ConversationSessions[i] = *c.clone()
	}

	out.FilePreviews = make([]FilePreview, len(s.FilePreviews))
	for i, p := range s.FilePreviews {
		out.FilePreviews[i] = *p.clone()
	}

	out.ActiveAgentID = copyString(s.ActiveAgentID)
	out.WorkspaceError = copyString(s.WorkspaceError)

	return &out
}

func (a *AgentCore) clone() *AgentCore {
	out := *a
	out.Messages = append([]AgentMessage(nil), a.Messages...)
	if a.Position != nil {
		pos := *a.Position
		out.Position = &pos
	}
	if a.GridSpan != nil {
		span := *a.GridSpan
		out.GridSpan = &span
	}
	return &out
}

func (c *ConversationSession) clone() *ConversationSession {
	out := *c
	out.Messages = append([]AgentMessage(nil), c.Messages...)
	out.AttachedAgentIDs = append([]string(nil), c.AttachedAgentIDs...)
	if c.LastMessageAt != nil {
		t := *c.LastMessageAt
		out.LastMessageAt = &t
	}
	return &out
}

func (p *FilePreview) clone() *FilePreview {
	out := *p
	if p.GridSpan != nil {
		span := *p.GridSpan
		out.GridSpan = &span
	}
	return &out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
