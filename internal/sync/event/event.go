package event

import (
	"github.com/loomworks/agentboard/internal/shared/types"
)

// Scope determines how widely an event applies: account-scoped events apply
// regardless of which workspace the client has open, workspace-scoped events
// only when the workspace id matches.
type Scope string

const (
	ScopeAccount   Scope = "account"
	ScopeWorkspace Scope = "workspace"
)

// Kind identifies one of the closed set of event types on the channel
type Kind string

const (
	KindExtensionInstalled       Kind = "extension_installed"
	KindExtensionUninstalled     Kind = "extension_uninstalled"
	KindExtensionToggled         Kind = "extension_toggled"
	KindExtensionSettingsChanged Kind = "extension_settings_changed"
	KindViewMode                 Kind = "view_mode_sync"
	KindActiveAgent              Kind = "active_agent_sync"
	KindAgentGridSpan            Kind = "agent_grid_span_sync"
	KindAgentPosition            Kind = "agent_position_sync"
	KindFilePreviewLayout        Kind = "file_preview_layout_sync"
)

// Topics multiplexed on the event channel. Layout sync shares one topic;
// extension lifecycle events each get their own so handlers can be
// subscribed and released as a unit of four.
const (
	TopicLayout                   = "workspace.layout"
	TopicExtensionInstalled       = "extensions.installed"
	TopicExtensionUninstalled     = "extensions.uninstalled"
	TopicExtensionToggled         = "extensions.toggled"
	TopicExtensionSettingsChanged = "extensions.settings"
)

// ExtensionTopics lists the four extension lifecycle topics in subscription order.
var ExtensionTopics = []string{
	TopicExtensionInstalled,
	TopicExtensionUninstalled,
	TopicExtensionToggled,
	TopicExtensionSettingsChanged,
}

// Event is the closed union of all channel event kinds. Only types in this
// package implement it, so a switch over concrete types can be exhaustive.
type Event interface {
	Kind() Kind
	EventScope() Scope
	EventWorkspace() string
	isEvent()
}

// Meta carries the scope envelope shared by every event kind. It is encoded
// on the envelope, not in the payload.
type Meta struct {
	Scope       Scope  `json:"-"`
	WorkspaceID string `json:"-"`
}

func (m Meta) EventScope() Scope      { return m.Scope }
func (m Meta) EventWorkspace() string { return m.WorkspaceID }
func (Meta) isEvent()                 {}

// WorkspaceMeta builds a workspace-scoped Meta.
func WorkspaceMeta(workspaceID string) Meta {
	return Meta{Scope: ScopeWorkspace, WorkspaceID: workspaceID}
}

// AccountMeta builds an account-scoped Meta.
func AccountMeta() Meta {
	return Meta{Scope: ScopeAccount}
}

// ExtensionInstalled signals that an extension was installed.
// Invalidates the installed-extensions cache; may notify.
type ExtensionInstalled struct {
	Meta
	DisplayName string `json:"display_name"`
}

func (ExtensionInstalled) Kind() Kind { return KindExtensionInstalled }

// ExtensionUninstalled signals that an extension was removed.
type ExtensionUninstalled struct {
	Meta
}

func (ExtensionUninstalled) Kind() Kind { return KindExtensionUninstalled }

// ExtensionToggled signals that an extension was enabled or disabled.
type ExtensionToggled struct {
	Meta
	Enabled bool `json:"enabled"`
}

func (ExtensionToggled) Kind() Kind { return KindExtensionToggled }

// ExtensionSettingsChanged signals an extension settings update.
// Cache invalidation only, never a notification.
type ExtensionSettingsChanged struct {
	Meta
}

func (ExtensionSettingsChanged) Kind() Kind { return KindExtensionSettingsChanged }

// ViewModeSync patches Session.ViewMode.
type ViewModeSync struct {
	Meta
	SessionID string         `json:"session_id"`
	ViewMode  types.ViewMode `json:"view_mode"`
}

func (ViewModeSync) Kind() Kind { return KindViewMode }

// ActiveAgentSync patches Session.ActiveAgentID. A nil AgentID clears it.
type ActiveAgentSync struct {
	Meta
	SessionID string  `json:"session_id"`
	AgentID   *string `json:"agent_id"`
}

func (ActiveAgentSync) Kind() Kind { return KindActiveAgent }

// AgentGridSpanSync patches one agent's GridSpan.
type AgentGridSpanSync struct {
	Meta
	SessionID string         `json:"session_id"`
	AgentID   string         `json:"agent_id"`
	GridSpan  types.GridSpan `json:"grid_span"`
}

func (AgentGridSpanSync) Kind() Kind { return KindAgentGridSpan }

// AgentPositionSync patches one agent's Position.
type AgentPositionSync struct {
	Meta
	SessionID string         `json:"session_id"`
	AgentID   string         `json:"agent_id"`
	Position  types.Position `json:"position"`
}

func (AgentPositionSync) Kind() Kind { return KindAgentPosition }

// PreviewPatch is a partial update to one file preview. Nil fields are
// absent, not zero: only present fields are applied and only present fields
// go on the wire.
type PreviewPatch struct {
	GridSpan *types.GridSpan `json:"grid_span,omitempty"`
	Docked   *bool           `json:"docked,omitempty"`
	Pinned   *bool           `json:"pinned,omitempty"`
	Path     *string         `json:"path,omitempty"`
}

// Empty reports whether no field is present.
func (p PreviewPatch) Empty() bool {
	return p.GridSpan == nil && p.Docked == nil && p.Pinned == nil && p.Path == nil
}

// FilePreviewLayoutSync patches one file preview with the present fields only.
type FilePreviewLayoutSync struct {
	Meta
	SessionID string `json:"session_id"`
	PreviewID string `json:"preview_id"`
	PreviewPatch
}

func (FilePreviewLayoutSync) Kind() Kind { return KindFilePreviewLayout }

// Topic returns the channel topic an event kind travels on.
func Topic(k Kind) string {
	switch k {
	case KindExtensionInstalled:
		return TopicExtensionInstalled
	case KindExtensionUninstalled:
		return TopicExtensionUninstalled
	case KindExtensionToggled:
		return TopicExtensionToggled
	case KindExtensionSettingsChanged:
		return TopicExtensionSettingsChanged
	default:
		return TopicLayout
	}
}
