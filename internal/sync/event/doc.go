// Package event defines the closed set of messages carried on the sync
// channel and their wire codec.
//
// The nine event kinds form a tagged union behind the Event interface, so
// dispatch code switches exhaustively over concrete types and adding a kind
// is a compile-time-visible change rather than a new string key.
//
// Event Kinds (Extension Lifecycle):
//   - extension_installed, extension_uninstalled, extension_toggled,
//     extension_settings_changed: cache invalidation signals
//
// Event Kinds (Layout Sync):
//   - view_mode_sync, active_agent_sync: session scalars
//   - agent_grid_span_sync, agent_position_sync: per-agent layout
//   - file_preview_layout_sync: per-preview partial patch
//
// Wire Format:
//
//	{"type": "...", "scope": "account"|"workspace", "workspace_id": "...", "payload": {...}}
//
// Optional patch fields are pointer-typed: nil means absent, never zero.
package event
