// Package types provides shared data structures for the Agentboard sync core.
//
// This package defines the session model mirrored on every connected client,
// ensuring all components agree on shape and JSON encoding.
//
// Core Types:
//   - Session: One open collaborative workspace
//   - AgentCore: Agent tile with status, transcript, and layout
//   - ConversationSession: Shared conversation attached to agents
//   - FilePreview: File preview tile with dock/pin state
//
// Layout Types:
//   - GridSpan: Column/row span of a tile (positive integers)
//   - Position: Free-form tile placement
//   - ViewMode: Session layout mode (grid, focus, conversation)
//
// Sessions are owned exclusively by the store package; every other component
// holds clones or ids, never live pointers into store state.
package types
