// Package config provides configuration for the sync core and relay daemon.
//
// Environment variables are the primary source (envconfig tags with
// defaults); client sync options can also be layered from a YAML file via
// LoadSyncFile, with env values taking precedence when both are used.
//
// Recognized sync options:
//   - SYNC_ENABLED: disables all subscription/emission when false
//   - SYNC_AUTH_TOKEN: required to subscribe
//   - SYNC_WORKSPACE_ID: active workspace for scope filtering
//   - SYNC_SHOW_NOTIFICATIONS: suppresses toasts only, never invalidation
//   - SYNC_RELAY_URL, SYNC_TICKET_URL: relay endpoints
package config
