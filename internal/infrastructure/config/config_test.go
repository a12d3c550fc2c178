package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Sync config
	assert.True(t, cfg.Sync.Enabled)
	assert.True(t, cfg.Sync.ShowNotifications)
	assert.Empty(t, cfg.Sync.AuthToken)
	assert.Equal(t, "ws://localhost:8100/ws", cfg.Sync.RelayURL)

	// Relay config
	assert.Equal(t, "8100", cfg.Relay.Port)
	assert.Equal(t, "0.0.0.0", cfg.Relay.Host)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"SYNC_ENABLED":            "false",
		"SYNC_AUTH_TOKEN":         "tok-123",
		"SYNC_WORKSPACE_ID":       "w1",
		"SYNC_SHOW_NOTIFICATIONS": "false",
		"RELAY_PORT":              "9100",
		"LOG_LEVEL":               "debug",
	}

	for key, value := range envVars {
		err := os.Setenv(key, value)
		require.NoError(t, err)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Sync.Enabled)
	assert.Equal(t, "tok-123", cfg.Sync.AuthToken)
	assert.Equal(t, "w1", cfg.Sync.WorkspaceID)
	assert.False(t, cfg.Sync.ShowNotifications)
	assert.Equal(t, "9100", cfg.Relay.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadSyncFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.yaml")
	content := []byte("auth_token: file-token\nworkspace_id: w9\nshow_notifications: false\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadSyncFile(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.AuthToken)
	assert.Equal(t, "w9", cfg.WorkspaceID)
	assert.False(t, cfg.ShowNotifications)
	// Fields absent from the file keep defaults.
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "ws://localhost:8100/ws", cfg.RelayURL)
}

func TestLoadSyncFileMissing(t *testing.T) {
	_, err := LoadSyncFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
