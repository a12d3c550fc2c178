package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the sync core and the relay daemon.
type Config struct {
	Sync      SyncConfig
	Relay     RelayConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// SyncConfig holds the client-side synchronization options.
type SyncConfig struct {
	// Enabled disables all subscription and emission when false.
	Enabled bool `envconfig:"SYNC_ENABLED" default:"true" yaml:"enabled"`
	// AuthToken is required to subscribe; absence keeps the coordinator
	// disabled.
	AuthToken string `envconfig:"SYNC_AUTH_TOKEN" yaml:"auth_token"`
	// WorkspaceID is the active workspace used for scope filtering.
	WorkspaceID string `envconfig:"SYNC_WORKSPACE_ID" yaml:"workspace_id"`
	// ShowNotifications suppresses only user-visible toasts, never cache
	// invalidation or state patching.
	ShowNotifications bool `envconfig:"SYNC_SHOW_NOTIFICATIONS" default:"true" yaml:"show_notifications"`
	// RelayURL is the websocket endpoint of the relay daemon.
	RelayURL string `envconfig:"SYNC_RELAY_URL" default:"ws://localhost:8100/ws" yaml:"relay_url"`
	// TicketURL, when set, is the HTTP endpoint exchanged for a one-shot
	// connection ticket before dialing the relay.
	TicketURL string `envconfig:"SYNC_TICKET_URL" yaml:"ticket_url"`
}

// RelayConfig holds relay daemon configuration.
type RelayConfig struct {
	Port string `envconfig:"RELAY_PORT" default:"8100"`
	Host string `envconfig:"RELAY_HOST" default:"0.0.0.0"`
	// AuthToken gates connections when set. Empty leaves the relay open,
	// intended for local development only.
	AuthToken string `envconfig:"RELAY_AUTH_TOKEN"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds relay rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Sync: SyncConfig{
			Enabled:           true,
			ShowNotifications: true,
			RelayURL:          "ws://localhost:8100/ws",
		},
		Relay: RelayConfig{
			Port: "8100",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// LoadSyncFile reads client sync options from a YAML file, layered over the
// defaults. Fields absent from the file keep their default values.
func LoadSyncFile(path string) (SyncConfig, error) {
	cfg := Default().Sync

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read sync options: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse sync options: %w", err)
	}
	return cfg, nil
}
