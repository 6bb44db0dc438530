// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/bazarle/bazarle-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete bazarle-tui configuration.
type Config struct {
	// API configuration (REST + websocket endpoints and credentials)
	API APIConfig `toml:"api"`

	// Cache configuration (local conversation history)
	Cache CacheConfig `toml:"cache"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// APIConfig contains server endpoint configuration.
type APIConfig struct {
	// BaseURL is the REST API endpoint
	BaseURL string `toml:"base_url"`
	// SocketURL is the websocket endpoint for the persistent channel
	SocketURL string `toml:"socket_url"`
	// Token is the bearer token for both channels
	Token string `toml:"token"`
	// TimeoutSecs is the per-request timeout for REST calls
	TimeoutSecs int `toml:"timeout_secs"`
}

// CacheConfig contains local history cache configuration.
type CacheConfig struct {
	// Enabled controls whether conversation history is cached locally
	Enabled bool `toml:"enabled"`
	// Path is the cache database location (empty = ~/.bazarle/cache.db)
	Path string `toml:"path"`
	// MaxMessages caps cached messages per conversation
	MaxMessages int `toml:"max_messages"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// CompactMode uses a denser message layout
	CompactMode bool `toml:"compact_mode"`
	// ShowTyping displays the peer's typing indicator
	ShowTyping bool `toml:"show_typing"`
	// ShowSeen displays seen ticks on outgoing messages
	ShowSeen bool `toml:"show_seen"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "https://api.bazarle.com",
			SocketURL:   "wss://api.bazarle.com/socket",
			TimeoutSecs: 15,
		},
		Cache: CacheConfig{
			Enabled:     true,
			MaxMessages: 1000,
		},
		UI: UIConfig{
			Theme:      "dark",
			ShowTyping: true,
			ShowSeen:   true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the bazarle configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".bazarle"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDir ensures the config directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions tightens config file permissions. The file holds
// the session token, so anything wider than 0600 gets fixed.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file, falling back to
// built-in defaults when the file does not exist. Environment overrides are
// applied last.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with defaults,
// environment overrides, and validation applied.
func LoadFromPath(path string) (*Config, error) {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.SocketURL == "" {
		c.API.SocketURL = defaults.API.SocketURL
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}

	if c.Cache.MaxMessages == 0 {
		c.Cache.MaxMessages = defaults.Cache.MaxMessages
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - BAZARLE_API_URL: overrides api.base_url
//   - BAZARLE_SOCKET_URL: overrides api.socket_url
//   - BAZARLE_TOKEN: overrides api.token
//   - BAZARLE_THEME: overrides ui.theme
//   - BAZARLE_NO_CACHE: set to "1" or "true" to disable the history cache
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("BAZARLE_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("BAZARLE_SOCKET_URL"); v != "" {
		c.API.SocketURL = v
	}
	if v := os.Getenv("BAZARLE_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("BAZARLE_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("BAZARLE_NO_CACHE"); v != "" {
		if v == "1" || strings.EqualFold(v, "true") {
			c.Cache.Enabled = false
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" {
		return ValidationError{Field: "api.base_url", Message: fmt.Sprintf("invalid URL %q", c.API.BaseURL)}
	}
	if u, err := url.Parse(c.API.SocketURL); err != nil || u.Scheme == "" {
		return ValidationError{Field: "api.socket_url", Message: fmt.Sprintf("invalid URL %q", c.API.SocketURL)}
	}
	if c.API.TimeoutSecs < 0 {
		return ValidationError{Field: "api.timeout_secs", Message: "must be non-negative"}
	}
	if c.Cache.MaxMessages < 0 {
		return ValidationError{Field: "cache.max_messages", Message: "must be non-negative"}
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		return ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		}
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo saves the configuration to a TOML file. The write is atomic and
// the file ends up 0600 because it carries the session token.
func SaveTo(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# bazarle-tui configuration file\n")
	buf.WriteString("# Generated by bazarle-tui - edit with care\n")
	buf.WriteString("\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
