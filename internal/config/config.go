// Package config holds tool configuration and its koanf-based loading:
// defaults, then searchlens.yaml, then SEARCHLENS_* environment variables,
// then CLI flags, each layer overriding the previous.
package config

import (
	"os"
	"path/filepath"
)

// Defaults.
const (
	DefaultAccount      = "default"
	DefaultMaxRowLimit  = 100000
	DefaultLimit        = 1000
	DefaultServeAddr    = ":8080"
	DefaultOutputFormat = "table"
)

// ConfigDirName is the per-user directory holding state, presets, and
// credentials.
const ConfigDirName = ".searchlens"

// Config is the resolved tool configuration.
type Config struct {
	// SiteURL overrides the persisted site selection when set.
	SiteURL string `koanf:"site_url"`

	// Account names the token slot in the state store.
	Account string `koanf:"account"`

	// StatePath is the SQLite state database location.
	StatePath string `koanf:"state_path"`

	// PresetsPath is the user presets YAML file.
	PresetsPath string `koanf:"presets_path"`

	// CredentialsPath is the OAuth client credentials JSON.
	CredentialsPath string `koanf:"credentials_path"`

	// MaxRowLimit caps every query's row limit.
	MaxRowLimit int `koanf:"max_row_limit"`

	// DefaultLimit applies when a request specifies none.
	DefaultLimit int `koanf:"default_limit"`

	// ServeAddr is the REST facade listen address.
	ServeAddr string `koanf:"serve_addr"`

	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
}

// HomeDir returns the per-user config directory, creating nothing.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ConfigDirName
	}
	return filepath.Join(home, ConfigDirName)
}

// DefaultStatePath is the default SQLite location.
func DefaultStatePath() string {
	return filepath.Join(HomeDir(), "state.db")
}

// DefaultPresetsPath is the default user presets file.
func DefaultPresetsPath() string {
	return filepath.Join(HomeDir(), "presets.yaml")
}

// DefaultCredentialsPath is the default OAuth client credentials file.
func DefaultCredentialsPath() string {
	return filepath.Join(HomeDir(), "credentials.json")
}
