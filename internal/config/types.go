package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nibzard/tasklist-go/internal/kv"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource

	// Files lists the config files that were read, lowest priority first.
	Files []string
	// Unknown lists keys found in config files that no field uses.
	Unknown []string
}

// Default values.
const (
	DefaultStore      = kv.BackendFile
	DefaultDataDir    = "~/.tasklist"
	DefaultStorageKey = "tasks"
	DefaultTheme      = ThemeDark
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Config holds the full configuration for tasklist.
type Config struct {
	// Storage
	Store      string `toml:"store"`
	DataDir    string `toml:"data_dir"`
	DSN        string `toml:"dsn"`
	StorageKey string `toml:"storage_key"`

	// Save after every explicit sort instead of waiting for the next mutation.
	PersistSort bool `toml:"persist_sort"`

	// TUI theme: light or dark. Toggling in the TUI is not written back.
	Theme string `toml:"theme"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// KVOptions returns the options for opening the configured key-value store.
func (c *Config) KVOptions() kv.Options {
	return kv.Options{Backend: c.Store, Dir: c.DataDir, DSN: c.DSN}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	if !slices.Contains(kv.Backends(), c.Store) {
		return fmt.Errorf("store: unknown backend %q (want %s)", c.Store, strings.Join(kv.Backends(), ", "))
	}
	if c.Store == kv.BackendMySQL && c.DSN == "" {
		return fmt.Errorf("dsn: required for the mysql store")
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return fmt.Errorf("storage_key: must not be empty")
	}
	if c.Theme != ThemeLight && c.Theme != ThemeDark {
		return fmt.Errorf("theme: unknown theme %q (want light or dark)", c.Theme)
	}
	return nil
}
