package config

import (
	"os"
	"strings"
)

// EnvPrefix prefixes every environment variable tasklist reads.
const EnvPrefix = "TASKLIST_"

// envBinding maps an environment variable to a config field.
type envBinding struct {
	field string
	apply func(cfg *Config, v string)
}

func envBindings() []envBinding {
	return []envBinding{
		{"store", func(cfg *Config, v string) { cfg.Store = v }},
		{"data_dir", func(cfg *Config, v string) { cfg.DataDir = v }},
		{"dsn", func(cfg *Config, v string) { cfg.DSN = v }},
		{"storage_key", func(cfg *Config, v string) { cfg.StorageKey = v }},
		{"persist_sort", func(cfg *Config, v string) { cfg.PersistSort = boolFromString(v) }},
		{"theme", func(cfg *Config, v string) { cfg.Theme = v }},
		{"log_level", func(cfg *Config, v string) { cfg.LogLevel = v }},
		{"log_format", func(cfg *Config, v string) { cfg.LogFormat = v }},
		{"log_timestamps", func(cfg *Config, v string) { cfg.LogTimestamps = boolFromString(v) }},
		{"log_caller", func(cfg *Config, v string) { cfg.LogCaller = boolFromString(v) }},
	}
}

// EnvName returns the environment variable for a config field.
func EnvName(field string) string {
	return EnvPrefix + strings.ToUpper(field)
}

// loadFromEnv overrides config from TASKLIST_* environment variables.
// If sources is non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	for _, b := range envBindings() {
		v := os.Getenv(EnvName(b.field))
		if v == "" {
			continue
		}
		b.apply(cfg, v)
		if sources != nil {
			sources[b.field] = SourceEnv
		}
	}
}

func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
