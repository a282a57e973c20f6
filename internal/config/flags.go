package config

import (
	"flag"
	"strings"

	"github.com/nibzard/tasklist-go/internal/kv"
)

// parseFlags defines the global flags on fs, parses args and applies the
// flags that were explicitly set. If sources is non-nil, it tracks the
// source of each value.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("tasklist", flag.ContinueOnError)
	}

	// Defaults shown in -help reflect the lower layers.
	v := *cfg

	fs.StringVar(&v.Store, "store", v.Store, "Storage backend ("+strings.Join(kv.Backends(), ", ")+")")
	fs.StringVar(&v.DataDir, "data-dir", v.DataDir, "Data directory for the file and sqlite stores")
	fs.StringVar(&v.DSN, "dsn", v.DSN, "Data source name (sqlite path or mysql DSN)")
	fs.StringVar(&v.StorageKey, "key", v.StorageKey, "Key the task list is stored under")
	fs.BoolVar(&v.PersistSort, "persist-sort", v.PersistSort, "Save immediately after sorting")
	fs.StringVar(&v.Theme, "theme", v.Theme, "TUI theme (light, dark)")

	// Logging
	fs.StringVar(&v.LogLevel, "log-level", v.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&v.LogFormat, "log-format", v.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&v.LogTimestamps, "log-timestamps", v.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&v.LogCaller, "log-caller", v.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Map flag names to source field names
	flagToField := map[string]string{
		"store":          "store",
		"data-dir":       "data_dir",
		"dsn":            "dsn",
		"key":            "storage_key",
		"persist-sort":   "persist_sort",
		"theme":          "theme",
		"log-level":      "log_level",
		"log-format":     "log_format",
		"log-timestamps": "log_timestamps",
		"log-caller":     "log_caller",
	}

	*cfg = v
	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if field, ok := flagToField[f.Name]; ok {
				sources[field] = SourceFlag
			}
		})
	}

	return nil
}
