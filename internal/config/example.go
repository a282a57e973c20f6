package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# tasklist configuration file
# Values can be overridden by TASKLIST_* environment variables or CLI flags

# Storage backend: file, sqlite, mysql or memory
store = "file"

# Data directory for the file store and the default SQLite database
# (supports ~ expansion and %VAR% on Windows)
data_dir = "~/.tasklist"

# Data source name: a database path for sqlite, a DSN for mysql
# dsn = "user:pass@tcp(localhost:3306)/tasklist"

# Key the task list is stored under
storage_key = "tasks"

# Save immediately after sorting (otherwise the order is saved with the next change)
persist_sort = false

# TUI theme: light or dark
theme = "dark"

# Logging
log_level = "info"      # debug, info, warn, error
log_format = "text"     # text, json, logfmt
log_timestamps = false
log_caller = false
`
}
