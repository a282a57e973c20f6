// Package kv provides the key-value byte stores that task data is persisted to.
//
// Every backend implements Store. Values are opaque byte slices; a missing
// key is reported as ErrNotFound so callers can tell "absent" apart from a
// real I/O failure.
//
// Backends:
//   - file:   one file per key inside a directory (default)
//   - sqlite: a kv table in a SQLite database (modernc.org/sqlite, no cgo)
//   - mysql:  a kv table in a MySQL database
//   - memory: an in-process map, for tests and throwaway sessions
package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// Store is a key-value byte store.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	// Backend is one of file, sqlite, mysql, memory. Empty means file.
	Backend string
	// Dir is the data directory for the file backend and the default
	// location of the SQLite database.
	Dir string
	// DSN is the data source name for sqlite (a path) or mysql.
	DSN string
}

// Backends returns the accepted backend names.
func Backends() []string {
	return []string{BackendFile, BackendSQLite, BackendMySQL, BackendMemory}
}

// Open opens the backend named in opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		return NewFileStore(opts.Dir)
	case BackendSQLite:
		dsn := opts.DSN
		if dsn == "" {
			dsn = DefaultSQLitePath(opts.Dir)
			if opts.Dir != "" {
				if err := os.MkdirAll(opts.Dir, 0755); err != nil {
					return nil, fmt.Errorf("create data dir: %w", err)
				}
			}
		}
		return NewSQLiteStore(ctx, dsn)
	case BackendMySQL:
		if opts.DSN == "" {
			return nil, fmt.Errorf("mysql backend requires a dsn")
		}
		return NewMySQLStore(ctx, opts.DSN)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (expected %s)", opts.Backend, strings.Join(Backends(), "|"))
	}
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("empty key")
	}
	return nil
}
