// Package storage persists small client values across runs: the bearer
// token and UI preferences. Two backends share the Storage interface, a TOML
// file and a SQLite key/value table.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Well-known keys.
const (
	KeyToken = "token"
	KeyTheme = "theme"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

const (
	defaultFilePath   = "~/.local/share/aula/storage.toml"
	defaultSQLitePath = "~/.local/share/aula/aula.db"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Storage is a durable string key/value store.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	Close() error
}

// Open returns the backend named by backend rooted at path. An empty path
// selects the backend's default location.
func Open(backend, path string) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		if strings.TrimSpace(path) == "" {
			path = defaultFilePath
		}
		return NewFile(path)
	case BackendSQLite:
		if strings.TrimSpace(path) == "" {
			path = defaultSQLitePath
		}
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// DefaultPath returns the default location for backend.
func DefaultPath(backend string) string {
	if strings.EqualFold(strings.TrimSpace(backend), BackendSQLite) {
		return defaultSQLitePath
	}
	return defaultFilePath
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if trimmed == ":memory:" {
		return trimmed, nil
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
