// Package storage persists small string values for the auth client.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage is the key/value surface the auth client persists its session through.
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open returns the Storage for driver, rooted at path.
func Open(driver, path string) (Storage, error) {
	switch driver {
	case "", DriverFile:
		return NewFileStore(path)
	case DriverSQLite:
		return NewSQLiteStore(path)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// DefaultPath returns the driver's default file under dir.
func DefaultPath(dir, driver string) string {
	if driver == DriverSQLite {
		return filepath.Join(dir, "session.db")
	}
	return filepath.Join(dir, "session.json")
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating storage dir: %w", err)
	}
	return nil
}

// MemoryStore keeps values for the life of the process.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]string)}
}

// GetItem returns the value stored under key and whether it exists.
func (m *MemoryStore) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

// SetItem stores value under key.
func (m *MemoryStore) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

// RemoveItem deletes key. A missing key is not an error.
func (m *MemoryStore) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
