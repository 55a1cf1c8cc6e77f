// Package storage provides the key-value slot the task collection is persisted in.
//
// A Store holds opaque values under string keys. The repository keeps its whole
// collection under a single key and rewrites it on every mutation, so backends
// only need whole-value get and put.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendNATS   = "nats"
)

// Common errors.
var (
	ErrNotFound   = errors.New("key not found")
	ErrClosed     = errors.New("store closed")
	ErrInvalidKey = errors.New("invalid key")
)

// Store is a synchronous key-value store.
type Store interface {
	// Get returns the value stored under key.
	// Returns ErrNotFound if the key has never been written.
	Get(key string) ([]byte, error)

	// Put replaces the value stored under key.
	Put(key string, value []byte) error

	// Close releases the store. Further calls return ErrClosed.
	Close() error
}

// keyPattern is the intersection of what every backend accepts:
// file names, bolt/sqlite keys and NATS KV keys.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_=-]+(\.[A-Za-z0-9_=-]+)*$`)

// ValidateKey checks if a key is usable by every backend.
func ValidateKey(key string) error {
	if len(key) > 255 || !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Config selects and configures a backend.
type Config struct {
	// Backend is one of the Backend* names. Empty means BackendFile.
	Backend string

	// Dir is the data directory used by the file, bolt and sqlite backends.
	Dir string

	// NATSURL is the server URL for the nats backend.
	NATSURL string

	// NATSBucket is the JetStream KV bucket for the nats backend.
	NATSBucket string
}

// Open creates the store described by cfg.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendBolt:
		return NewBoltStore(filepath.Join(cfg.Dir, "tasks.db"))
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(cfg.Dir, "tasks.sqlite"))
	case BackendNATS:
		return NewNATSStore(NATSStoreConfig{URL: cfg.NATSURL, Bucket: cfg.NATSBucket})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
