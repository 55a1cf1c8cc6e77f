package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSStore implements Store on a NATS JetStream KV bucket.
type NATSStore struct {
	conn    *nats.Conn
	kv      jetstream.KeyValue
	timeout time.Duration
	owned   bool
	closed  atomic.Bool
}

// NATSStoreConfig holds NATS KV store configuration.
type NATSStoreConfig struct {
	// URL is the server to dial when Conn is nil.
	URL string

	// Conn is an existing connection to reuse. It is not closed by Close.
	Conn *nats.Conn

	// Bucket is the KV bucket name.
	Bucket string

	// Timeout bounds every KV call. Default: 5s
	Timeout time.Duration
}

// DefaultNATSStoreConfig returns configuration with sensible defaults.
func DefaultNATSStoreConfig() NATSStoreConfig {
	return NATSStoreConfig{
		URL:     nats.DefaultURL,
		Bucket:  "simpletodo",
		Timeout: 5 * time.Second,
	}
}

// NewNATSStore connects to NATS and binds (or creates) the KV bucket.
func NewNATSStore(cfg NATSStoreConfig) (*NATSStore, error) {
	def := DefaultNATSStoreConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.Bucket == "" {
		cfg.Bucket = def.Bucket
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	conn := cfg.Conn
	owned := false
	if conn == nil {
		var err error
		conn, err = nats.Connect(cfg.URL, nats.Name("simpletodo"))
		if err != nil {
			return nil, fmt.Errorf("nats store: connect %s: %w", cfg.URL, err)
		}
		owned = true
	}

	js, err := jetstream.New(conn)
	if err != nil {
		if owned {
			conn.Close()
		}
		return nil, fmt.Errorf("nats store: jetstream: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  cfg.Bucket,
		History: 1,
	})
	if err != nil {
		if owned {
			conn.Close()
		}
		return nil, fmt.Errorf("nats store: create kv bucket: %w", err)
	}

	return &NATSStore{
		conn:    conn,
		kv:      kv,
		timeout: cfg.Timeout,
		owned:   owned,
	}, nil
}

// Get retrieves a value by key.
func (s *NATSStore) Get(key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("nats store: kv get: %w", err)
	}
	return entry.Value(), nil
}

// Put stores a value.
func (s *NATSStore) Put(key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("nats store: kv put: %w", err)
	}
	return nil
}

// Close drains the connection if the store dialed it.
func (s *NATSStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.owned {
		return s.conn.Drain()
	}
	return nil
}
