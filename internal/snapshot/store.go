// Package snapshot persists small per-client blobs (the signed-in identity,
// the gateway session) across process restarts.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ecofinds/ecofinds-core/pkg/config"
	redisclient "github.com/ecofinds/ecofinds-core/pkg/redis"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("snapshot not found")

// Store is a keyed blob store scoped to one client.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Factory opens the store of one client.
type Factory func(clientID string) (Store, error)

// NewFactory picks the backend named by cfg.Backend. Redis requires a client.
func NewFactory(cfg config.SnapshotConfig, redis *redisclient.Client, ttl time.Duration) (Factory, error) {
	switch cfg.Backend {
	case config.SnapshotBackendFile:
		return func(clientID string) (Store, error) {
			return NewFileStore(cfg.Dir, clientID)
		}, nil
	case config.SnapshotBackendRedis:
		if redis == nil {
			return nil, fmt.Errorf("redis snapshot backend requires a redis client")
		}
		return func(clientID string) (Store, error) {
			return NewRedisStore(redis, clientID, ttl)
		}, nil
	case config.SnapshotBackendNone:
		return func(string) (Store, error) { return NewMemoryStore(), nil }, nil
	default:
		return nil, fmt.Errorf("unsupported snapshot backend %q", cfg.Backend)
	}
}

// MemoryStore keeps snapshots for the lifetime of the process.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
