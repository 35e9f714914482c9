package snapshot

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/ecofinds/ecofinds-core/pkg/redis"
)

type redisBackend interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SnapshotKey(clientID, name string) string
}

// RedisStore keeps snapshots in Redis with a sliding TTL refreshed on save.
type RedisStore struct {
	client   redisBackend
	clientID string
	ttl      time.Duration
}

func NewRedisStore(client *redisclient.Client, clientID string, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newRedisStore(client, clientID, ttl)
}

func newRedisStore(client redisBackend, clientID string, ttl time.Duration) (*RedisStore, error) {
	if clientID == "" {
		return nil, fmt.Errorf("client id is required")
	}
	return &RedisStore{client: client, clientID: clientID, ttl: ttl}, nil
}

func (r *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.client.SnapshotKey(r.clientID, key))
	if redisclient.IsMiss(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

func (r *RedisStore) Save(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, r.client.SnapshotKey(r.clientID, key), string(data), r.ttl)
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.client.SnapshotKey(r.clientID, key))
}
