package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ecofinds/ecofinds-core/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFileStore(root, "client-1")
	require.NoError(t, err)

	_, err = store.Load(ctx, "ecofinds_current_user")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, "ecofinds_current_user", []byte(`{"id":"1"}`)))
	data, err := store.Load(ctx, "ecofinds_current_user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1"}`, string(data))

	_, err = os.Stat(filepath.Join(root, "client-1", "ecofinds_current_user.json.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")

	reopened, err := NewFileStore(root, "client-1")
	require.NoError(t, err)
	data, err = reopened.Load(ctx, "ecofinds_current_user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1"}`, string(data))

	require.NoError(t, store.Delete(ctx, "ecofinds_current_user"))
	require.NoError(t, store.Delete(ctx, "ecofinds_current_user"))
	_, err = store.Load(ctx, "ecofinds_current_user")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreRejectsPathTraversal(t *testing.T) {
	_, err := NewFileStore(t.TempDir(), "../escape")
	require.Error(t, err)

	store, err := NewFileStore(t.TempDir(), "client")
	require.NoError(t, err)
	require.Error(t, store.Save(context.Background(), "../../etc", []byte("x")))
}

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) SnapshotKey(clientID, name string) string {
	return "ef:snapshot:" + clientID + ":" + name
}

func TestRedisStoreScopesKeysPerClient(t *testing.T) {
	ctx := context.Background()
	backend := newFakeRedis()
	a, err := newRedisStore(backend, "a", time.Hour)
	require.NoError(t, err)
	b, err := newRedisStore(backend, "b", time.Hour)
	require.NoError(t, err)

	require.NoError(t, a.Save(ctx, "ecofinds_current_user", []byte("alice")))
	assert.Equal(t, time.Hour, backend.ttls["ef:snapshot:a:ecofinds_current_user"])

	_, err = b.Load(ctx, "ecofinds_current_user")
	assert.ErrorIs(t, err, ErrNotFound)

	data, err := a.Load(ctx, "ecofinds_current_user")
	require.NoError(t, err)
	assert.Equal(t, "alice", string(data))

	require.NoError(t, a.Delete(ctx, "ecofinds_current_user"))
	_, err = a.Load(ctx, "ecofinds_current_user")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = newRedisStore(backend, "", time.Hour)
	require.Error(t, err)
}

func TestNewFactory(t *testing.T) {
	_, err := NewFactory(config.SnapshotConfig{Backend: config.SnapshotBackendRedis}, nil, time.Hour)
	require.Error(t, err)

	_, err = NewFactory(config.SnapshotConfig{Backend: "s3"}, nil, time.Hour)
	require.Error(t, err)

	factory, err := NewFactory(config.SnapshotConfig{Backend: config.SnapshotBackendNone}, nil, time.Hour)
	require.NoError(t, err)
	store, err := factory("anything")
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), "k", []byte("v")))

	factory, err = NewFactory(config.SnapshotConfig{Backend: config.SnapshotBackendFile, Dir: t.TempDir()}, nil, time.Hour)
	require.NoError(t, err)
	_, err = factory("client-2")
	require.NoError(t, err)
}
