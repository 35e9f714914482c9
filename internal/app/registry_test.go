package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ecofinds/ecofinds-core/internal/catalog"
	"github.com/ecofinds/ecofinds-core/internal/snapshot"
	"github.com/ecofinds/ecofinds-core/pkg/config"
	"github.com/ecofinds/ecofinds-core/pkg/gateway"
	"github.com/ecofinds/ecofinds-core/pkg/gateway/gatewaytest"
	"github.com/ecofinds/ecofinds-core/pkg/gateway/sqlgateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// snapshots hands every client the same memory store across evictions.
type snapshots struct {
	mu     sync.Mutex
	stores map[string]*snapshot.MemoryStore
}

func (s *snapshots) open(clientID string) (snapshot.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stores == nil {
		s.stores = map[string]*snapshot.MemoryStore{}
	}
	st, ok := s.stores[clientID]
	if !ok {
		st = snapshot.NewMemoryStore()
		s.stores[clientID] = st
	}
	return st, nil
}

type harness struct {
	env      *gatewaytest.Env
	clock    *clock
	registry *Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	env := gatewaytest.NewEnv(t)
	cache, err := catalog.NewCache(catalog.CacheParams{Gateway: env.Gateway(t)})
	require.NoError(t, err)
	require.NoError(t, cache.Refresh(context.Background()))

	h := &harness{env: env, clock: &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}}
	store := &snapshots{}
	h.registry, err = NewRegistry(RegistryParams{
		Gateways: func(p gateway.SessionPersistence) (gateway.Gateway, error) {
			return sqlgateway.New(sqlgateway.Options{
				DB:          env.DB,
				Sessions:    env.Sessions,
				JWT:         gatewaytest.JWT,
				Password:    gatewaytest.Password,
				Persistence: p,
			})
		},
		Snapshots: store.open,
		Cache:     cache,
		IdleTTL:   10 * time.Minute,
		Now:       h.clock.Now,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.registry.Close() })
	return h
}

func (h *harness) app(t *testing.T, clientID string) *App {
	t.Helper()
	a, err := h.registry.Get(context.Background(), clientID)
	require.NoError(t, err)
	a.Wait()
	return a
}

func TestNewRegistryRequiresDependencies(t *testing.T) {
	_, err := NewRegistry(RegistryParams{})
	require.Error(t, err)
}

func TestGetReusesApp(t *testing.T) {
	h := newHarness(t)

	first := h.app(t, "client-a")
	again := h.app(t, "client-a")
	other := h.app(t, "client-b")

	assert.Same(t, first, again)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, h.registry.Len())
	assert.False(t, first.Session.Loading())
	assert.Nil(t, first.Session.Current())
}

func TestClientsHaveSeparateSessions(t *testing.T) {
	h := newHarness(t)
	gatewaytest.Register(t, h.env.Gateway(t), "alice@example.com", "password123", "alice")
	ctx := context.Background()

	a := h.app(t, "client-a")
	b := h.app(t, "client-b")
	require.True(t, a.Session.Login(ctx, "alice@example.com", "password123"))
	a.Wait()

	require.NotNil(t, a.Session.Current())
	assert.Equal(t, "alice", a.Session.Current().Username)
	assert.Nil(t, b.Session.Current())
}

func TestEvictedClientRestoresSession(t *testing.T) {
	h := newHarness(t)
	gatewaytest.Register(t, h.env.Gateway(t), "alice@example.com", "password123", "alice")
	ctx := context.Background()

	a := h.app(t, "client-a")
	require.True(t, a.Session.Login(ctx, "alice@example.com", "password123"))
	a.Wait()

	h.clock.Advance(5 * time.Minute)
	assert.Zero(t, h.registry.Evict(ctx))

	h.clock.Advance(6 * time.Minute)
	assert.Equal(t, 1, h.registry.Evict(ctx))
	_, ok := h.registry.Lookup("client-a")
	assert.False(t, ok)

	restored := h.app(t, "client-a")
	assert.NotSame(t, a, restored)
	require.NotNil(t, restored.Session.Current())
	assert.Equal(t, "alice@example.com", restored.Session.Current().Email)
}

func TestTouchKeepsAppAlive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.app(t, "client-a")
	h.clock.Advance(8 * time.Minute)
	h.app(t, "client-a")
	h.clock.Advance(8 * time.Minute)

	assert.Zero(t, h.registry.Evict(ctx))
	assert.Equal(t, 1, h.registry.Len())
}

func TestClosedRegistryRejectsClients(t *testing.T) {
	h := newHarness(t)
	h.app(t, "client-a")

	require.NoError(t, h.registry.Close())
	assert.Zero(t, h.registry.Len())
	_, err := h.registry.Get(context.Background(), "client-a")
	require.Error(t, err)
}

func TestNewClientIDIsUnique(t *testing.T) {
	assert.NotEqual(t, NewClientID(), NewClientID())
}

func TestNewGatewayFactory(t *testing.T) {
	env := gatewaytest.NewEnv(t)

	_, err := NewGatewayFactory(GatewayDeps{})
	require.Error(t, err)

	_, err = NewGatewayFactory(GatewayDeps{Config: &config.Config{Gateway: config.GatewayConfig{Mode: config.GatewayModeSQL}}})
	require.Error(t, err, "sql mode needs a database")

	_, err = NewGatewayFactory(GatewayDeps{Config: &config.Config{Gateway: config.GatewayConfig{Mode: "carrier-pigeon"}}})
	require.Error(t, err)

	sqlFactory, err := NewGatewayFactory(GatewayDeps{
		Config: &config.Config{
			Gateway:  config.GatewayConfig{Mode: config.GatewayModeSQL},
			JWT:      gatewaytest.JWT,
			Password: gatewaytest.Password,
		},
		DB:       env.DB,
		Sessions: env.Sessions,
	})
	require.NoError(t, err)
	gw, err := sqlFactory(nil)
	require.NoError(t, err)
	assert.IsType(t, &sqlgateway.Gateway{}, gw)

	restFactory, err := NewGatewayFactory(GatewayDeps{Config: &config.Config{
		Gateway: config.GatewayConfig{Mode: config.GatewayModeREST, URL: "https://backend.example.com", AnonKey: "anon"},
	}})
	require.NoError(t, err)
	gw, err = restFactory(snapshot.NewMemoryStore())
	require.NoError(t, err)
	assert.NotNil(t, gw)
}
