package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ecofinds/ecofinds-core/internal/catalog"
	"github.com/ecofinds/ecofinds-core/internal/snapshot"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
	"github.com/ecofinds/ecofinds-core/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

type RegistryParams struct {
	Gateways GatewayFactory
	// Snapshots opens the per-client snapshot store. Nil keeps nothing
	// across restarts.
	Snapshots   snapshot.Factory
	SnapshotKey string
	Cache       *catalog.Cache
	SearchDelay time.Duration
	// IdleTTL evicts Apps unused for this long. Zero keeps them forever.
	IdleTTL time.Duration
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
	Now     func() time.Time
}

// Registry maps client ids to their App.
type Registry struct {
	params RegistryParams
	logg   *logger.Logger

	mu     sync.Mutex
	apps   map[string]*App
	closed bool
}

func NewRegistry(params RegistryParams) (*Registry, error) {
	if params.Gateways == nil {
		return nil, fmt.Errorf("gateway factory is required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("catalog cache is required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Registry{params: params, logg: params.Logger, apps: map[string]*App{}}, nil
}

// NewClientID returns a fresh client id.
func NewClientID() string {
	return uuid.NewString()
}

// Get returns the App of clientID, building it on first use, and marks it
// as used.
func (r *Registry) Get(ctx context.Context, clientID string) (*App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, fmt.Errorf("registry is closed")
	}
	if a, ok := r.apps[clientID]; ok {
		a.Touch()
		return a, nil
	}

	a, err := r.build(ctx, clientID)
	if err != nil {
		r.logg.Error(r.logg.WithClientID(ctx, clientID), "app.build_failed", err)
		return nil, err
	}
	r.apps[clientID] = a
	r.params.Metrics.SetActiveClients(len(r.apps))
	r.logg.Debug(r.logg.WithClientID(ctx, clientID), "app.opened")
	return a, nil
}

// Lookup returns the App of clientID without building one.
func (r *Registry) Lookup(clientID string) (*App, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[clientID]
	return a, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.apps)
}

func (r *Registry) build(ctx context.Context, clientID string) (*App, error) {
	var store snapshot.Store
	if r.params.Snapshots != nil {
		s, err := r.params.Snapshots(clientID)
		if err != nil {
			return nil, fmt.Errorf("snapshot store: %w", err)
		}
		store = s
	}
	gw, err := r.params.Gateways(store)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	return New(ctx, Params{
		ClientID:    clientID,
		Gateway:     gw,
		Snapshots:   store,
		SnapshotKey: r.params.SnapshotKey,
		Cache:       r.params.Cache,
		SearchDelay: r.params.SearchDelay,
		Logger:      r.logg,
		Metrics:     r.params.Metrics,
		Now:         r.params.Now,
	})
}

// Evict closes every App idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Evict(ctx context.Context) int {
	if r.params.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.params.Now().Add(-r.params.IdleTTL)

	r.mu.Lock()
	var idle []*App
	for id, a := range r.apps {
		if a.LastSeen().Before(cutoff) {
			idle = append(idle, a)
			delete(r.apps, id)
		}
	}
	r.params.Metrics.SetActiveClients(len(r.apps))
	r.mu.Unlock()

	for _, a := range idle {
		if err := a.Close(); err != nil {
			r.logg.Error(r.logg.WithClientID(ctx, a.ID), "app.close_failed", err)
		}
	}
	return len(idle)
}

// Run evicts idle Apps every half TTL until ctx ends.
func (r *Registry) Run(ctx context.Context) {
	if r.params.IdleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(r.params.IdleTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(ctx); n > 0 {
				r.logg.Info(r.logg.WithField(ctx, "evicted", n), "app.evicted_idle")
			}
		}
	}
}

// Close closes every App. Get fails afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	apps := r.apps
	r.apps = map[string]*App{}
	r.closed = true
	r.params.Metrics.SetActiveClients(0)
	r.mu.Unlock()

	var err error
	for _, a := range apps {
		err = multierr.Append(err, a.Close())
	}
	return err
}
