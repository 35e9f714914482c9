// Package app composes the per-client stores and keeps one App per client.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ecofinds/ecofinds-core/internal/cart"
	"github.com/ecofinds/ecofinds-core/internal/catalog"
	"github.com/ecofinds/ecofinds-core/internal/orders"
	"github.com/ecofinds/ecofinds-core/internal/search"
	"github.com/ecofinds/ecofinds-core/internal/session"
	"github.com/ecofinds/ecofinds-core/internal/snapshot"
	"github.com/ecofinds/ecofinds-core/pkg/gateway"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
	"github.com/ecofinds/ecofinds-core/pkg/metrics"
	"go.uber.org/multierr"
)

type Params struct {
	ClientID string
	Gateway  gateway.Gateway
	// Snapshots keeps the identity snapshot of this client. Optional.
	Snapshots   snapshot.Store
	SnapshotKey string
	// Cache is the product snapshot shared by every client.
	Cache       *catalog.Cache
	SearchDelay time.Duration
	Logger      *logger.Logger
	Metrics     *metrics.StoreMetrics
	Now         func() time.Time
}

// App is everything one client sees: its gateway session and the stores
// derived from it.
type App struct {
	ID      string
	Gateway gateway.Gateway
	Session *session.Store
	Cart    *cart.Store
	Search  *search.Store
	Catalog *catalog.Service
	Orders  *orders.Service

	now func() time.Time

	mu       sync.Mutex
	lastSeen time.Time
	closed   bool
}

// New builds the stores of one client and starts restoring its session.
func New(ctx context.Context, params Params) (*App, error) {
	if params.ClientID == "" {
		return nil, fmt.Errorf("client id is required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
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

	sess, err := session.NewStore(session.StoreParams{
		Gateway:     params.Gateway,
		Snapshots:   params.Snapshots,
		SnapshotKey: params.SnapshotKey,
		Logger:      params.Logger,
		Metrics:     params.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	a := &App{ID: params.ClientID, Gateway: params.Gateway, Session: sess, now: params.Now, lastSeen: params.Now()}

	a.Cart, err = cart.NewStore(cart.StoreParams{
		Gateway:  params.Gateway,
		Identity: sess,
		Logger:   params.Logger,
		Metrics:  params.Metrics,
	})
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("cart store: %w", err), a.Close())
	}
	a.Search, err = search.NewStore(search.StoreParams{
		Catalog: params.Cache,
		Delay:   params.SearchDelay,
		Logger:  params.Logger,
		Metrics: params.Metrics,
	})
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("search store: %w", err), a.Close())
	}
	a.Catalog, err = catalog.NewService(catalog.ServiceParams{
		Gateway:  params.Gateway,
		Identity: sess,
		Cache:    params.Cache,
		Logger:   params.Logger,
		Metrics:  params.Metrics,
	})
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("catalog service: %w", err), a.Close())
	}
	a.Orders, err = orders.NewService(orders.ServiceParams{
		Gateway:  params.Gateway,
		Identity: sess,
		Logger:   params.Logger,
		Metrics:  params.Metrics,
	})
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("orders service: %w", err), a.Close())
	}

	sess.RestoreSession(params.Logger.WithClientID(ctx, params.ClientID))
	return a, nil
}

// Touch marks the App as used now.
func (a *App) Touch() {
	a.mu.Lock()
	a.lastSeen = a.now()
	a.mu.Unlock()
}

// LastSeen reports the last Touch.
func (a *App) LastSeen() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSeen
}

// Wait blocks until the background work of every store has settled.
func (a *App) Wait() {
	a.Session.Wait()
	if a.Cart != nil {
		a.Cart.Wait()
	}
	if a.Search != nil {
		a.Search.Wait()
	}
}

// Close stops the stores. It is safe to call more than once.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	var err error
	if a.Search != nil {
		err = multierr.Append(err, a.Search.Close())
	}
	if a.Cart != nil {
		err = multierr.Append(err, a.Cart.Close())
	}
	return multierr.Append(err, a.Session.Close())
}
