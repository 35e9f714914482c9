package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ecofinds/ecofinds-core/pkg/db/models"
	"github.com/ecofinds/ecofinds-core/pkg/gateway"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
	"github.com/ecofinds/ecofinds-core/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

const cacheName = "catalog"

type CacheParams struct {
	Gateway gateway.DataClient
	// Interval between background refreshes. Zero disables them.
	Interval time.Duration
	Logger   *logger.Logger
	Metrics  *metrics.StoreMetrics
}

// Cache holds a read-only snapshot of every product, newest first, shared by
// all clients. It is the candidate set searches run over.
type Cache struct {
	gw       gateway.DataClient
	interval time.Duration
	logg     *logger.Logger
	metrics  *metrics.StoreMetrics

	mu       sync.RWMutex
	products []models.Product
	loadedAt time.Time

	refreshes singleflight.Group
}

func NewCache(params CacheParams) (*Cache, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &Cache{
		gw:       params.Gateway,
		interval: params.Interval,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// Products returns a copy of the snapshot. It is empty until the first
// successful refresh.
func (c *Cache) Products() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out
}

// LoadedAt reports when the snapshot was last replaced.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Refresh reloads the snapshot. Concurrent callers share one fetch. On
// failure the previous snapshot stays in place.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err, _ := c.refreshes.Do("products", func() (any, error) {
		started := time.Now()
		var rows []models.Product
		q := gateway.Query{}.With(gateway.EmbedSeller).OrderBy("created_at", true)
		err := c.gw.Select(ctx, gateway.TableProducts, q, &rows)
		c.metrics.Observe(cacheName, "refresh", started, err)
		if err != nil {
			c.logg.Error(ctx, "catalog.refresh_failed", err)
			return nil, err
		}

		c.mu.Lock()
		c.products = rows
		c.loadedAt = time.Now()
		c.mu.Unlock()
		c.logg.Debug(c.logg.WithField(ctx, "products", len(rows)), "catalog.refreshed")
		return nil, nil
	})
	return err
}

// Run refreshes once and then on every interval tick until ctx ends.
func (c *Cache) Run(ctx context.Context) {
	_ = c.Refresh(ctx)
	if c.interval <= 0 {
		return
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.Refresh(ctx)
		}
	}
}
