// Package search keeps a query and the catalog products matching it.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ecofinds/ecofinds-core/pkg/db/models"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
	"github.com/ecofinds/ecofinds-core/pkg/metrics"
	"github.com/ecofinds/ecofinds-core/pkg/notify"
)

const (
	runCompleted  = "completed"
	runSuperseded = "superseded"
	runEmpty      = "empty"
)

// Catalog supplies the candidate products.
type Catalog interface {
	Products() []models.Product
}

// State is the query with its derived results.
type State struct {
	Query       string           `json:"query"`
	Results     []models.Product `json:"results"`
	IsSearching bool             `json:"is_searching"`
}

type StoreParams struct {
	Catalog Catalog
	// Delay is the simulated round trip before results land.
	Delay   time.Duration
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
}

type Store struct {
	catalog Catalog
	delay   time.Duration
	logg    *logger.Logger
	metrics *metrics.StoreMetrics

	base     context.Context
	stopBase context.CancelFunc

	mu        sync.RWMutex
	query     string
	results   []models.Product
	searching bool
	// generation identifies the latest search; a pass started under an
	// older generation never writes results.
	generation uint64
	cancel     context.CancelFunc

	hub notify.Hub[State]
	wg  sync.WaitGroup
}

func NewStore(params StoreParams) (*Store, error) {
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if params.Delay < 0 {
		return nil, fmt.Errorf("delay must not be negative")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	base, stop := context.WithCancel(context.Background())
	return &Store{
		catalog:  params.Catalog,
		delay:    params.Delay,
		logg:     params.Logger,
		metrics:  params.Metrics,
		base:     base,
		stopBase: stop,
		results:  []models.Product{},
	}, nil
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]models.Product, len(s.results))
	copy(results, s.results)
	return State{Query: s.query, Results: results, IsSearching: s.searching}
}

// Subscribe registers fn for every state change.
func (s *Store) Subscribe(fn func(State)) func() {
	return s.hub.Subscribe(fn)
}

func (s *Store) publish() {
	s.hub.Publish(s.State())
}

// SetQuery stores q and starts a search for it. The query and the search
// generation change under one lock so results always belong to the stored
// query.
func (s *Store) SetQuery(q string) {
	s.mu.Lock()
	s.query = q
	empty := s.performSearchLocked(q)
	s.mu.Unlock()
	s.started(empty)
}

// PerformSearch computes results for q without touching the stored query.
// Blank queries clear the results at once; anything else lands after the
// configured delay unless a newer search or a clear supersedes it.
func (s *Store) PerformSearch(q string) {
	s.mu.Lock()
	empty := s.performSearchLocked(q)
	s.mu.Unlock()
	s.started(empty)
}

// performSearchLocked supersedes the pending pass and either clears the
// results or launches a pass for q. It reports whether q was blank.
func (s *Store) performSearchLocked(q string) bool {
	gen := s.supersedeLocked()
	if strings.TrimSpace(q) == "" {
		s.results = []models.Product{}
		s.searching = false
		return true
	}
	ctx, cancel := context.WithCancel(s.base)
	s.cancel = cancel
	s.searching = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(ctx, gen, q)
	}()
	return false
}

func (s *Store) started(empty bool) {
	if empty {
		s.metrics.SearchRun(runEmpty)
	}
	s.publish()
}

func (s *Store) run(ctx context.Context, gen uint64, q string) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		s.metrics.SearchRun(runSuperseded)
		return
	case <-timer.C:
	}

	results := Match(s.catalog.Products(), q)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.metrics.SearchRun(runSuperseded)
		return
	}
	s.results = results
	s.searching = false
	s.cancel = nil
	s.mu.Unlock()

	s.metrics.SearchRun(runCompleted)
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{"query": q, "results": len(results)}), "search.completed")
	s.publish()
}

// ClearSearch resets the query and results and drops any pending search.
func (s *Store) ClearSearch() {
	s.mu.Lock()
	s.supersedeLocked()
	s.query = ""
	s.results = []models.Product{}
	s.searching = false
	s.mu.Unlock()
	s.publish()
}

// supersedeLocked starts a new generation and cancels the pending pass.
func (s *Store) supersedeLocked() uint64 {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return s.generation
}

// Wait blocks until no search pass is pending.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Close cancels pending passes and waits for them to exit.
func (s *Store) Close() error {
	s.stopBase()
	s.wg.Wait()
	return nil
}
