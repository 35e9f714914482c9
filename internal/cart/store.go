// Package cart mirrors the signed-in user's cart rows and turns them into an
// order at checkout.
package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ecofinds/ecofinds-core/internal/session"
	"github.com/ecofinds/ecofinds-core/pkg/db/models"
	pkgerrors "github.com/ecofinds/ecofinds-core/pkg/errors"
	"github.com/ecofinds/ecofinds-core/pkg/gateway"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
	"github.com/ecofinds/ecofinds-core/pkg/metrics"
	"github.com/ecofinds/ecofinds-core/pkg/notify"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	storeName  = "cart"
	queueDepth = 32
)

// IdentitySource is the read-only view of the session the cart follows.
type IdentitySource interface {
	Current() *session.Identity
	Subscribe(fn func(session.State)) func()
}

// State is the cart as dependents render it.
type State struct {
	Lines     []models.CartItem `json:"lines"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount int               `json:"item_count"`
	Loading   bool              `json:"loading"`
}

// StoreParams bundles the dependencies of a Store. Gateway and Identity are
// required.
type StoreParams struct {
	Gateway  gateway.DataClient
	Identity IdentitySource
	Logger   *logger.Logger
	Metrics  *metrics.StoreMetrics
}

// Store is the in-memory mirror of the current identity's cart. Every
// mutation runs through a FIFO queue with a single worker.
type Store struct {
	gw       gateway.DataClient
	identity IdentitySource
	logg     *logger.Logger
	metrics  *metrics.StoreMetrics
	queue    *opQueue

	mu      sync.RWMutex
	owner   uuid.UUID
	lines   []models.CartItem
	loading bool

	hub         notify.Hub[State]
	wg          sync.WaitGroup
	unsubscribe func()
}

func NewStore(params StoreParams) (*Store, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if params.Identity == nil {
		return nil, fmt.Errorf("identity source is required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	s := &Store{
		gw:       params.Gateway,
		identity: params.Identity,
		logg:     params.Logger,
		metrics:  params.Metrics,
		queue:    newOpQueue(queueDepth),
	}
	if current := params.Identity.Current(); current != nil {
		s.owner = current.ID
		s.refreshAsync()
	}
	s.unsubscribe = params.Identity.Subscribe(s.onSession)
	return s, nil
}

// State returns a copy of the cart with its derived totals.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Lines:     cloneLines(s.lines),
		Total:     totalOf(s.lines),
		ItemCount: countOf(s.lines),
		Loading:   s.loading,
	}
}

// Lines returns a copy of the cart lines.
func (s *Store) Lines() []models.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLines(s.lines)
}

// TotalPrice sums price × quantity over lines with a resolved product.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalOf(s.lines)
}

// ItemCount sums the quantities of all lines.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countOf(s.lines)
}

// Loading reports whether a fetch or checkout is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Subscribe registers fn for every cart change.
func (s *Store) Subscribe(fn func(State)) func() {
	return s.hub.Subscribe(fn)
}

func (s *Store) publish() {
	s.hub.Publish(s.State())
}

// Wait blocks until refetches triggered by identity changes finish.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Close detaches from the session and stops the queue.
func (s *Store) Close() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.wg.Wait()
	s.queue.Close()
	return nil
}

// AddToCart increments the line for product, or inserts one with quantity 1.
func (s *Store) AddToCart(ctx context.Context, product models.Product) error {
	return s.mutate(ctx, "add", func(ctx context.Context, userID uuid.UUID) error {
		if existing, ok := s.lineFor(product.ID); ok {
			return s.setQuantity(ctx, userID, product.ID, existing.Quantity+1)
		}

		line := &models.CartItem{UserID: userID, ProductID: product.ID, Quantity: 1}
		err := s.gw.Insert(ctx, gateway.TableCartItems, line)
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			// The row exists remotely but not in the mirror yet.
			if err := s.fetch(ctx, userID); err != nil {
				return err
			}
			existing, ok := s.lineFor(product.ID)
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, "cart line conflict")
			}
			return s.setQuantity(ctx, userID, product.ID, existing.Quantity+1)
		}
		if err != nil {
			return err
		}
		return s.fetch(ctx, userID)
	})
}

// UpdateQuantity sets the quantity of productID's line. Quantities of zero
// or less remove the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	return s.mutate(ctx, "update_quantity", func(ctx context.Context, userID uuid.UUID) error {
		return s.setQuantity(ctx, userID, productID, quantity)
	})
}

// RemoveFromCart deletes productID's line.
func (s *Store) RemoveFromCart(ctx context.Context, productID uuid.UUID) error {
	return s.mutate(ctx, "remove", func(ctx context.Context, userID uuid.UUID) error {
		return s.remove(ctx, userID, productID)
	})
}

// ClearCart deletes every line of the current user and empties the mirror
// without refetching.
func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, "clear", s.clear)
}

// Refresh refetches the cart from the gateway.
func (s *Store) Refresh(ctx context.Context) error {
	return s.mutate(ctx, "refresh", s.fetch)
}

// mutate runs fn on the queue for the current user. Without a current
// identity it does nothing.
func (s *Store) mutate(ctx context.Context, op string, fn func(ctx context.Context, userID uuid.UUID) error) error {
	return s.queue.Do(ctx, func(ctx context.Context) error {
		current := s.identity.Current()
		if current == nil {
			s.metrics.Skipped(storeName, op)
			return nil
		}
		started := time.Now()
		err := fn(ctx, current.ID)
		s.metrics.Observe(storeName, op, started, err)
		if err != nil {
			s.logg.Error(s.logg.WithUserID(ctx, current.ID.String()), "cart."+op+"_failed", err)
		}
		return err
	})
}

func (s *Store) setQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return s.remove(ctx, userID, productID)
	}
	err := s.gw.Update(ctx, gateway.TableCartItems, lineFilters(userID, productID), map[string]any{"quantity": quantity})
	if err != nil {
		return err
	}
	return s.fetch(ctx, userID)
}

func (s *Store) remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.gw.Delete(ctx, gateway.TableCartItems, lineFilters(userID, productID)); err != nil {
		return err
	}
	return s.fetch(ctx, userID)
}

func (s *Store) clear(ctx context.Context, userID uuid.UUID) error {
	err := s.gw.Delete(ctx, gateway.TableCartItems, []gateway.Filter{gateway.Eq("user_id", userID)})
	if err != nil {
		return err
	}
	s.apply(userID, []models.CartItem{})
	return nil
}

// fetch replaces the mirror with the stored lines, products and sellers
// joined in.
func (s *Store) fetch(ctx context.Context, userID uuid.UUID) error {
	s.setLoading(true)
	defer s.setLoading(false)

	var rows []models.CartItem
	q := gateway.Where(gateway.Eq("user_id", userID)).
		With(gateway.EmbedProductSeller).
		OrderBy("created_at", false)
	if err := s.gw.Select(ctx, gateway.TableCartItems, q, &rows); err != nil {
		return err
	}
	s.apply(userID, rows)
	return nil
}

// apply installs lines unless the identity moved on to another user.
func (s *Store) apply(userID uuid.UUID, lines []models.CartItem) {
	s.mu.Lock()
	if s.owner != userID {
		s.mu.Unlock()
		return
	}
	s.lines = lines
	s.mu.Unlock()
	s.publish()
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
	s.publish()
}

func (s *Store) lineFor(productID uuid.UUID) (models.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, line := range s.lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return models.CartItem{}, false
}

// onSession empties the mirror when the identity changes and refetches for
// the new user. Deliveries can arrive out of order, so the owner is taken
// from the live identity under the cart lock and the delivered state only
// acts as a wake-up.
func (s *Store) onSession(session.State) {
	s.mu.Lock()
	next := uuid.Nil
	if current := s.identity.Current(); current != nil {
		next = current.ID
	}
	if next == s.owner {
		s.mu.Unlock()
		return
	}
	s.owner = next
	s.lines = nil
	s.mu.Unlock()
	s.publish()

	if next != uuid.Nil {
		s.refreshAsync()
	}
}

func (s *Store) refreshAsync() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.Refresh(context.Background())
	}()
}

func lineFilters(userID, productID uuid.UUID) []gateway.Filter {
	return []gateway.Filter{
		gateway.Eq("user_id", userID),
		gateway.Eq("product_id", productID),
	}
}

func totalOf(lines []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(unitPrice(line).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

func countOf(lines []models.CartItem) int {
	n := 0
	for _, line := range lines {
		n += line.Quantity
	}
	return n
}

// unitPrice is the snapshot price of line, or zero when its product did not
// resolve.
func unitPrice(line models.CartItem) decimal.Decimal {
	if line.Product == nil {
		return decimal.Zero
	}
	return line.Product.Price
}

func cloneLines(lines []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, len(lines))
	copy(out, lines)
	return out
}
