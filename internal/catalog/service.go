// Package catalog serves product browsing and the seller's own listings, and
// keeps the shared product snapshot searches run over.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ecofinds/ecofinds-core/internal/session"
	"github.com/ecofinds/ecofinds-core/pkg/db/models"
	"github.com/ecofinds/ecofinds-core/pkg/enums"
	pkgerrors "github.com/ecofinds/ecofinds-core/pkg/errors"
	"github.com/ecofinds/ecofinds-core/pkg/gateway"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
	"github.com/ecofinds/ecofinds-core/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const serviceName = "catalog"

type identitySource interface {
	Current() *session.Identity
}

// BrowseFilter narrows a category listing. Zero values disable a filter.
type BrowseFilter struct {
	Category enums.ProductCategory
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	// Term matches title or description, ignoring case.
	Term string
	Sort enums.SortOrder
}

// CategorySummary describes one category tile.
type CategorySummary struct {
	Name     enums.ProductCategory `json:"name"`
	Slug     string                `json:"slug"`
	Image    string                `json:"image"`
	Products int                   `json:"products"`
}

type ServiceParams struct {
	Gateway  gateway.DataClient
	Identity identitySource
	// Cache is refreshed after seller writes when set.
	Cache   *Cache
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
}

// Service reads and writes products on behalf of one client.
type Service struct {
	gw       gateway.DataClient
	identity identitySource
	cache    *Cache
	logg     *logger.Logger
	metrics  *metrics.StoreMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if params.Identity == nil {
		return nil, fmt.Errorf("identity source is required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &Service{
		gw:       params.Gateway,
		identity: params.Identity,
		cache:    params.Cache,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// Get returns the product with id and its seller, or nil when there is none.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	started := time.Now()
	p, err := gateway.First[models.Product](ctx, s.gw, gateway.TableProducts,
		gateway.Where(gateway.Eq("id", id)).With(gateway.EmbedSeller))
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		s.metrics.Observe(serviceName, "get", started, nil)
		return nil, nil
	}
	s.metrics.Observe(serviceName, "get", started, err)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Browse lists products of one category with the optional price range and
// term applied, in the requested order.
func (s *Service) Browse(ctx context.Context, f BrowseFilter) ([]models.Product, error) {
	sort, err := enums.ParseSortOrder(string(f.Sort))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort order")
	}

	q := gateway.Query{}.With(gateway.EmbedSeller)
	if f.Category != "" {
		// ILIKE without wildcards is a case-insensitive equality.
		q = q.And(gateway.ILike("category", string(f.Category)))
	}
	if f.MinPrice != nil {
		q = q.And(gateway.Gte("price", *f.MinPrice))
	}
	if f.MaxPrice != nil {
		q = q.And(gateway.Lte("price", *f.MaxPrice))
	}
	switch sort {
	case enums.SortPriceLow:
		q = q.OrderBy("price", false)
	case enums.SortPriceHigh:
		q = q.OrderBy("price", true)
	default:
		q = q.OrderBy("created_at", true)
	}

	started := time.Now()
	var rows []models.Product
	err = s.gw.Select(ctx, gateway.TableProducts, q, &rows)
	s.metrics.Observe(serviceName, "browse", started, err)
	if err != nil {
		s.logg.Error(ctx, "catalog.browse_failed", err)
		return nil, err
	}
	return filterTerm(rows, f.Term), nil
}

func filterTerm(rows []models.Product, term string) []models.Product {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return rows
	}
	out := make([]models.Product, 0, len(rows))
	for _, p := range rows {
		if strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			out = append(out, p)
		}
	}
	return out
}

// Categories lists every category with its stock image and the number of
// products in the shared snapshot.
func (s *Service) Categories() []CategorySummary {
	counts := map[enums.ProductCategory]int{}
	if s.cache != nil {
		for _, p := range s.cache.Products() {
			counts[p.Category]++
		}
	}
	categories := enums.ProductCategories()
	out := make([]CategorySummary, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategorySummary{
			Name:     c,
			Slug:     c.Slug(),
			Image:    StockImage(c),
			Products: counts[c],
		})
	}
	return out
}

// Mine lists the signed-in seller's products, newest first. It is empty when
// nobody is signed in.
func (s *Service) Mine(ctx context.Context) ([]models.Product, error) {
	current := s.identity.Current()
	if current == nil {
		s.metrics.Skipped(serviceName, "mine")
		return []models.Product{}, nil
	}
	started := time.Now()
	var rows []models.Product
	q := gateway.Where(gateway.Eq("seller_id", current.ID)).OrderBy("created_at", true)
	err := s.gw.Select(ctx, gateway.TableProducts, q, &rows)
	s.metrics.Observe(serviceName, "mine", started, err)
	if err != nil {
		s.logg.Error(ctx, "catalog.mine_failed", err)
		return nil, err
	}
	return rows, nil
}

// Create validates d and lists it under the signed-in seller. A blank image
// falls back to the category's stock image.
func (s *Service) Create(ctx context.Context, d ProductDraft) (*models.Product, error) {
	sellerID, err := s.seller()
	if err != nil {
		return nil, err
	}
	d, err = checkDraft(d)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Price:       d.Price,
		ImageURL:    imageOrStock(d),
		SellerID:    sellerID,
	}
	started := time.Now()
	err = s.gw.Insert(ctx, gateway.TableProducts, p)
	s.metrics.Observe(serviceName, "create", started, err)
	if err != nil {
		s.logg.Error(ctx, "catalog.create_failed", err)
		return nil, err
	}
	s.refreshCache(ctx)
	return p, nil
}

// Update replaces the editable fields of the seller's product id.
func (s *Service) Update(ctx context.Context, id uuid.UUID, d ProductDraft) (*models.Product, error) {
	sellerID, err := s.seller()
	if err != nil {
		return nil, err
	}
	d, err = checkDraft(d)
	if err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, id, sellerID); err != nil {
		return nil, err
	}

	started := time.Now()
	err = s.gw.Update(ctx, gateway.TableProducts, ownedFilters(id, sellerID), map[string]any{
		"title":       d.Title,
		"description": d.Description,
		"category":    d.Category,
		"price":       d.Price,
		"image_url":   imageOrStock(d),
	})
	s.metrics.Observe(serviceName, "update", started, err)
	if err != nil {
		s.logg.Error(ctx, "catalog.update_failed", err)
		return nil, err
	}
	s.refreshCache(ctx)
	return s.owned(ctx, id, sellerID)
}

// Delete removes the seller's product id.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	sellerID, err := s.seller()
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, id, sellerID); err != nil {
		return err
	}
	started := time.Now()
	err = s.gw.Delete(ctx, gateway.TableProducts, ownedFilters(id, sellerID))
	s.metrics.Observe(serviceName, "delete", started, err)
	if err != nil {
		s.logg.Error(ctx, "catalog.delete_failed", err)
		return err
	}
	s.refreshCache(ctx)
	return nil
}

func (s *Service) seller() (uuid.UUID, error) {
	current := s.identity.Current()
	if current == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to manage products")
	}
	return current.ID, nil
}

// owned loads product id only when sellerID owns it.
func (s *Service) owned(ctx context.Context, id, sellerID uuid.UUID) (*models.Product, error) {
	p, err := gateway.First[models.Product](ctx, s.gw, gateway.TableProducts, gateway.Where(ownedFilters(id, sellerID)...))
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, err
}

func (s *Service) refreshCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Refresh(ctx)
}

func checkDraft(d ProductDraft) (ProductDraft, error) {
	if errs := ValidateProduct(d); len(errs) > 0 {
		return d, pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(errs)
	}
	return d.normalized(), nil
}

func imageOrStock(d ProductDraft) string {
	if d.ImageURL != "" {
		return d.ImageURL
	}
	return StockImage(d.Category)
}

func ownedFilters(id, sellerID uuid.UUID) []gateway.Filter {
	return []gateway.Filter{gateway.Eq("id", id), gateway.Eq("seller_id", sellerID)}
}
