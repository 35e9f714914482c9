// Package orders reads the purchase history of the signed-in identity.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/ecofinds/ecofinds-core/internal/session"
	"github.com/ecofinds/ecofinds-core/pkg/db/models"
	"github.com/ecofinds/ecofinds-core/pkg/gateway"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
	"github.com/ecofinds/ecofinds-core/pkg/metrics"
	"github.com/shopspring/decimal"
)

const serviceName = "orders"

type identitySource interface {
	Current() *session.Identity
}

// Summary totals a purchase history.
type Summary struct {
	Orders int             `json:"orders"`
	Items  int             `json:"items"`
	Spent  decimal.Decimal `json:"spent"`
}

type ServiceParams struct {
	Gateway  gateway.DataClient
	Identity identitySource
	Logger   *logger.Logger
	Metrics  *metrics.StoreMetrics
}

type Service struct {
	gw       gateway.DataClient
	identity identitySource
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
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// History returns the current identity's purchases, newest first, with
// their lines and products. It is empty when nobody is signed in.
func (s *Service) History(ctx context.Context) ([]models.Purchase, error) {
	current := s.identity.Current()
	if current == nil {
		s.metrics.Skipped(serviceName, "history")
		return []models.Purchase{}, nil
	}

	started := time.Now()
	var rows []models.Purchase
	q := gateway.Where(gateway.Eq("buyer_id", current.ID)).
		With(gateway.EmbedPurchaseItems).
		OrderBy("purchase_date", true)
	err := s.gw.Select(ctx, gateway.TablePurchases, q, &rows)
	s.metrics.Observe(serviceName, "history", started, err)
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, current.ID.String()), "orders.history_failed", err)
		return nil, err
	}
	return rows, nil
}

// Summarize totals purchases using the recorded totals.
func Summarize(purchases []models.Purchase) Summary {
	sum := Summary{Orders: len(purchases), Spent: decimal.Zero}
	for _, p := range purchases {
		sum.Spent = sum.Spent.Add(p.Total)
		for _, item := range p.Items {
			sum.Items += item.Quantity
		}
	}
	return sum
}
