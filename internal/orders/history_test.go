package orders

import (
	"context"
	"testing"
	"time"

	"github.com/ecofinds/ecofinds-core/internal/session"
	"github.com/ecofinds/ecofinds-core/pkg/db/models"
	"github.com/ecofinds/ecofinds-core/pkg/enums"
	pkgerrors "github.com/ecofinds/ecofinds-core/pkg/errors"
	"github.com/ecofinds/ecofinds-core/pkg/gateway"
	"github.com/ecofinds/ecofinds-core/pkg/gateway/gatewaytest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticIdentity struct{ id *session.Identity }

func (s staticIdentity) Current() *session.Identity { return s.id }

func seedPurchase(t *testing.T, env *gatewaytest.Env, buyer uuid.UUID, product models.Product, qty int, when time.Time) models.Purchase {
	t.Helper()
	item := models.PurchaseItem{ProductID: product.ID, Quantity: qty, PriceAtPurchase: product.Price}
	p := models.Purchase{BuyerID: buyer, Total: item.LineTotal(), PurchaseDate: when}
	require.NoError(t, env.DB.DB().Omit("Items").Create(&p).Error)
	item.PurchaseID = p.ID
	require.NoError(t, env.DB.DB().Omit("Product").Create(&item).Error)
	p.Items = []models.PurchaseItem{item}
	return p
}

func TestHistoryNewestFirstWithItems(t *testing.T) {
	env := gatewaytest.NewEnv(t)
	gw := env.Gateway(t)
	buyer := gatewaytest.Register(t, gw, "buyer@example.com", "password123", "buyer")
	other := gatewaytest.Register(t, env.Gateway(t), "other@example.com", "password123", "other")
	lamp := env.SeedProduct(t, models.Product{
		Title:       "Solar Garden Lights",
		Description: "Pack of solar lights",
		Category:    enums.ProductCategoryHomeGarden,
		Price:       decimal.RequireFromString("32.50"),
	})

	now := time.Now().UTC().Truncate(time.Second)
	older := seedPurchase(t, env, buyer, lamp, 1, now.Add(-48*time.Hour))
	newer := seedPurchase(t, env, buyer, lamp, 2, now.Add(-time.Hour))
	seedPurchase(t, env, other, lamp, 5, now)

	svc, err := NewService(ServiceParams{Gateway: gw, Identity: staticIdentity{id: &session.Identity{ID: buyer}}})
	require.NoError(t, err)

	history, err := svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2, "other buyers' purchases stay private")
	assert.Equal(t, newer.ID, history[0].ID)
	assert.Equal(t, older.ID, history[1].ID)
	require.Len(t, history[0].Items, 1)
	require.NotNil(t, history[0].Items[0].Product)
	assert.Equal(t, "Solar Garden Lights", history[0].Items[0].Product.Title)

	sum := Summarize(history)
	assert.Equal(t, 2, sum.Orders)
	assert.Equal(t, 3, sum.Items)
	assert.True(t, decimal.RequireFromString("97.50").Equal(sum.Spent))
}

func TestHistoryWithoutIdentityIsEmpty(t *testing.T) {
	env := gatewaytest.NewEnv(t)
	faulty := gatewaytest.NewFaulty(env.Gateway(t))
	svc, err := NewService(ServiceParams{Gateway: faulty, Identity: staticIdentity{}})
	require.NoError(t, err)

	history, err := svc.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Zero(t, faulty.Calls(gatewaytest.OpSelect, gateway.TablePurchases))
}

func TestHistoryPropagatesGatewayFailure(t *testing.T) {
	env := gatewaytest.NewEnv(t)
	faulty := gatewaytest.NewFaulty(env.Gateway(t))
	faulty.Fail(gatewaytest.OpSelect, gateway.TablePurchases, pkgerrors.New(pkgerrors.CodeDependency, "down"))
	svc, err := NewService(ServiceParams{Gateway: faulty, Identity: staticIdentity{id: &session.Identity{ID: uuid.New()}}})
	require.NoError(t, err)

	_, err = svc.History(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
