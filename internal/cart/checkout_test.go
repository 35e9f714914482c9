package cart

import (
	"context"
	"testing"

	"github.com/ecofinds/ecofinds-core/pkg/db/models"
	pkgerrors "github.com/ecofinds/ecofinds-core/pkg/errors"
	"github.com/ecofinds/ecofinds-core/pkg/gateway"
	"github.com/ecofinds/ecofinds-core/pkg/gateway/gatewaytest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) purchases(t *testing.T) []models.Purchase {
	t.Helper()
	var rows []models.Purchase
	require.NoError(t, f.env.DB.DB().Preload("Items").Where("buyer_id = ?", f.userID).Find(&rows).Error)
	return rows
}

func TestCheckoutRecordsPricesAndClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cart.AddToCart(ctx, f.cutlery))
	require.NoError(t, f.cart.AddToCart(ctx, f.cutlery))
	require.NoError(t, f.cart.AddToCart(ctx, f.bank))

	purchase, err := f.cart.Checkout(ctx)
	require.NoError(t, err)
	require.NotNil(t, purchase)
	assert.True(t, decimal.RequireFromString("59.98").Equal(purchase.Total))
	assert.Len(t, purchase.Items, 2)
	assert.Empty(t, f.cart.Lines())
	assert.Empty(t, f.storedLines(t))
	assert.False(t, f.cart.Loading())

	// A later catalog price change does not touch the recorded prices.
	require.NoError(t, f.env.DB.DB().Model(&models.Product{}).
		Where("id = ?", f.cutlery.ID).
		Update("price", decimal.RequireFromString("99.00")).Error)

	stored := f.purchases(t)
	require.Len(t, stored, 1)
	assert.True(t, decimal.RequireFromString("59.98").Equal(stored[0].Total))
	prices := map[string]string{}
	sum := decimal.Zero
	for _, item := range stored[0].Items {
		prices[item.ProductID.String()] = item.PriceAtPurchase.StringFixed(2)
		sum = sum.Add(item.LineTotal())
	}
	assert.Equal(t, map[string]string{
		f.cutlery.ID.String(): "24.99",
		f.bank.ID.String():    "10.00",
	}, prices)
	assert.True(t, sum.Equal(stored[0].Total))
}

func TestCheckoutEmptyCartDoesNothing(t *testing.T) {
	f := newFixture(t)

	purchase, err := f.cart.Checkout(context.Background())
	require.NoError(t, err)
	assert.Nil(t, purchase)
	assert.Zero(t, f.gw.Calls(gatewaytest.OpInsert, gateway.TablePurchases))
}

func TestCheckoutKeepsCartWhenOrderFails(t *testing.T) {
	cases := map[string]gateway.Table{
		"order shell": gateway.TablePurchases,
		"order lines": gateway.TablePurchaseItems,
	}
	for name, table := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			require.NoError(t, f.cart.AddToCart(ctx, f.cutlery))
			require.NoError(t, f.cart.AddToCart(ctx, f.bank))
			before := f.cart.Lines()

			f.gw.Fail(gatewaytest.OpInsert, table, errDown)
			purchase, err := f.cart.Checkout(ctx)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
			assert.Nil(t, purchase)

			assert.Equal(t, before, f.cart.Lines())
			assert.Len(t, f.storedLines(t), 2)
			assert.Empty(t, f.purchases(t), "no order shell survives a failed checkout")
			assert.False(t, f.cart.Loading())
		})
	}
}

func TestCheckoutCompletesWhenCallerCancelsAfterShell(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.cart.AddToCart(context.Background(), f.cutlery))
	require.NoError(t, f.cart.AddToCart(context.Background(), f.bank))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.gw.After(gatewaytest.OpInsert, gateway.TablePurchases, cancel)

	_, err := f.cart.Checkout(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
	// Queued behind the checkout, so it only returns once the checkout ran.
	require.NoError(t, f.cart.Refresh(context.Background()))

	stored := f.purchases(t)
	require.Len(t, stored, 1)
	assert.Len(t, stored[0].Items, 2)
	assert.Empty(t, f.storedLines(t))
	assert.Empty(t, f.cart.Lines())
}

func TestCheckoutDiscardsShellWhenCallerCancelsAndLinesFail(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.cart.AddToCart(context.Background(), f.cutlery))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.gw.After(gatewaytest.OpInsert, gateway.TablePurchases, cancel)
	f.gw.Fail(gatewaytest.OpInsert, gateway.TablePurchaseItems, errDown)

	_, err := f.cart.Checkout(ctx)
	require.Error(t, err)
	require.NoError(t, f.cart.Refresh(context.Background()))

	assert.Empty(t, f.purchases(t))
	assert.Len(t, f.storedLines(t), 1)
}
