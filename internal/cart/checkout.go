package cart

import (
	"context"
	"time"

	"github.com/ecofinds/ecofinds-core/pkg/db/models"
	"github.com/ecofinds/ecofinds-core/pkg/gateway"
	"github.com/google/uuid"
)

// commitTimeout bounds the writes that follow the purchase shell. They run
// detached from the caller so a cancelled request cannot strand a shell.
const commitTimeout = 10 * time.Second

// Checkout records the cart as a purchase and then clears it. The purchase
// shell carries the cart total and each line keeps the price its product had
// at this moment. The cart is only cleared once both writes succeeded; a
// failed line insert removes the shell again. It returns nil, nil when there
// is nothing to check out.
func (s *Store) Checkout(ctx context.Context) (*models.Purchase, error) {
	var purchase *models.Purchase
	err := s.mutate(ctx, "checkout", func(ctx context.Context, userID uuid.UUID) error {
		lines := s.Lines()
		if len(lines) == 0 {
			return nil
		}

		s.setLoading(true)
		defer s.setLoading(false)

		shell := &models.Purchase{BuyerID: userID, Total: totalOf(lines)}
		if err := s.gw.Insert(ctx, gateway.TablePurchases, shell); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
		defer cancel()

		items := make([]models.PurchaseItem, 0, len(lines))
		for _, line := range lines {
			items = append(items, models.PurchaseItem{
				PurchaseID:      shell.ID,
				ProductID:       line.ProductID,
				Quantity:        line.Quantity,
				PriceAtPurchase: unitPrice(line),
				Product:         line.Product,
			})
		}
		if err := s.gw.Insert(ctx, gateway.TablePurchaseItems, &items); err != nil {
			s.discardShell(ctx, shell.ID)
			return err
		}

		if err := s.clear(ctx, userID); err != nil {
			// The purchase is durable; the lines are stale but harmless.
			s.logg.Error(ctx, "cart.checkout_clear_failed", err)
		}
		shell.Items = items
		purchase = shell
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// discardShell gets its own deadline so a line insert that timed out still
// leaves room for the delete.
func (s *Store) discardShell(ctx context.Context, purchaseID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()
	err := s.gw.Delete(ctx, gateway.TablePurchases, []gateway.Filter{gateway.Eq("id", purchaseID)})
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "purchase_id", purchaseID.String()), "cart.checkout_compensation_failed", err)
	}
}
