package catalog

import (
	"context"

	pkgerrors "github.com/ecofinds/ecofinds-core/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SeedDemo writes the demo sellers and products, skipping rows that already
// exist. It returns the number of products inserted.
func SeedDemo(ctx context.Context, db txRunner) (int64, error) {
	sellers := DemoSellers()
	products := DemoProducts()
	for i := range products {
		products[i].Seller = nil
	}

	var inserted int64
	err := db.WithTx(ctx, func(tx *gorm.DB) error {
		skipExisting := clause.OnConflict{DoNothing: true}
		if err := tx.Clauses(skipExisting).Create(&sellers).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed demo sellers")
		}
		res := tx.Omit(clause.Associations).Clauses(skipExisting).Create(&products)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "seed demo products")
		}
		inserted = res.RowsAffected
		return nil
	})
	return inserted, err
}

