package mysql

import (
	"context"

	"marketplace/domain/catalog"
	"marketplace/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

// ProductRepository GORM implementation of catalog.Repository
type ProductRepository struct {
	*Repository[*catalog.Product, po.ProductPO]
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	mapper := Mapper[*catalog.Product, po.ProductPO]{
		ToPO: po.FromProductDomain,
		Load: func(_ *gorm.DB, row *po.ProductPO) (*catalog.Product, error) {
			return row.ToDomain(), nil
		},
	}
	return &ProductRepository{NewRepository(db, "product", mapper, nil)}
}

// FindByIDs loads live products in id order; unknown ids are skipped.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []string) ([]*catalog.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.Find(ctx, "id ASC", "id IN ?", ids)
}

var _ catalog.Repository = (*ProductRepository)(nil)
