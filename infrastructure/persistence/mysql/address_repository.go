package mysql

import (
	"context"

	"marketplace/domain/address"
	"marketplace/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

type AddressRepository struct {
	*Repository[*address.Address, po.AddressPO]
}

func NewAddressRepository(db *gorm.DB) *AddressRepository {
	mapper := Mapper[*address.Address, po.AddressPO]{
		ToPO: po.FromAddressDomain,
		Load: func(_ *gorm.DB, row *po.AddressPO) (*address.Address, error) {
			return row.ToDomain(), nil
		},
	}
	return &AddressRepository{NewRepository(db, "address", mapper, nil)}
}

// FindForUser hides addresses of other users behind the same not-found error
// an unknown id gets.
func (r *AddressRepository) FindForUser(ctx context.Context, addressID, userID string) (*address.Address, error) {
	return r.FindOne(ctx, "id = ? AND user_id = ?", addressID, userID)
}

var _ address.Repository = (*AddressRepository)(nil)
