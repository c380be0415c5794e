package po

import (
	"marketplace/domain/catalog"
	"marketplace/domain/shared"

	"github.com/shopspring/decimal"
)

// ProductPO Product persistence object
type ProductPO struct {
	BaseModel
	SellerID      string          `gorm:"size:36;index;not null"`
	Name          string          `gorm:"size:255;not null"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency      string          `gorm:"size:3;not null"`
	StockQuantity int             `gorm:"not null"`
	Active        bool            `gorm:"not null"`
}

func (ProductPO) TableName() string {
	return "products"
}

func FromProductDomain(p *catalog.Product) *ProductPO {
	return &ProductPO{
		BaseModel:     baseFrom(p),
		SellerID:      p.SellerID(),
		Name:          p.Name(),
		Price:         p.Price().Amount(),
		Currency:      p.Price().Currency(),
		StockQuantity: p.StockQuantity(),
		Active:        p.IsActive(),
	}
}

func (po *ProductPO) ToDomain() *catalog.Product {
	return catalog.RebuildFromDTO(catalog.ReconstructionDTO{
		ID:            po.ID,
		SellerID:      po.SellerID,
		Name:          po.Name,
		Price:         shared.NewMoney(po.Price, po.Currency),
		StockQuantity: po.StockQuantity,
		Active:        po.Active,
		Version:       po.Version,
		CreatedAt:     po.CreatedAt,
		UpdatedAt:     po.UpdatedAt,
		DeletedAt:     po.DeletedAt,
	})
}
