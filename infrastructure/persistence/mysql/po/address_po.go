package po

import "marketplace/domain/address"

// AddressPO Address book entry
type AddressPO struct {
	BaseModel
	UserID        string `gorm:"size:36;index;not null"`
	RecipientName string `gorm:"size:128;not null"`
	Phone         string `gorm:"size:32"`
	Line1         string `gorm:"size:255;not null"`
	Line2         string `gorm:"size:255"`
	City          string `gorm:"size:128;not null"`
	State         string `gorm:"size:128"`
	PostalCode    string `gorm:"size:32"`
	Country       string `gorm:"size:64;not null"`
}

func (AddressPO) TableName() string {
	return "addresses"
}

func FromAddressDomain(a *address.Address) *AddressPO {
	s := a.Snapshot()
	return &AddressPO{
		BaseModel:     baseFrom(a),
		UserID:        a.UserID(),
		RecipientName: s.RecipientName,
		Phone:         s.Phone,
		Line1:         s.Line1,
		Line2:         s.Line2,
		City:          s.City,
		State:         s.State,
		PostalCode:    s.PostalCode,
		Country:       s.Country,
	}
}

func (po *AddressPO) ToDomain() *address.Address {
	fields := address.Snapshot{
		RecipientName: po.RecipientName,
		Phone:         po.Phone,
		Line1:         po.Line1,
		Line2:         po.Line2,
		City:          po.City,
		State:         po.State,
		PostalCode:    po.PostalCode,
		Country:       po.Country,
	}
	return address.RebuildFromDTO(po.ID, po.UserID, fields, po.Version, po.CreatedAt, po.UpdatedAt, po.DeletedAt)
}
