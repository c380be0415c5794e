package po

import "time"

// BaseModel Columns shared by every aggregate table
// Soft delete is an explicit flag plus timestamp instead of gorm.DeletedAt so
// that every query states its own is_deleted filter.
type BaseModel struct {
	ID        string     `gorm:"primaryKey;size:36"`
	Version   int        `gorm:"not null"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
	IsDeleted bool       `gorm:"not null;index"`
	DeletedAt *time.Time `gorm:"index"`
}

type metadata interface {
	ID() string
	Version() int
	CreatedAt() time.Time
	UpdatedAt() time.Time
	IsDeleted() bool
	DeletedAt() *time.Time
}

func baseFrom(m metadata) BaseModel {
	return BaseModel{
		ID:        m.ID(),
		Version:   m.Version(),
		CreatedAt: m.CreatedAt(),
		UpdatedAt: m.UpdatedAt(),
		IsDeleted: m.IsDeleted(),
		DeletedAt: m.DeletedAt(),
	}
}

// SetVersion is used by the generic repository for optimistic updates.
func (m *BaseModel) SetVersion(v int) { m.Version = v }
