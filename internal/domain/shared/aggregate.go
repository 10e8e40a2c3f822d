package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// BrandAggregateRoot extends BaseAggregateRoot with brand scoping.
// Every record in the platform belongs to exactly one brand.
type BrandAggregateRoot struct {
	BaseAggregateRoot
	BrandID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// NewBrandAggregateRoot creates a new brand-scoped aggregate root
func NewBrandAggregateRoot(brandID uuid.UUID) BrandAggregateRoot {
	return BrandAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		BrandID:           brandID,
	}
}
