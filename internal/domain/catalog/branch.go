package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Branch represents one physical or virtual storefront location of a brand.
// Branch inventory and external integrations are both scoped to a branch.
type Branch struct {
	shared.BrandAggregateRoot
	Code     string `gorm:"size:64;not null;uniqueIndex:idx_branch_brand_code,priority:2"`
	Name     string `gorm:"size:255;not null"`
	IsActive bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Branch) TableName() string {
	return "branches"
}

// NewBranch creates a new branch for a brand
func NewBranch(brandID uuid.UUID, code, name string) (*Branch, error) {
	if brandID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRAND", "Brand ID cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_BRANCH_CODE", "Branch code is required")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_BRANCH_NAME", "Branch name is required")
	}

	return &Branch{
		BrandAggregateRoot: shared.NewBrandAggregateRoot(brandID),
		Code:               code,
		Name:               name,
		IsActive:           true,
	}, nil
}

// BranchRepository defines the persistence port for branches
type BranchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Branch, error)
	FindByBrand(ctx context.Context, brandID uuid.UUID, filter shared.Filter) ([]Branch, error)
	Save(ctx context.Context, branch *Branch) error
}
