package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Product represents a sellable item in a brand's catalog.
// The sync engine only needs the identity surface: resolving external keys
// to products and checking branch assignment. Pricing, media and the rest of
// the catalog belong to other services.
type Product struct {
	shared.BrandAggregateRoot
	Code        string `gorm:"size:64;not null;uniqueIndex:idx_product_brand_code,priority:2"`
	Name        string `gorm:"size:255;not null"`
	VariantName string `gorm:"size:255"` // Optional variant label (e.g. "Red / L")
	IsActive    bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product in a brand's catalog
func NewProduct(brandID uuid.UUID, code, name string) (*Product, error) {
	if brandID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRAND", "Brand ID cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_CODE", "Product code is required")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name is required")
	}

	return &Product{
		BrandAggregateRoot: shared.NewBrandAggregateRoot(brandID),
		Code:               code,
		Name:               name,
		IsActive:           true,
	}, nil
}

// BranchAssignment links a product to a branch that stocks it.
// The reconciler refuses to create inventory records for products that are
// not assigned to the target branch.
type BranchAssignment struct {
	shared.BaseEntity
	BranchID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_branch_product,priority:1"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_branch_product,priority:2"`
}

// TableName returns the table name for GORM
func (BranchAssignment) TableName() string {
	return "branch_assignments"
}

// NewBranchAssignment assigns a product to a branch
func NewBranchAssignment(branchID, productID uuid.UUID) (*BranchAssignment, error) {
	if branchID == uuid.Nil || productID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	return &BranchAssignment{
		BaseEntity: shared.NewBaseEntity(),
		BranchID:   branchID,
		ProductID:  productID,
	}, nil
}

// ProductRepository defines the persistence port for products and their
// branch assignments
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByBrandAndCode resolves a product by its brand-unique code.
	// Used as the fallback path when resolving external stock keys.
	FindByBrandAndCode(ctx context.Context, brandID uuid.UUID, code string) (*Product, error)
	Save(ctx context.Context, product *Product) error

	// IsAssignedToBranch reports whether the product is stocked at the branch
	IsAssignedToBranch(ctx context.Context, branchID, productID uuid.UUID) (bool, error)
	AssignToBranch(ctx context.Context, assignment *BranchAssignment) error
}
