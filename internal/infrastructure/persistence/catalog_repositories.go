package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormBranchRepository implements BranchRepository using GORM
type GormBranchRepository struct {
	db *gorm.DB
}

// NewGormBranchRepository creates a new GormBranchRepository
func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

// FindByID finds a branch by its ID
func (r *GormBranchRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Branch, error) {
	var branch catalog.Branch
	if err := r.db.WithContext(ctx).First(&branch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &branch, nil
}

// FindByBrand finds all branches of a brand
func (r *GormBranchRepository) FindByBrand(ctx context.Context, brandID uuid.UUID, filter shared.Filter) ([]catalog.Branch, error) {
	filter.Normalize()

	var branches []catalog.Branch
	if err := r.db.WithContext(ctx).
		Where("brand_id = ?", brandID).
		Order(orderClause(filter, branchAllowedSortFields, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

// Save creates or updates a branch
func (r *GormBranchRepository) Save(ctx context.Context, branch *catalog.Branch) error {
	return r.db.WithContext(ctx).Save(branch).Error
}

// branchAllowedSortFields defines the allowed sort fields for branch listings
var branchAllowedSortFields = map[string]bool{
	"code":       true,
	"name":       true,
	"created_at": true,
}

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByBrandAndCode resolves a product by its brand-unique code
func (r *GormProductRepository) FindByBrandAndCode(ctx context.Context, brandID uuid.UUID, code string) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).
		Where("brand_id = ? AND code = ?", brandID, code).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// IsAssignedToBranch reports whether the product is stocked at the branch
func (r *GormProductRepository) IsAssignedToBranch(ctx context.Context, branchID, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.BranchAssignment{}).
		Where("branch_id = ? AND product_id = ?", branchID, productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AssignToBranch assigns a product to a branch. Assigning twice is a no-op.
func (r *GormProductRepository) AssignToBranch(ctx context.Context, assignment *catalog.BranchAssignment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "branch_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(assignment).Error
}

// Ensure the repositories implement their ports
var (
	_ catalog.BranchRepository  = (*GormBranchRepository)(nil)
	_ catalog.ProductRepository = (*GormProductRepository)(nil)
)
