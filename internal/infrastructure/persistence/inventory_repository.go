package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormBranchInventoryRepository implements BranchInventoryRepository using GORM
type GormBranchInventoryRepository struct {
	db *gorm.DB
}

// NewGormBranchInventoryRepository creates a new GormBranchInventoryRepository
func NewGormBranchInventoryRepository(db *gorm.DB) *GormBranchInventoryRepository {
	return &GormBranchInventoryRepository{db: db}
}

// FindByID finds a record by its ID
func (r *GormBranchInventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.BranchInventoryRecord, error) {
	var record inventory.BranchInventoryRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByBranchAndProduct finds the record for a branch-product combination
func (r *GormBranchInventoryRepository) FindByBranchAndProduct(ctx context.Context, branchID, productID uuid.UUID) (*inventory.BranchInventoryRecord, error) {
	var record inventory.BranchInventoryRecord
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND product_id = ?", branchID, productID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListByBranch lists all records at a branch
func (r *GormBranchInventoryRepository) ListByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]inventory.BranchInventoryRecord, int64, error) {
	filter.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.BranchInventoryRecord{}).
		Where("branch_id = ?", branchID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []inventory.BranchInventoryRecord
	if err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order(orderClause(filter, inventoryAllowedSortFields, "updated_at")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListLowStock lists records across a brand where the quantity is positive
// but at or below the record's low-stock threshold
func (r *GormBranchInventoryRepository) ListLowStock(ctx context.Context, brandID uuid.UUID, filter shared.Filter) ([]inventory.BranchInventoryRecord, int64, error) {
	filter.Normalize()

	const lowStockCond = "brand_id = ? AND low_stock_threshold > 0 AND quantity > 0 AND quantity <= low_stock_threshold"

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.BranchInventoryRecord{}).
		Where(lowStockCond, brandID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []inventory.BranchInventoryRecord
	if err := r.db.WithContext(ctx).
		Where(lowStockCond, brandID).
		Order("quantity ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Save creates or updates a record
func (r *GormBranchInventoryRepository) Save(ctx context.Context, record *inventory.BranchInventoryRecord) error {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return classifyWriteError(err)
	}
	return nil
}

// Upsert writes the record keyed on (branch_id, product_id). Concurrent
// writes to the same key are last-write-wins; manual override and threshold
// settings are left untouched so a sync never clobbers a human edit.
func (r *GormBranchInventoryRepository) Upsert(ctx context.Context, record *inventory.BranchInventoryRecord) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "branch_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"quantity", "available", "updated_at", "version",
			}),
		}).
		Create(record).Error
	if err != nil {
		return classifyWriteError(err)
	}
	return nil
}

// inventoryAllowedSortFields defines the allowed sort fields for inventory listings
var inventoryAllowedSortFields = map[string]bool{
	"quantity":   true,
	"created_at": true,
	"updated_at": true,
}

// Ensure GormBranchInventoryRepository implements BranchInventoryRepository
var _ inventory.BranchInventoryRepository = (*GormBranchInventoryRepository)(nil)
