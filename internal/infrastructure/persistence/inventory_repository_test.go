package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
)

func newTestRecord(t *testing.T, brandID, branchID uuid.UUID, quantity int64) *inventory.BranchInventoryRecord {
	t.Helper()

	record, err := inventory.NewBranchInventoryRecord(brandID, branchID, uuid.New())
	require.NoError(t, err)
	record.ApplyExternalQuantity(quantity)
	return record
}

func TestGormBranchInventoryRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBranchInventoryRepository(db)
	ctx := context.Background()

	brandID := uuid.New()
	branchID := uuid.New()
	record := newTestRecord(t, brandID, branchID, 7)
	require.NoError(t, repo.Save(ctx, record))

	found, err := repo.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), found.Quantity)
	assert.True(t, found.Available)

	byKey, err := repo.FindByBranchAndProduct(ctx, branchID, record.ProductID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, byKey.ID)

	_, err = repo.FindByBranchAndProduct(ctx, branchID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormBranchInventoryRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBranchInventoryRepository(db)
	ctx := context.Background()

	brandID := uuid.New()
	branchID := uuid.New()
	record := newTestRecord(t, brandID, branchID, 10)
	require.NoError(t, repo.Upsert(ctx, record))

	// Second write for the same (branch, product) updates in place
	record.ApplyExternalQuantity(3)
	require.NoError(t, repo.Upsert(ctx, record))

	var count int64
	require.NoError(t, db.Model(&inventory.BranchInventoryRecord{}).
		Where("branch_id = ? AND product_id = ?", branchID, record.ProductID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count, "upsert must not create duplicate rows")

	found, err := repo.FindByBranchAndProduct(ctx, branchID, record.ProductID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), found.Quantity)
}

func TestGormBranchInventoryRepository_UpsertPreservesManualSettings(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBranchInventoryRepository(db)
	ctx := context.Background()

	brandID := uuid.New()
	branchID := uuid.New()
	record := newTestRecord(t, brandID, branchID, 10)
	record.SetAvailability(false)
	require.NoError(t, record.SetLowStockThreshold(5))
	require.NoError(t, repo.Save(ctx, record))

	// A manual adjustment reloads the row and writes a new quantity; the
	// override flag and threshold columns survive the write
	loaded, err := repo.FindByBranchAndProduct(ctx, branchID, record.ProductID)
	require.NoError(t, err)
	require.NoError(t, loaded.Adjust(inventory.AdjustOperationSet, 42))
	require.NoError(t, repo.Upsert(ctx, loaded))

	found, err := repo.FindByBranchAndProduct(ctx, branchID, record.ProductID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), found.Quantity)
	assert.True(t, found.ManualOverride)
	assert.False(t, found.Available, "manual availability survives sync writes")
	assert.Equal(t, int64(5), found.LowStockThreshold)
}

func TestGormBranchInventoryRepository_ListByBranch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBranchInventoryRepository(db)
	ctx := context.Background()

	brandID := uuid.New()
	branchID := uuid.New()
	for i := int64(1); i <= 4; i++ {
		require.NoError(t, repo.Save(ctx, newTestRecord(t, brandID, branchID, i)))
	}
	require.NoError(t, repo.Save(ctx, newTestRecord(t, brandID, uuid.New(), 99)))

	records, total, err := repo.ListByBranch(ctx, branchID, shared.Filter{Page: 1, PageSize: 3, OrderBy: "quantity", OrderDir: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, records, 3)
	assert.Equal(t, int64(1), records[0].Quantity)
}

func TestGormBranchInventoryRepository_ListLowStock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBranchInventoryRepository(db)
	ctx := context.Background()

	brandID := uuid.New()
	branchID := uuid.New()

	low := newTestRecord(t, brandID, branchID, 2)
	require.NoError(t, low.SetLowStockThreshold(5))

	healthy := newTestRecord(t, brandID, branchID, 50)
	require.NoError(t, healthy.SetLowStockThreshold(5))

	// Zero stock is out-of-stock, not low stock
	empty := newTestRecord(t, brandID, branchID, 0)
	require.NoError(t, empty.SetLowStockThreshold(5))

	// No threshold configured means no alerting
	noThreshold := newTestRecord(t, brandID, branchID, 1)

	otherBrand := newTestRecord(t, uuid.New(), uuid.New(), 2)
	require.NoError(t, otherBrand.SetLowStockThreshold(5))

	for _, r := range []*inventory.BranchInventoryRecord{low, healthy, empty, noThreshold, otherBrand} {
		require.NoError(t, repo.Save(ctx, r))
	}

	records, total, err := repo.ListLowStock(ctx, brandID, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, low.ID, records[0].ID)
}
