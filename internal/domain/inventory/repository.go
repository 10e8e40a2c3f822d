package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// BranchInventoryRepository defines the persistence port for branch
// inventory records. Upserts for different (branch, product) keys must not
// contend with each other; same-key writes are last-write-wins at the
// storage layer.
type BranchInventoryRepository interface {
	// FindByID finds a record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*BranchInventoryRecord, error)

	// FindByBranchAndProduct finds the record for a branch-product combination
	FindByBranchAndProduct(ctx context.Context, branchID, productID uuid.UUID) (*BranchInventoryRecord, error)

	// ListByBranch lists all records at a branch
	ListByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]BranchInventoryRecord, int64, error)

	// ListLowStock lists records across a brand where 0 < quantity <= threshold
	ListLowStock(ctx context.Context, brandID uuid.UUID, filter shared.Filter) ([]BranchInventoryRecord, int64, error)

	// Save persists the record, creating it when absent
	Save(ctx context.Context, record *BranchInventoryRecord) error

	// Upsert writes the record keyed on (branch_id, product_id)
	Upsert(ctx context.Context, record *BranchInventoryRecord) error
}
