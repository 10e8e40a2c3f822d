package inventory

import (
	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// AdjustOperation represents a stock adjustment operation
type AdjustOperation string

const (
	// AdjustOperationSet overwrites the quantity with the given amount
	AdjustOperationSet AdjustOperation = "set"
	// AdjustOperationAdd increases the quantity by the given amount
	AdjustOperationAdd AdjustOperation = "add"
	// AdjustOperationSubtract decreases the quantity, clamped at zero
	AdjustOperationSubtract AdjustOperation = "subtract"
)

// IsValid returns true if the operation is valid
func (o AdjustOperation) IsValid() bool {
	switch o {
	case AdjustOperationSet, AdjustOperationAdd, AdjustOperationSubtract:
		return true
	default:
		return false
	}
}

// String returns the string representation of AdjustOperation
func (o AdjustOperation) String() string {
	return string(o)
}

// BranchInventoryRecord is the authoritative stock level for one product at
// one branch. It is the aggregate root for all stock mutations; the rest of
// the platform (storefront, order engine, low-stock alerting) reads only
// from these records, never from external systems directly.
//
// Invariants: Quantity is never negative; Available is derived from the
// quantity unless ManualOverride is set, in which case human edits win until
// the override is explicitly cleared.
type BranchInventoryRecord struct {
	shared.BrandAggregateRoot
	BranchID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_branch_product,priority:1"`
	ProductID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_branch_product,priority:2"`
	Quantity          int64     `gorm:"not null;default:0"`
	LowStockThreshold int64     `gorm:"not null;default:0"`
	Available         bool      `gorm:"not null;default:false"`
	ManualOverride    bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (BranchInventoryRecord) TableName() string {
	return "branch_inventory_records"
}

// NewBranchInventoryRecord creates a zero-quantity record for a
// branch-product combination
func NewBranchInventoryRecord(brandID, branchID, productID uuid.UUID) (*BranchInventoryRecord, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}

	return &BranchInventoryRecord{
		BrandAggregateRoot: shared.NewBrandAggregateRoot(brandID),
		BranchID:           branchID,
		ProductID:          productID,
		Quantity:           0,
		Available:          false,
	}, nil
}

// Adjust applies a stock adjustment operation. The resulting quantity is
// clamped at zero for every operation; stock can never go negative.
// Availability is recomputed unless a manual override is in effect.
func (r *BranchInventoryRecord) Adjust(op AdjustOperation, amount int64) error {
	if !op.IsValid() {
		return shared.NewDomainError("INVALID_OPERATION", "Unknown adjustment operation")
	}
	if amount < 0 && op != AdjustOperationSet {
		return shared.NewDomainError("INVALID_AMOUNT", "Adjustment amount cannot be negative")
	}

	switch op {
	case AdjustOperationSet:
		r.Quantity = clampNonNegative(amount)
	case AdjustOperationAdd:
		r.Quantity = clampNonNegative(r.Quantity + amount)
	case AdjustOperationSubtract:
		r.Quantity = clampNonNegative(r.Quantity - amount)
	}

	r.recomputeAvailability()
	r.Touch()
	r.IncrementVersion()
	return nil
}

// ApplyExternalQuantity performs a sync-driven set of the quantity, clamped
// at zero. A record under manual override is left untouched: the human-set
// quantity and availability win until the override is explicitly cleared.
// Reports whether the record changed, so callers can skip the write when the
// snapshot already matches the stored state.
func (r *BranchInventoryRecord) ApplyExternalQuantity(quantity int64) bool {
	if r.ManualOverride {
		return false
	}
	clamped := clampNonNegative(quantity)
	if r.Quantity == clamped && r.Available == (clamped > 0) {
		return false
	}
	r.Quantity = clamped
	r.Available = clamped > 0
	r.Touch()
	r.IncrementVersion()
	return true
}

// MarkManualOverride flags the record as human-controlled. Sync writes skip
// overridden records entirely.
func (r *BranchInventoryRecord) MarkManualOverride() {
	r.ManualOverride = true
	r.Touch()
	r.IncrementVersion()
}

// ClearManualOverride removes the override flag and recomputes availability
// from the current quantity.
func (r *BranchInventoryRecord) ClearManualOverride() {
	r.ManualOverride = false
	r.Available = r.Quantity > 0
	r.Touch()
	r.IncrementVersion()
}

// SetAvailability sets the availability flag explicitly and marks the record
// as manually overridden.
func (r *BranchInventoryRecord) SetAvailability(available bool) {
	r.Available = available
	r.ManualOverride = true
	r.Touch()
	r.IncrementVersion()
}

// SetLowStockThreshold sets the low-stock alert threshold
func (r *BranchInventoryRecord) SetLowStockThreshold(threshold int64) error {
	if threshold < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Low-stock threshold cannot be negative")
	}
	r.LowStockThreshold = threshold
	r.Touch()
	r.IncrementVersion()
	return nil
}

// IsLowStock returns true when stock is positive but at or below the threshold
func (r *BranchInventoryRecord) IsLowStock() bool {
	return r.LowStockThreshold > 0 && r.Quantity > 0 && r.Quantity <= r.LowStockThreshold
}

// recomputeAvailability derives the availability flag from the quantity
// unless a manual override is in effect
func (r *BranchInventoryRecord) recomputeAvailability() {
	if r.ManualOverride {
		return
	}
	r.Available = r.Quantity > 0
}

func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
