package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
)

// ErrProductNotAssigned is returned when adjusting stock for a product that
// is not part of the branch's catalog
var ErrProductNotAssigned = shared.NewDomainError("PRODUCT_NOT_ASSIGNED", "Product is not assigned to this branch")

// InventoryService handles the admin-facing inventory operations: manual
// stock adjustments (which set the manual-override flag), override clearing,
// and inventory queries. The sync reconciler bypasses this service and works
// on the repository directly.
type InventoryService struct {
	inventoryRepo inventory.BranchInventoryRepository
	productRepo   catalog.ProductRepository
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	inventoryRepo inventory.BranchInventoryRepository,
	productRepo catalog.ProductRepository,
) *InventoryService {
	return &InventoryService{
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
	}
}

// ManualAdjust applies a manual stock adjustment. The record is created with
// quantity zero when absent (and the product is assigned to the branch), the
// operation is applied with clamping, and the record is flagged as manually
// overridden so subsequent syncs do not clobber the human edit.
func (s *InventoryService) ManualAdjust(ctx context.Context, req ManualAdjustRequest) (*RecordResponse, error) {
	if !req.Operation.IsValid() {
		return nil, shared.NewDomainError("INVALID_OPERATION", "Operation must be set, add or subtract")
	}

	record, err := s.loadOrCreateRecord(ctx, req.BranchID, req.ProductID)
	if err != nil {
		return nil, err
	}

	if err := record.Adjust(req.Operation, req.Amount); err != nil {
		return nil, err
	}
	if req.Threshold != nil {
		if err := record.SetLowStockThreshold(*req.Threshold); err != nil {
			return nil, err
		}
	}
	record.MarkManualOverride()

	// Save writes the full row: unlike the sync path's Upsert, a manual edit
	// must persist the override flag and threshold too
	if err := s.inventoryRepo.Save(ctx, record); err != nil {
		return nil, err
	}

	response := ToRecordResponse(record)
	return &response, nil
}

// SetAvailability pins the record's storefront availability independent of
// quantity, e.g. pulling a recalled product. Sets the manual-override flag.
func (s *InventoryService) SetAvailability(ctx context.Context, req SetAvailabilityRequest) (*RecordResponse, error) {
	if req.Available == nil {
		return nil, shared.NewDomainError("INVALID_AVAILABILITY", "Available flag is required")
	}

	record, err := s.loadOrCreateRecord(ctx, req.BranchID, req.ProductID)
	if err != nil {
		return nil, err
	}

	record.SetAvailability(*req.Available)

	if err := s.inventoryRepo.Save(ctx, record); err != nil {
		return nil, err
	}

	response := ToRecordResponse(record)
	return &response, nil
}

// ClearOverride removes the manual-override flag so availability is derived
// from quantity again and sync writes regain precedence
func (s *InventoryService) ClearOverride(ctx context.Context, req ClearOverrideRequest) (*RecordResponse, error) {
	record, err := s.inventoryRepo.FindByBranchAndProduct(ctx, req.BranchID, req.ProductID)
	if err != nil {
		return nil, err
	}

	record.ClearManualOverride()
	if err := s.inventoryRepo.Save(ctx, record); err != nil {
		return nil, err
	}

	response := ToRecordResponse(record)
	return &response, nil
}

// Get retrieves the record for a branch-product combination
func (s *InventoryService) Get(ctx context.Context, branchID, productID uuid.UUID) (*RecordResponse, error) {
	record, err := s.inventoryRepo.FindByBranchAndProduct(ctx, branchID, productID)
	if err != nil {
		return nil, err
	}
	response := ToRecordResponse(record)
	return &response, nil
}

// ListByBranch lists inventory records at a branch
func (s *InventoryService) ListByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]RecordResponse, int64, error) {
	filter.Normalize()
	records, total, err := s.inventoryRepo.ListByBranch(ctx, branchID, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToRecordResponses(records), total, nil
}

// ListLowStock lists records across a brand where stock is positive but at
// or below the low-stock threshold
func (s *InventoryService) ListLowStock(ctx context.Context, brandID uuid.UUID, filter shared.Filter) ([]RecordResponse, int64, error) {
	filter.Normalize()
	records, total, err := s.inventoryRepo.ListLowStock(ctx, brandID, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToRecordResponses(records), total, nil
}

// loadOrCreateRecord loads the record, creating a zero-quantity one when the
// product is assigned to the branch
func (s *InventoryService) loadOrCreateRecord(ctx context.Context, branchID, productID uuid.UUID) (*inventory.BranchInventoryRecord, error) {
	record, err := s.inventoryRepo.FindByBranchAndProduct(ctx, branchID, productID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	assigned, err := s.productRepo.IsAssignedToBranch(ctx, branchID, productID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, ErrProductNotAssigned
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return inventory.NewBranchInventoryRecord(product.BrandID, branchID, productID)
}
