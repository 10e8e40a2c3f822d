package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/inventory"
)

// ManualAdjustRequest is a manual stock adjustment from the admin surface
type ManualAdjustRequest struct {
	BranchID  uuid.UUID                 `json:"branch_id" binding:"required"`
	ProductID uuid.UUID                 `json:"product_id" binding:"required"`
	Operation inventory.AdjustOperation `json:"operation" binding:"required"`
	Amount    int64                     `json:"amount"`
	// Threshold optionally updates the low-stock threshold in the same call
	Threshold *int64 `json:"threshold,omitempty"`
}

// SetAvailabilityRequest pins a record's availability regardless of quantity
type SetAvailabilityRequest struct {
	BranchID  uuid.UUID `json:"branch_id" binding:"required"`
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Available *bool     `json:"available" binding:"required"`
}

// ClearOverrideRequest clears the manual-override flag on a record
type ClearOverrideRequest struct {
	BranchID  uuid.UUID `json:"branch_id" binding:"required"`
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

// RecordResponse is the API shape of a branch inventory record
type RecordResponse struct {
	ID                uuid.UUID `json:"id"`
	BrandID           uuid.UUID `json:"brand_id"`
	BranchID          uuid.UUID `json:"branch_id"`
	ProductID         uuid.UUID `json:"product_id"`
	Quantity          int64     `json:"quantity"`
	LowStockThreshold int64     `json:"low_stock_threshold"`
	Available         bool      `json:"available"`
	ManualOverride    bool      `json:"manual_override"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ToRecordResponse converts a domain record to its API shape
func ToRecordResponse(record *inventory.BranchInventoryRecord) RecordResponse {
	return RecordResponse{
		ID:                record.ID,
		BrandID:           record.BrandID,
		BranchID:          record.BranchID,
		ProductID:         record.ProductID,
		Quantity:          record.Quantity,
		LowStockThreshold: record.LowStockThreshold,
		Available:         record.Available,
		ManualOverride:    record.ManualOverride,
		UpdatedAt:         record.UpdatedAt,
	}
}

// ToRecordResponses converts a slice of domain records
func ToRecordResponses(records []inventory.BranchInventoryRecord) []RecordResponse {
	responses := make([]RecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, ToRecordResponse(&records[i]))
	}
	return responses
}
