package sync

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// Reconciler turns a canonical stock snapshot into branch inventory
// mutations and classifies per-item outcomes onto the run.
//
// Per-item errors never escape: they accumulate on the SyncRun. Only
// run-wide conditions (storage outage, cancellation) are returned, and they
// abort the remaining items.
type Reconciler struct {
	inventoryRepo inventory.BranchInventoryRepository
	productRepo   catalog.ProductRepository
	mappingRepo   syncdomain.KeyMappingRepository
	logger        *zap.Logger
}

// NewReconciler creates a new Reconciler
func NewReconciler(
	inventoryRepo inventory.BranchInventoryRepository,
	productRepo catalog.ProductRepository,
	mappingRepo syncdomain.KeyMappingRepository,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
		mappingRepo:   mappingRepo,
		logger:        logger,
	}
}

// Reconcile applies the snapshot item by item, recording outcomes on the
// run. The in-flight item is always allowed to complete; cancellation is
// honored between items so a timed-out run never leaves a half-written
// record.
func (r *Reconciler) Reconcile(ctx context.Context, integ *syncdomain.Integration, items []syncdomain.CanonicalStockItem, run *syncdomain.SyncRun) error {
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return syncdomain.NewTimeoutError(err)
		}

		if err := r.reconcileItem(ctx, integ, item, run); err != nil {
			// Run-wide condition: abort the remaining items
			return err
		}
	}
	return nil
}

// reconcileItem processes a single item. A nil return means the item's
// outcome (success or failure) was recorded on the run; a non-nil return is
// a run-wide condition.
func (r *Reconciler) reconcileItem(ctx context.Context, integ *syncdomain.Integration, item syncdomain.CanonicalStockItem, run *syncdomain.SyncRun) error {
	productID, err := r.resolveProduct(ctx, integ, item)
	if err != nil {
		switch syncdomain.ClassOf(err) {
		case syncdomain.ErrorClassStorageUnavailable:
			return err
		case syncdomain.ErrorClassMapping:
			run.RecordFailure(item.ExternalKey, syncdomain.ErrorClassMapping, "unmapped product")
		default:
			// The lookup itself failed; the key may be perfectly valid
			run.RecordFailure(item.ExternalKey, syncdomain.ErrorClassStorage, "storage error")
		}
		return nil
	}

	record, created, err := r.loadOrCreateRecord(ctx, integ, item.ExternalKey, productID, run)
	if err != nil {
		return err
	}
	if record == nil {
		// Item failure already recorded
		return nil
	}

	// The external system is authoritative for this item, but a manual
	// override pins the record until a human clears it, and a snapshot that
	// already matches the stored state needs no write. Freshly created
	// records are always persisted.
	if !record.ApplyExternalQuantity(item.Quantity) && !created {
		run.RecordSuccess()
		return nil
	}

	if err := r.inventoryRepo.Upsert(ctx, record); err != nil {
		if syncdomain.ClassOf(err) == syncdomain.ErrorClassStorageUnavailable {
			return err
		}
		r.logger.Warn("Inventory upsert failed for sync item",
			zap.String("integration_id", integ.ID.String()),
			zap.String("external_key", item.ExternalKey),
			zap.Error(err),
		)
		run.RecordFailure(item.ExternalKey, syncdomain.ErrorClassStorage, "storage error")
		return nil
	}

	run.RecordSuccess()
	return nil
}

// resolveProduct resolves the internal product for an item: the adapter's
// own resolution first, then the integration's key mappings, then the
// brand's product codes.
func (r *Reconciler) resolveProduct(ctx context.Context, integ *syncdomain.Integration, item syncdomain.CanonicalStockItem) (uuid.UUID, error) {
	if item.ProductID != uuid.Nil {
		return item.ProductID, nil
	}
	if item.ExternalKey == "" {
		return uuid.Nil, syncdomain.NewMappingError(errors.New("empty external key"))
	}

	mapping, err := r.mappingRepo.FindByIntegrationAndKey(ctx, integ.ID, item.ExternalKey)
	if err == nil {
		return mapping.ProductID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return uuid.Nil, err
	}

	product, err := r.productRepo.FindByBrandAndCode(ctx, integ.BrandID, item.ExternalKey)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return uuid.Nil, syncdomain.NewMappingError(err)
		}
		return uuid.Nil, err
	}
	return product.ID, nil
}

// loadOrCreateRecord loads the inventory record, creating a zero-quantity
// one when the product belongs to the branch's catalog. The second return is
// true for a freshly created record; (nil, false, nil) means the item failed
// and its failure was recorded.
func (r *Reconciler) loadOrCreateRecord(ctx context.Context, integ *syncdomain.Integration, externalKey string, productID uuid.UUID, run *syncdomain.SyncRun) (*inventory.BranchInventoryRecord, bool, error) {
	record, err := r.inventoryRepo.FindByBranchAndProduct(ctx, integ.BranchID, productID)
	if err == nil {
		return record, false, nil
	}
	if syncdomain.ClassOf(err) == syncdomain.ErrorClassStorageUnavailable {
		return nil, false, err
	}
	if !errors.Is(err, shared.ErrNotFound) {
		run.RecordFailure(externalKey, syncdomain.ErrorClassStorage, "storage error")
		return nil, false, nil
	}

	assigned, err := r.productRepo.IsAssignedToBranch(ctx, integ.BranchID, productID)
	if err != nil {
		if syncdomain.ClassOf(err) == syncdomain.ErrorClassStorageUnavailable {
			return nil, false, err
		}
		run.RecordFailure(externalKey, syncdomain.ErrorClassStorage, "storage error")
		return nil, false, nil
	}
	if !assigned {
		run.RecordFailure(externalKey, syncdomain.ErrorClassMapping, "product not assigned to branch")
		return nil, false, nil
	}

	record, err = inventory.NewBranchInventoryRecord(integ.BrandID, integ.BranchID, productID)
	if err != nil {
		run.RecordFailure(externalKey, syncdomain.ErrorClassStorage, err.Error())
		return nil, false, nil
	}
	return record, true, nil
}
