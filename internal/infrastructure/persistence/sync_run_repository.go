package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/shared"
	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// GormSyncRunRepository implements SyncRunRepository using GORM. Runs are an
// append-only ledger: rows are created pending, updated once on finalize, and
// only ever removed by Prune.
type GormSyncRunRepository struct {
	db *gorm.DB
}

// NewGormSyncRunRepository creates a new GormSyncRunRepository
func NewGormSyncRunRepository(db *gorm.DB) *GormSyncRunRepository {
	return &GormSyncRunRepository{db: db}
}

// FindByID finds a run by its ID
func (r *GormSyncRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*syncdomain.SyncRun, error) {
	var run syncdomain.SyncRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// ListByIntegration lists runs for an integration, newest first
func (r *GormSyncRunRepository) ListByIntegration(ctx context.Context, integrationID uuid.UUID, filter shared.Filter) ([]syncdomain.SyncRun, int64, error) {
	filter.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&syncdomain.SyncRun{}).
		Where("integration_id = ?", integrationID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var runs []syncdomain.SyncRun
	if err := r.db.WithContext(ctx).
		Where("integration_id = ?", integrationID).
		Order("started_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&runs).Error; err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// Save creates or updates a run
func (r *GormSyncRunRepository) Save(ctx context.Context, run *syncdomain.SyncRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// Prune drops runs beyond keepPerIntegration per integration and runs older
// than maxAge, returning the number of deleted rows
func (r *GormSyncRunRepository) Prune(ctx context.Context, keepPerIntegration int, maxAge time.Duration) (int64, error) {
	var removed int64

	if maxAge > 0 {
		cutoff := time.Now().Add(-maxAge)
		result := r.db.WithContext(ctx).
			Where("started_at < ?", cutoff).
			Delete(&syncdomain.SyncRun{})
		if result.Error != nil {
			return removed, result.Error
		}
		removed += result.RowsAffected
	}

	if keepPerIntegration > 0 {
		result := r.db.WithContext(ctx).Exec(`
			DELETE FROM sync_runs WHERE id IN (
				SELECT id FROM (
					SELECT id, ROW_NUMBER() OVER (
						PARTITION BY integration_id ORDER BY started_at DESC
					) AS rank
					FROM sync_runs
				) ranked
				WHERE rank > ?
			)`, keepPerIntegration)
		if result.Error != nil {
			return removed, result.Error
		}
		removed += result.RowsAffected
	}

	return removed, nil
}

// Ensure GormSyncRunRepository implements SyncRunRepository
var _ syncdomain.SyncRunRepository = (*GormSyncRunRepository)(nil)
