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

// GormIntegrationRepository implements IntegrationRepository using GORM
type GormIntegrationRepository struct {
	db *gorm.DB
}

// NewGormIntegrationRepository creates a new GormIntegrationRepository
func NewGormIntegrationRepository(db *gorm.DB) *GormIntegrationRepository {
	return &GormIntegrationRepository{db: db}
}

// FindByID finds an integration by its ID
func (r *GormIntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*syncdomain.Integration, error) {
	var integration syncdomain.Integration
	if err := r.db.WithContext(ctx).First(&integration, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &integration, nil
}

// FindByBranch finds all integrations for a branch
func (r *GormIntegrationRepository) FindByBranch(ctx context.Context, branchID uuid.UUID) ([]syncdomain.Integration, error) {
	var integrations []syncdomain.Integration
	if err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("created_at DESC").
		Find(&integrations).Error; err != nil {
		return nil, err
	}
	return integrations, nil
}

// FindActiveByBranch finds the single active integration for a branch
func (r *GormIntegrationRepository) FindActiveByBranch(ctx context.Context, branchID uuid.UUID) (*syncdomain.Integration, error) {
	var integration syncdomain.Integration
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND status = ?", branchID, syncdomain.IntegrationStatusActive).
		First(&integration).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &integration, nil
}

// FindDue finds active integrations whose next sync time is at or before now.
// The interval check runs in memory so the query stays portable; active
// integration counts are small.
func (r *GormIntegrationRepository) FindDue(ctx context.Context, now time.Time) ([]syncdomain.Integration, error) {
	var active []syncdomain.Integration
	if err := r.db.WithContext(ctx).
		Where("status = ?", syncdomain.IntegrationStatusActive).
		Find(&active).Error; err != nil {
		return nil, err
	}

	due := make([]syncdomain.Integration, 0, len(active))
	for _, integration := range active {
		if integration.IsDue(now) {
			due = append(due, integration)
		}
	}
	return due, nil
}

// Save creates or updates an integration
func (r *GormIntegrationRepository) Save(ctx context.Context, integration *syncdomain.Integration) error {
	return r.db.WithContext(ctx).Save(integration).Error
}

// ClaimRun atomically sets CurrentRunID via a conditional update. The claim
// refreshes updated_at, so a claim whose row has not been touched within
// staleAfter is treated as abandoned (crashed worker) and can be reclaimed.
func (r *GormIntegrationRepository) ClaimRun(ctx context.Context, integrationID, runID uuid.UUID, staleAfter time.Duration) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&syncdomain.Integration{}).
		Where("id = ? AND (current_run_id IS NULL OR updated_at < ?)", integrationID, now.Add(-staleAfter)).
		Updates(map[string]any{
			"current_run_id": runID,
			"updated_at":     now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&syncdomain.Integration{}).
			Where("id = ?", integrationID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return syncdomain.ErrAlreadyRunning
	}
	return nil
}

// ReleaseRun clears CurrentRunID if it still equals runID. Releasing a claim
// that was already reclaimed by another worker is a no-op.
func (r *GormIntegrationRepository) ReleaseRun(ctx context.Context, integrationID, runID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&syncdomain.Integration{}).
		Where("id = ? AND current_run_id = ?", integrationID, runID).
		Updates(map[string]any{
			"current_run_id": nil,
			"updated_at":     time.Now(),
		}).Error
}

// Ensure GormIntegrationRepository implements IntegrationRepository
var _ syncdomain.IntegrationRepository = (*GormIntegrationRepository)(nil)
