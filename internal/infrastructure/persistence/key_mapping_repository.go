package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/shared"
	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// GormKeyMappingRepository implements KeyMappingRepository using GORM
type GormKeyMappingRepository struct {
	db *gorm.DB
}

// NewGormKeyMappingRepository creates a new GormKeyMappingRepository
func NewGormKeyMappingRepository(db *gorm.DB) *GormKeyMappingRepository {
	return &GormKeyMappingRepository{db: db}
}

// FindByIntegrationAndKey finds the mapping for an external key
func (r *GormKeyMappingRepository) FindByIntegrationAndKey(ctx context.Context, integrationID uuid.UUID, externalKey string) (*syncdomain.KeyMapping, error) {
	var mapping syncdomain.KeyMapping
	if err := r.db.WithContext(ctx).
		Where("integration_id = ? AND external_key = ?", integrationID, externalKey).
		First(&mapping).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &mapping, nil
}

// FindByIntegration lists all mappings for an integration
func (r *GormKeyMappingRepository) FindByIntegration(ctx context.Context, integrationID uuid.UUID) ([]syncdomain.KeyMapping, error) {
	var mappings []syncdomain.KeyMapping
	if err := r.db.WithContext(ctx).
		Where("integration_id = ?", integrationID).
		Order("external_key ASC").
		Find(&mappings).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}

// Save creates or updates a mapping
func (r *GormKeyMappingRepository) Save(ctx context.Context, mapping *syncdomain.KeyMapping) error {
	return r.db.WithContext(ctx).Save(mapping).Error
}

// Delete removes a mapping
func (r *GormKeyMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&syncdomain.KeyMapping{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormKeyMappingRepository implements KeyMappingRepository
var _ syncdomain.KeyMappingRepository = (*GormKeyMappingRepository)(nil)
