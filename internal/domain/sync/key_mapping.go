package sync

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// KeyMapping pins an external product key to an internal product for one
// integration. The reconciler consults these mappings before falling back to
// matching the key against the brand's product codes.
type KeyMapping struct {
	shared.BaseEntity
	IntegrationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_key_mapping_integration_key,priority:1"`
	ExternalKey   string    `gorm:"size:255;not null;uniqueIndex:idx_key_mapping_integration_key,priority:2"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (KeyMapping) TableName() string {
	return "sync_key_mappings"
}

// NewKeyMapping creates a mapping from an external key to a product
func NewKeyMapping(integrationID uuid.UUID, externalKey string, productID uuid.UUID) (*KeyMapping, error) {
	if integrationID == uuid.Nil || productID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	if externalKey == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_KEY", "External key is required")
	}
	return &KeyMapping{
		BaseEntity:    shared.NewBaseEntity(),
		IntegrationID: integrationID,
		ExternalKey:   externalKey,
		ProductID:     productID,
	}, nil
}

// KeyMappingRepository defines the persistence port for key mappings
type KeyMappingRepository interface {
	// FindByIntegrationAndKey finds the mapping for an external key
	FindByIntegrationAndKey(ctx context.Context, integrationID uuid.UUID, externalKey string) (*KeyMapping, error)
	// FindByIntegration lists all mappings for an integration
	FindByIntegration(ctx context.Context, integrationID uuid.UUID) ([]KeyMapping, error)
	Save(ctx context.Context, mapping *KeyMapping) error
	Delete(ctx context.Context, id uuid.UUID) error
}
