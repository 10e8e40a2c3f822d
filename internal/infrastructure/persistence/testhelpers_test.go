package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&catalog.Branch{},
		&catalog.Product{},
		&catalog.BranchAssignment{},
		&inventory.BranchInventoryRecord{},
		&syncdomain.Integration{},
		&syncdomain.SyncRun{},
		&syncdomain.KeyMapping{},
	)
	require.NoError(t, err)

	return db
}

func newTestIntegration(t *testing.T, status syncdomain.IntegrationStatus) *syncdomain.Integration {
	t.Helper()

	integration, err := syncdomain.NewIntegration(
		uuid.New(), uuid.New(), syncdomain.AdapterTypeERP, []byte(`{}`), 15,
	)
	require.NoError(t, err)
	integration.Status = status
	return integration
}
