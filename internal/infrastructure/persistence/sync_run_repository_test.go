package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared"
	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

func TestGormSyncRunRepository_SaveAndFindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSyncRunRepository(db)
	ctx := context.Background()

	run := syncdomain.NewSyncRun(uuid.New(), uuid.New())
	require.NoError(t, run.Start())
	run.RecordSuccess()
	run.RecordFailure("SKU-404", syncdomain.ErrorClassMapping, "no product for key")
	require.NoError(t, run.Finalize())

	require.NoError(t, repo.Save(ctx, run))

	found, err := repo.FindByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.RunStatusPartial, found.Status)
	assert.Equal(t, 1, found.ItemsUpdated)
	assert.Equal(t, 1, found.ItemsFailed)
	require.Len(t, found.Failures, 1)
	assert.Equal(t, "SKU-404", found.Failures[0].ExternalKey)
	assert.Equal(t, syncdomain.ErrorClassMapping, found.Failures[0].Class)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormSyncRunRepository_ListByIntegration(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSyncRunRepository(db)
	ctx := context.Background()

	brandID := uuid.New()
	integrationID := uuid.New()
	otherIntegrationID := uuid.New()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		run := syncdomain.NewSyncRun(brandID, integrationID)
		run.StartedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(ctx, run))
	}
	require.NoError(t, repo.Save(ctx, syncdomain.NewSyncRun(brandID, otherIntegrationID)))

	runs, total, err := repo.ListByIntegration(ctx, integrationID, shared.Filter{Page: 1, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, runs, 3)

	// Newest first
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
	assert.True(t, runs[1].StartedAt.After(runs[2].StartedAt))

	secondPage, total, err := repo.ListByIntegration(ctx, integrationID, shared.Filter{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, secondPage, 2)
}

func TestGormSyncRunRepository_Prune_ByCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSyncRunRepository(db)
	ctx := context.Background()

	brandID := uuid.New()
	integrationID := uuid.New()

	base := time.Now().Add(-time.Hour)
	var newest uuid.UUID
	for i := 0; i < 6; i++ {
		run := syncdomain.NewSyncRun(brandID, integrationID)
		run.StartedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(ctx, run))
		newest = run.ID
	}

	removed, err := repo.Prune(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)

	runs, total, err := repo.ListByIntegration(ctx, integrationID, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, runs, 2)
	assert.Equal(t, newest, runs[0].ID, "newest runs survive pruning")
}

func TestGormSyncRunRepository_Prune_ByAge(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSyncRunRepository(db)
	ctx := context.Background()

	brandID := uuid.New()
	integrationID := uuid.New()

	old := syncdomain.NewSyncRun(brandID, integrationID)
	old.StartedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, repo.Save(ctx, old))

	recent := syncdomain.NewSyncRun(brandID, integrationID)
	require.NoError(t, repo.Save(ctx, recent))

	removed, err := repo.Prune(ctx, 0, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.FindByID(ctx, old.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindByID(ctx, recent.ID)
	assert.NoError(t, err)
}

func TestGormSyncRunRepository_Prune_CountScopedPerIntegration(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSyncRunRepository(db)
	ctx := context.Background()

	brandID := uuid.New()
	integrationA := uuid.New()
	integrationB := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(ctx, syncdomain.NewSyncRun(brandID, integrationA)))
		require.NoError(t, repo.Save(ctx, syncdomain.NewSyncRun(brandID, integrationB)))
	}

	removed, err := repo.Prune(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, totalA, err := repo.ListByIntegration(ctx, integrationA, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	_, totalB, err2 := repo.ListByIntegration(ctx, integrationB, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err2)
	assert.Equal(t, int64(2), totalA)
	assert.Equal(t, int64(2), totalB)
}
