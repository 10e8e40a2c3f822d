package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

type webhookFixture struct {
	service         *WebhookService
	integrationRepo *mockIntegrationRepository
	runRepo         *mockSyncRunRepository
	adapter         *mockPushAdapter
	invRepo         *memInventoryRepo
	idempotency     *mockIdempotencyStore
}

func newWebhookFixture(t *testing.T, integ *syncdomain.Integration) *webhookFixture {
	t.Helper()

	f := &webhookFixture{
		integrationRepo: new(mockIntegrationRepository),
		runRepo:         new(mockSyncRunRepository),
		adapter:         new(mockPushAdapter),
		invRepo:         newMemInventoryRepo(),
		idempotency:     new(mockIdempotencyStore),
	}

	registry := new(mockAdapterRegistry)
	registry.On("GetPush", syncdomain.AdapterTypeWebhook).Return(f.adapter, nil)

	f.integrationRepo.On("FindByID", mock.Anything, integ.ID).Return(integ, nil)

	reconciler := NewReconciler(f.invRepo, new(mockProductRepository), new(mockKeyMappingRepository), zap.NewNop())
	f.service = NewWebhookService(f.integrationRepo, f.runRepo, registry, reconciler, f.idempotency, nil, zap.NewNop())
	return f
}

func TestWebhookIngest_RejectsBadToken(t *testing.T) {
	integ := newActiveIntegration(t, syncdomain.AdapterTypeWebhook)
	f := newWebhookFixture(t, integ)

	f.adapter.On("Authenticate", "wrong-token", mock.Anything).
		Return(syncdomain.ErrWebhookTokenMismatch)

	_, err := f.service.Ingest(context.Background(), integ.ID, "wrong-token", []byte(`{}`))
	require.ErrorIs(t, err, syncdomain.ErrWebhookTokenMismatch)
	f.adapter.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

func TestWebhookIngest_RejectsInactiveIntegration(t *testing.T) {
	integ, err := syncdomain.NewIntegration(uuid.New(), uuid.New(), syncdomain.AdapterTypeWebhook, []byte(`{}`), 15)
	require.NoError(t, err)
	f := newWebhookFixture(t, integ)

	_, err = f.service.Ingest(context.Background(), integ.ID, "token", []byte(`{}`))
	require.ErrorIs(t, err, syncdomain.ErrIntegrationNotActive)
}

func TestWebhookIngest_RejectsPullIntegration(t *testing.T) {
	integ := newActiveIntegration(t, syncdomain.AdapterTypeERP)
	f := newWebhookFixture(t, integ)

	_, err := f.service.Ingest(context.Background(), integ.ID, "token", []byte(`{}`))
	require.ErrorIs(t, err, syncdomain.ErrPushNotSupported)
}

func TestWebhookIngest_SuppressesDuplicateDelivery(t *testing.T) {
	integ := newActiveIntegration(t, syncdomain.AdapterTypeWebhook)
	f := newWebhookFixture(t, integ)

	f.adapter.On("Authenticate", "token", mock.Anything).Return(nil)
	f.adapter.On("Ingest", mock.Anything, mock.Anything).
		Return([]syncdomain.CanonicalStockItem{{ExternalKey: "SKU-1", ProductID: uuid.New(), Quantity: 5}}, "delivery-42", nil)
	f.idempotency.On("CheckAndSet", mock.Anything, mock.Anything, DefaultIdempotencyTTL).
		Return(false, nil)

	result, err := f.service.Ingest(context.Background(), integ.ID, "token", []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Nil(t, result.RunID)
	f.runRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestWebhookIngest_ProcessesDelivery(t *testing.T) {
	integ := newActiveIntegration(t, syncdomain.AdapterTypeWebhook)
	f := newWebhookFixture(t, integ)

	p1 := uuid.New()
	seedRecord(t, f.invRepo, integ, p1, 0)

	f.adapter.On("Authenticate", "token", mock.Anything).Return(nil)
	f.adapter.On("Ingest", mock.Anything, mock.Anything).
		Return([]syncdomain.CanonicalStockItem{{ExternalKey: "SKU-1", ProductID: p1, Quantity: 17}}, "delivery-1", nil)
	f.idempotency.On("CheckAndSet", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.integrationRepo.On("ClaimRun", mock.Anything, integ.ID, mock.Anything, mock.Anything).Return(nil)
	f.integrationRepo.On("ReleaseRun", mock.Anything, integ.ID, mock.Anything).Return(nil)
	f.integrationRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.runRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.Ingest(context.Background(), integ.ID, "token", []byte(`{"sku":"SKU-1","qty":17}`))
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, 1, result.ItemsAccepted)
	assert.Equal(t, 0, result.ItemsRejected)
	require.NotNil(t, result.RunID)
	assert.Equal(t, int64(17), f.invRepo.quantity(integ.BranchID, p1))
	f.integrationRepo.AssertCalled(t, "ReleaseRun", mock.Anything, integ.ID, mock.Anything)
}

func TestWebhookIngest_RejectsWhenRunInFlight(t *testing.T) {
	integ := newActiveIntegration(t, syncdomain.AdapterTypeWebhook)
	f := newWebhookFixture(t, integ)

	f.adapter.On("Authenticate", "token", mock.Anything).Return(nil)
	f.adapter.On("Ingest", mock.Anything, mock.Anything).
		Return([]syncdomain.CanonicalStockItem{{ExternalKey: "SKU-1", ProductID: uuid.New(), Quantity: 1}}, "delivery-2", nil)
	f.idempotency.On("CheckAndSet", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.integrationRepo.On("ClaimRun", mock.Anything, integ.ID, mock.Anything, mock.Anything).
		Return(syncdomain.ErrAlreadyRunning)

	_, err := f.service.Ingest(context.Background(), integ.ID, "token", []byte(`{}`))
	require.ErrorIs(t, err, syncdomain.ErrAlreadyRunning)
}

func TestWebhookIngest_ProcessesWhenIdempotencyStoreDown(t *testing.T) {
	integ := newActiveIntegration(t, syncdomain.AdapterTypeWebhook)
	f := newWebhookFixture(t, integ)

	p1 := uuid.New()
	seedRecord(t, f.invRepo, integ, p1, 0)

	f.adapter.On("Authenticate", "token", mock.Anything).Return(nil)
	f.adapter.On("Ingest", mock.Anything, mock.Anything).
		Return([]syncdomain.CanonicalStockItem{{ExternalKey: "SKU-1", ProductID: p1, Quantity: 9}}, "delivery-3", nil)
	f.idempotency.On("CheckAndSet", mock.Anything, mock.Anything, mock.Anything).
		Return(false, errors.New("redis down"))
	f.integrationRepo.On("ClaimRun", mock.Anything, integ.ID, mock.Anything, mock.Anything).Return(nil)
	f.integrationRepo.On("ReleaseRun", mock.Anything, integ.ID, mock.Anything).Return(nil)
	f.integrationRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.runRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.Ingest(context.Background(), integ.ID, "token", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemsAccepted)
	assert.Equal(t, int64(9), f.invRepo.quantity(integ.BranchID, p1))
}
