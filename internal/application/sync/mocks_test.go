package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// Mock implementations

type mockIntegrationRepository struct {
	mock.Mock
}

func (m *mockIntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*syncdomain.Integration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncdomain.Integration), args.Error(1)
}

func (m *mockIntegrationRepository) FindByBranch(ctx context.Context, branchID uuid.UUID) ([]syncdomain.Integration, error) {
	args := m.Called(ctx, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]syncdomain.Integration), args.Error(1)
}

func (m *mockIntegrationRepository) FindActiveByBranch(ctx context.Context, branchID uuid.UUID) (*syncdomain.Integration, error) {
	args := m.Called(ctx, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncdomain.Integration), args.Error(1)
}

func (m *mockIntegrationRepository) FindDue(ctx context.Context, now time.Time) ([]syncdomain.Integration, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]syncdomain.Integration), args.Error(1)
}

func (m *mockIntegrationRepository) Save(ctx context.Context, integration *syncdomain.Integration) error {
	args := m.Called(ctx, integration)
	return args.Error(0)
}

func (m *mockIntegrationRepository) ClaimRun(ctx context.Context, integrationID, runID uuid.UUID, staleAfter time.Duration) error {
	args := m.Called(ctx, integrationID, runID, staleAfter)
	return args.Error(0)
}

func (m *mockIntegrationRepository) ReleaseRun(ctx context.Context, integrationID, runID uuid.UUID) error {
	args := m.Called(ctx, integrationID, runID)
	return args.Error(0)
}

type mockSyncRunRepository struct {
	mock.Mock
}

func (m *mockSyncRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*syncdomain.SyncRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncdomain.SyncRun), args.Error(1)
}

func (m *mockSyncRunRepository) ListByIntegration(ctx context.Context, integrationID uuid.UUID, filter shared.Filter) ([]syncdomain.SyncRun, int64, error) {
	args := m.Called(ctx, integrationID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]syncdomain.SyncRun), args.Get(1).(int64), args.Error(2)
}

func (m *mockSyncRunRepository) Save(ctx context.Context, run *syncdomain.SyncRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockSyncRunRepository) Prune(ctx context.Context, keepPerIntegration int, maxAge time.Duration) (int64, error) {
	args := m.Called(ctx, keepPerIntegration, maxAge)
	return args.Get(0).(int64), args.Error(1)
}

type mockAdapterRegistry struct {
	mock.Mock
}

func (m *mockAdapterRegistry) Get(adapterType syncdomain.AdapterType) (syncdomain.StockAdapter, error) {
	args := m.Called(adapterType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(syncdomain.StockAdapter), args.Error(1)
}

func (m *mockAdapterRegistry) GetPush(adapterType syncdomain.AdapterType) (syncdomain.PushAdapter, error) {
	args := m.Called(adapterType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(syncdomain.PushAdapter), args.Error(1)
}

func (m *mockAdapterRegistry) Types() []syncdomain.AdapterType {
	args := m.Called()
	return args.Get(0).([]syncdomain.AdapterType)
}

type mockStockAdapter struct {
	mock.Mock
}

func (m *mockStockAdapter) Type() syncdomain.AdapterType {
	args := m.Called()
	return args.Get(0).(syncdomain.AdapterType)
}

func (m *mockStockAdapter) ValidateConfig(raw []byte) error {
	args := m.Called(raw)
	return args.Error(0)
}

func (m *mockStockAdapter) Fetch(ctx context.Context, raw []byte) ([]syncdomain.CanonicalStockItem, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]syncdomain.CanonicalStockItem), args.Error(1)
}

type mockPushAdapter struct {
	mockStockAdapter
}

func (m *mockPushAdapter) Authenticate(token string, raw []byte) error {
	args := m.Called(token, raw)
	return args.Error(0)
}

func (m *mockPushAdapter) Ingest(payload []byte, raw []byte) ([]syncdomain.CanonicalStockItem, string, error) {
	args := m.Called(payload, raw)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]syncdomain.CanonicalStockItem), args.String(1), args.Error(2)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *mockProductRepository) FindByBrandAndCode(ctx context.Context, brandID uuid.UUID, code string) (*catalog.Product, error) {
	args := m.Called(ctx, brandID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *mockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) IsAssignedToBranch(ctx context.Context, branchID, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, branchID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *mockProductRepository) AssignToBranch(ctx context.Context, assignment *catalog.BranchAssignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

type mockKeyMappingRepository struct {
	mock.Mock
}

func (m *mockKeyMappingRepository) FindByIntegrationAndKey(ctx context.Context, integrationID uuid.UUID, externalKey string) (*syncdomain.KeyMapping, error) {
	args := m.Called(ctx, integrationID, externalKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncdomain.KeyMapping), args.Error(1)
}

func (m *mockKeyMappingRepository) FindByIntegration(ctx context.Context, integrationID uuid.UUID) ([]syncdomain.KeyMapping, error) {
	args := m.Called(ctx, integrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]syncdomain.KeyMapping), args.Error(1)
}

func (m *mockKeyMappingRepository) Save(ctx context.Context, mapping *syncdomain.KeyMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *mockKeyMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockBranchRepository struct {
	mock.Mock
}

func (m *mockBranchRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Branch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Branch), args.Error(1)
}

func (m *mockBranchRepository) FindByBrand(ctx context.Context, brandID uuid.UUID, filter shared.Filter) ([]catalog.Branch, error) {
	args := m.Called(ctx, brandID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Branch), args.Error(1)
}

func (m *mockBranchRepository) Save(ctx context.Context, branch *catalog.Branch) error {
	args := m.Called(ctx, branch)
	return args.Error(0)
}

type mockIdempotencyStore struct {
	mock.Mock
}

func (m *mockIdempotencyStore) CheckAndSet(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

// memInventoryRepo is a stateful in-memory inventory store keyed on
// (branch, product). Used where tests assert on quantities across multiple
// reconcile passes.
type memInventoryRepo struct {
	records map[string]*inventory.BranchInventoryRecord
	failKey string // Upserts for this product ID fail with failErr
	failErr error
}

func newMemInventoryRepo() *memInventoryRepo {
	return &memInventoryRepo{records: make(map[string]*inventory.BranchInventoryRecord)}
}

func invKey(branchID, productID uuid.UUID) string {
	return fmt.Sprintf("%s|%s", branchID, productID)
}

func (r *memInventoryRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.BranchInventoryRecord, error) {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memInventoryRepo) FindByBranchAndProduct(_ context.Context, branchID, productID uuid.UUID) (*inventory.BranchInventoryRecord, error) {
	rec, ok := r.records[invKey(branchID, productID)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return rec, nil
}

func (r *memInventoryRepo) ListByBranch(_ context.Context, branchID uuid.UUID, _ shared.Filter) ([]inventory.BranchInventoryRecord, int64, error) {
	var out []inventory.BranchInventoryRecord
	for _, rec := range r.records {
		if rec.BranchID == branchID {
			out = append(out, *rec)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memInventoryRepo) ListLowStock(_ context.Context, brandID uuid.UUID, _ shared.Filter) ([]inventory.BranchInventoryRecord, int64, error) {
	var out []inventory.BranchInventoryRecord
	for _, rec := range r.records {
		if rec.BrandID == brandID && rec.IsLowStock() {
			out = append(out, *rec)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memInventoryRepo) Save(_ context.Context, record *inventory.BranchInventoryRecord) error {
	r.records[invKey(record.BranchID, record.ProductID)] = record
	return nil
}

func (r *memInventoryRepo) Upsert(_ context.Context, record *inventory.BranchInventoryRecord) error {
	if r.failErr != nil && record.ProductID.String() == r.failKey {
		return r.failErr
	}
	r.records[invKey(record.BranchID, record.ProductID)] = record
	return nil
}

func (r *memInventoryRepo) quantity(branchID, productID uuid.UUID) int64 {
	rec, ok := r.records[invKey(branchID, productID)]
	if !ok {
		return -1
	}
	return rec.Quantity
}
