package handler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// Mock repositories in the map-backed style used across the service tests

type mockIntegrationRepo struct {
	mu           sync.Mutex
	integrations map[uuid.UUID]*syncdomain.Integration
}

func newMockIntegrationRepo() *mockIntegrationRepo {
	return &mockIntegrationRepo{integrations: make(map[uuid.UUID]*syncdomain.Integration)}
}

func (m *mockIntegrationRepo) FindByID(_ context.Context, id uuid.UUID) (*syncdomain.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if integ, ok := m.integrations[id]; ok {
		copied := *integ
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockIntegrationRepo) FindByBranch(_ context.Context, branchID uuid.UUID) ([]syncdomain.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []syncdomain.Integration
	for _, integ := range m.integrations {
		if integ.BranchID == branchID {
			result = append(result, *integ)
		}
	}
	return result, nil
}

func (m *mockIntegrationRepo) FindActiveByBranch(_ context.Context, branchID uuid.UUID) (*syncdomain.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, integ := range m.integrations {
		if integ.BranchID == branchID && integ.Status == syncdomain.IntegrationStatusActive {
			copied := *integ
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockIntegrationRepo) FindDue(_ context.Context, now time.Time) ([]syncdomain.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []syncdomain.Integration
	for _, integ := range m.integrations {
		if integ.IsDue(now) {
			due = append(due, *integ)
		}
	}
	return due, nil
}

func (m *mockIntegrationRepo) Save(_ context.Context, integ *syncdomain.Integration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *integ
	m.integrations[integ.ID] = &copied
	return nil
}

func (m *mockIntegrationRepo) ClaimRun(_ context.Context, integrationID, runID uuid.UUID, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	integ, ok := m.integrations[integrationID]
	if !ok {
		return shared.ErrNotFound
	}
	if integ.CurrentRunID != nil {
		return syncdomain.ErrAlreadyRunning
	}
	integ.CurrentRunID = &runID
	return nil
}

func (m *mockIntegrationRepo) ReleaseRun(_ context.Context, integrationID, runID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	integ, ok := m.integrations[integrationID]
	if !ok {
		return shared.ErrNotFound
	}
	if integ.CurrentRunID != nil && *integ.CurrentRunID == runID {
		integ.CurrentRunID = nil
	}
	return nil
}

type mockRunRepo struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*syncdomain.SyncRun
}

func newMockRunRepo() *mockRunRepo {
	return &mockRunRepo{runs: make(map[uuid.UUID]*syncdomain.SyncRun)}
}

func (m *mockRunRepo) FindByID(_ context.Context, id uuid.UUID) (*syncdomain.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.runs[id]; ok {
		copied := *run
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockRunRepo) ListByIntegration(_ context.Context, integrationID uuid.UUID, _ shared.Filter) ([]syncdomain.SyncRun, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []syncdomain.SyncRun
	for _, run := range m.runs {
		if run.IntegrationID == integrationID {
			result = append(result, *run)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockRunRepo) Save(_ context.Context, run *syncdomain.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *run
	m.runs[run.ID] = &copied
	return nil
}

func (m *mockRunRepo) Prune(_ context.Context, _ int, _ time.Duration) (int64, error) {
	return 0, nil
}

type mockBranchRepo struct {
	branches map[uuid.UUID]*catalog.Branch
}

func newMockBranchRepo() *mockBranchRepo {
	return &mockBranchRepo{branches: make(map[uuid.UUID]*catalog.Branch)}
}

func (m *mockBranchRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Branch, error) {
	if branch, ok := m.branches[id]; ok {
		return branch, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockBranchRepo) FindByBrand(_ context.Context, brandID uuid.UUID, _ shared.Filter) ([]catalog.Branch, error) {
	var result []catalog.Branch
	for _, branch := range m.branches {
		if branch.BrandID == brandID {
			result = append(result, *branch)
		}
	}
	return result, nil
}

func (m *mockBranchRepo) Save(_ context.Context, branch *catalog.Branch) error {
	m.branches[branch.ID] = branch
	return nil
}

type branchProduct struct {
	branchID  uuid.UUID
	productID uuid.UUID
}

type mockProductRepo struct {
	products    map[uuid.UUID]*catalog.Product
	assignments map[branchProduct]bool
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{
		products:    make(map[uuid.UUID]*catalog.Product),
		assignments: make(map[branchProduct]bool),
	}
}

func (m *mockProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	if product, ok := m.products[id]; ok {
		return product, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockProductRepo) FindByBrandAndCode(_ context.Context, brandID uuid.UUID, code string) (*catalog.Product, error) {
	for _, product := range m.products {
		if product.BrandID == brandID && product.Code == code {
			return product, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockProductRepo) Save(_ context.Context, product *catalog.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepo) IsAssignedToBranch(_ context.Context, branchID, productID uuid.UUID) (bool, error) {
	return m.assignments[branchProduct{branchID, productID}], nil
}

func (m *mockProductRepo) AssignToBranch(_ context.Context, assignment *catalog.BranchAssignment) error {
	m.assignments[branchProduct{assignment.BranchID, assignment.ProductID}] = true
	return nil
}

type mockInventoryRepo struct {
	mu      sync.Mutex
	records map[branchProduct]*inventory.BranchInventoryRecord
}

func newMockInventoryRepo() *mockInventoryRepo {
	return &mockInventoryRepo{records: make(map[branchProduct]*inventory.BranchInventoryRecord)}
}

func (m *mockInventoryRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.BranchInventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.ID == id {
			copied := *record
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockInventoryRepo) FindByBranchAndProduct(_ context.Context, branchID, productID uuid.UUID) (*inventory.BranchInventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record, ok := m.records[branchProduct{branchID, productID}]; ok {
		copied := *record
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockInventoryRepo) ListByBranch(_ context.Context, branchID uuid.UUID, _ shared.Filter) ([]inventory.BranchInventoryRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []inventory.BranchInventoryRecord
	for _, record := range m.records {
		if record.BranchID == branchID {
			result = append(result, *record)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockInventoryRepo) ListLowStock(_ context.Context, brandID uuid.UUID, _ shared.Filter) ([]inventory.BranchInventoryRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []inventory.BranchInventoryRecord
	for _, record := range m.records {
		if record.BrandID == brandID && record.IsLowStock() {
			result = append(result, *record)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockInventoryRepo) Save(_ context.Context, record *inventory.BranchInventoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *record
	m.records[branchProduct{record.BranchID, record.ProductID}] = &copied
	return nil
}

func (m *mockInventoryRepo) Upsert(ctx context.Context, record *inventory.BranchInventoryRecord) error {
	return m.Save(ctx, record)
}

type mockMappingRepo struct{}

func (m *mockMappingRepo) FindByIntegrationAndKey(_ context.Context, _ uuid.UUID, _ string) (*syncdomain.KeyMapping, error) {
	return nil, shared.ErrNotFound
}

func (m *mockMappingRepo) FindByIntegration(_ context.Context, _ uuid.UUID) ([]syncdomain.KeyMapping, error) {
	return nil, nil
}

func (m *mockMappingRepo) Save(_ context.Context, _ *syncdomain.KeyMapping) error { return nil }
func (m *mockMappingRepo) Delete(_ context.Context, _ uuid.UUID) error            { return nil }

// Stub adapters and registry

type stubPushAdapter struct {
	adapterType syncdomain.AdapterType
	token       string
	items       []syncdomain.CanonicalStockItem
	deliveryID  string
}

func (a *stubPushAdapter) Type() syncdomain.AdapterType { return a.adapterType }
func (a *stubPushAdapter) ValidateConfig(_ []byte) error {
	return nil
}

func (a *stubPushAdapter) Fetch(_ context.Context, _ []byte) ([]syncdomain.CanonicalStockItem, error) {
	return a.items, nil
}

func (a *stubPushAdapter) Authenticate(token string, _ []byte) error {
	if token != a.token {
		return errors.New("token mismatch")
	}
	return nil
}

func (a *stubPushAdapter) Ingest(_ []byte, _ []byte) ([]syncdomain.CanonicalStockItem, string, error) {
	return a.items, a.deliveryID, nil
}

type rejectConfigAdapter struct {
	adapterType syncdomain.AdapterType
}

func (a *rejectConfigAdapter) Type() syncdomain.AdapterType { return a.adapterType }
func (a *rejectConfigAdapter) ValidateConfig(raw []byte) error {
	var cfg struct {
		BaseURL string `json:"base_url"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return err
	}
	if cfg.BaseURL == "" {
		return errors.New("base_url is required")
	}
	return nil
}

func (a *rejectConfigAdapter) Fetch(_ context.Context, _ []byte) ([]syncdomain.CanonicalStockItem, error) {
	return nil, nil
}

type stubRegistry struct {
	adapters map[syncdomain.AdapterType]syncdomain.StockAdapter
}

func newStubRegistry(adapters ...syncdomain.StockAdapter) *stubRegistry {
	r := &stubRegistry{adapters: make(map[syncdomain.AdapterType]syncdomain.StockAdapter)}
	for _, a := range adapters {
		r.adapters[a.Type()] = a
	}
	return r
}

func (r *stubRegistry) Get(adapterType syncdomain.AdapterType) (syncdomain.StockAdapter, error) {
	if a, ok := r.adapters[adapterType]; ok {
		return a, nil
	}
	return nil, syncdomain.ErrAdapterNotRegistered
}

func (r *stubRegistry) GetPush(adapterType syncdomain.AdapterType) (syncdomain.PushAdapter, error) {
	a, err := r.Get(adapterType)
	if err != nil {
		return nil, err
	}
	push, ok := a.(syncdomain.PushAdapter)
	if !ok {
		return nil, syncdomain.ErrPushNotSupported
	}
	return push, nil
}

func (r *stubRegistry) Types() []syncdomain.AdapterType {
	types := make([]syncdomain.AdapterType, 0, len(r.adapters))
	for t := range r.adapters {
		types = append(types, t)
	}
	return types
}

type stubIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{seen: make(map[string]bool)}
}

func (s *stubIdempotencyStore) CheckAndSet(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}
