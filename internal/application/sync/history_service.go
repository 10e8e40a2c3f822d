package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// HistoryService reads the sync ledger and prunes old entries. It never
// mutates runs; the orchestrator and webhook service are the only writers.
type HistoryService struct {
	runRepo syncdomain.SyncRunRepository
	logger  *zap.Logger
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(runRepo syncdomain.SyncRunRepository, logger *zap.Logger) *HistoryService {
	return &HistoryService{runRepo: runRepo, logger: logger}
}

// GetRun returns one ledger entry
func (s *HistoryService) GetRun(ctx context.Context, id uuid.UUID) (*RunResponse, error) {
	run, err := s.runRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToRunResponse(run)
	return &resp, nil
}

// ListRuns lists ledger entries for an integration, newest first
func (s *HistoryService) ListRuns(ctx context.Context, integrationID uuid.UUID, filter shared.Filter) (*shared.Paginated[RunResponse], error) {
	filter.Normalize()
	runs, total, err := s.runRepo.ListByIntegration(ctx, integrationID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToRunResponses(runs), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Prune drops ledger entries beyond the retention policy and returns the
// number removed
func (s *HistoryService) Prune(ctx context.Context, keepPerIntegration int, maxAge time.Duration) (int64, error) {
	removed, err := s.runRepo.Prune(ctx, keepPerIntegration, maxAge)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("Pruned sync ledger",
			zap.Int64("removed", removed),
			zap.Int("keep_per_integration", keepPerIntegration),
			zap.Duration("max_age", maxAge),
		)
	}
	return removed, nil
}
