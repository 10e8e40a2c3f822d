package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// DefaultIdempotencyTTL is how long a webhook delivery ID is remembered for
// duplicate suppression.
const DefaultIdempotencyTTL = 24 * time.Hour

// WebhookService handles push-style ingestion: an external system delivers
// a stock payload, and the service authenticates it, suppresses duplicates,
// and drives the same reconcile-and-ledger pipeline as pull syncs.
type WebhookService struct {
	integrationRepo syncdomain.IntegrationRepository
	runRepo         syncdomain.SyncRunRepository
	registry        syncdomain.AdapterRegistry
	reconciler      *Reconciler
	idempotency     IdempotencyStore
	metrics         RunMetrics
	logger          *zap.Logger
	idempotencyTTL  time.Duration
	claimStaleAfter time.Duration
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(
	integrationRepo syncdomain.IntegrationRepository,
	runRepo syncdomain.SyncRunRepository,
	registry syncdomain.AdapterRegistry,
	reconciler *Reconciler,
	idempotency IdempotencyStore,
	metrics RunMetrics,
	logger *zap.Logger,
) *WebhookService {
	if metrics == nil {
		metrics = NopRunMetrics{}
	}
	return &WebhookService{
		integrationRepo: integrationRepo,
		runRepo:         runRepo,
		registry:        registry,
		reconciler:      reconciler,
		idempotency:     idempotency,
		metrics:         metrics,
		logger:          logger,
		idempotencyTTL:  DefaultIdempotencyTTL,
		claimStaleAfter: 10 * time.Minute,
	}
}

// Ingest processes one inbound webhook delivery synchronously. The caller's
// token is verified against the integration's adapter config before the
// payload is parsed. Replayed deliveries are acknowledged without
// reprocessing.
func (s *WebhookService) Ingest(ctx context.Context, integrationID uuid.UUID, token string, payload []byte) (*IngestResult, error) {
	integ, err := s.integrationRepo.FindByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	if integ.Status != syncdomain.IntegrationStatusActive {
		return nil, syncdomain.ErrIntegrationNotActive
	}
	if !integ.IsPush() {
		return nil, syncdomain.ErrPushNotSupported
	}

	adapter, err := s.registry.GetPush(integ.AdapterType)
	if err != nil {
		return nil, err
	}

	// Auth before parsing: a bad token never gets its payload inspected
	if err := adapter.Authenticate(token, integ.Config); err != nil {
		s.logger.Warn("Webhook delivery rejected",
			zap.String("integration_id", integ.ID.String()),
			zap.Error(err),
		)
		return nil, syncdomain.ErrWebhookTokenMismatch
	}

	items, deliveryID, err := adapter.Ingest(payload, integ.Config)
	if err != nil {
		return nil, err
	}

	if deliveryID != "" {
		key := fmt.Sprintf("webhook:%s:%s", integ.ID, deliveryID)
		fresh, err := s.idempotency.CheckAndSet(ctx, key, s.idempotencyTTL)
		if err != nil {
			// Degrade open: a broken idempotency store must not drop stock
			// updates. Replays are rare; stale stock is worse.
			s.logger.Warn("Idempotency check failed, processing anyway",
				zap.String("integration_id", integ.ID.String()),
				zap.Error(err),
			)
		} else if !fresh {
			s.logger.Info("Duplicate webhook delivery suppressed",
				zap.String("integration_id", integ.ID.String()),
				zap.String("delivery_id", deliveryID),
			)
			return &IngestResult{Duplicate: true}, nil
		}
	}

	return s.process(ctx, integ, items)
}

// process runs the reconcile pipeline for an authenticated, deduplicated
// delivery under the integration's single-flight claim.
func (s *WebhookService) process(ctx context.Context, integ *syncdomain.Integration, items []syncdomain.CanonicalStockItem) (*IngestResult, error) {
	run := syncdomain.NewSyncRun(integ.BrandID, integ.ID)

	if err := s.integrationRepo.ClaimRun(ctx, integ.ID, run.ID, s.claimStaleAfter); err != nil {
		if errors.Is(err, syncdomain.ErrAlreadyRunning) {
			return nil, err
		}
		return nil, err
	}
	defer func() {
		if err := s.integrationRepo.ReleaseRun(ctx, integ.ID, run.ID); err != nil {
			s.logger.Error("Failed to release run claim",
				zap.String("integration_id", integ.ID.String()),
				zap.Error(err),
			)
		}
	}()

	if err := run.Start(); err != nil {
		return nil, err
	}
	if err := s.runRepo.Save(ctx, run); err != nil {
		return nil, err
	}
	s.metrics.RunStarted(ctx, integ.AdapterType)

	if err := s.reconciler.Reconcile(ctx, integ, items, run); err != nil {
		_ = run.FinalizeFailed(syncdomain.ClassOf(err), "reconciliation aborted")
	} else {
		_ = run.Finalize()
	}

	if err := s.runRepo.Save(ctx, run); err != nil {
		s.logger.Error("Failed to write sync ledger entry",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
	}

	finishedAt := time.Now()
	if run.FinishedAt != nil {
		finishedAt = *run.FinishedAt
	}
	integ.RecordSyncOutcome(finishedAt, run.Status)
	if err := s.integrationRepo.Save(ctx, integ); err != nil {
		s.logger.Error("Failed to update integration after delivery",
			zap.String("integration_id", integ.ID.String()),
			zap.Error(err),
		)
	}

	s.metrics.RunFinalized(ctx, integ.AdapterType, run.Status, run.ItemsUpdated, run.ItemsFailed, run.Duration())

	s.logger.Info("Webhook delivery processed",
		zap.String("integration_id", integ.ID.String()),
		zap.String("run_id", run.ID.String()),
		zap.String("status", run.Status.String()),
		zap.Int("items_accepted", run.ItemsUpdated),
		zap.Int("items_rejected", run.ItemsFailed),
	)

	return &IngestResult{
		ItemsAccepted: run.ItemsUpdated,
		ItemsRejected: run.ItemsFailed,
		RunID:         &run.ID,
	}, nil
}
