package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// OrchestratorConfig holds the execution budget for sync runs
type OrchestratorConfig struct {
	// RunTimeout is the wall-clock budget for one run
	RunTimeout time.Duration
	// AdapterRetryAttempts bounds in-run adapter retries on transient errors
	AdapterRetryAttempts int
	// AdapterRetryBaseDelay is the first backoff delay
	AdapterRetryBaseDelay time.Duration
	// AdapterRetryMaxDelay caps the exponential backoff
	AdapterRetryMaxDelay time.Duration
}

// DefaultOrchestratorConfig returns default execution budgets
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		RunTimeout:            5 * time.Minute,
		AdapterRetryAttempts:  3,
		AdapterRetryBaseDelay: 500 * time.Millisecond,
		AdapterRetryMaxDelay:  5 * time.Second,
	}
}

// Validate validates the configuration
func (c *OrchestratorConfig) Validate() error {
	if c.RunTimeout <= 0 {
		return errors.New("sync: run timeout must be positive")
	}
	if c.AdapterRetryAttempts < 1 {
		return errors.New("sync: adapter retry attempts must be at least 1")
	}
	if c.AdapterRetryBaseDelay <= 0 || c.AdapterRetryMaxDelay < c.AdapterRetryBaseDelay {
		return errors.New("sync: invalid adapter retry delays")
	}
	return nil
}

// Orchestrator owns run execution: scheduling input (due computation),
// the single-flight guarantee, adapter invocation with bounded retry, and
// run finalization. It is the sole writer of the sync ledger.
type Orchestrator struct {
	config          OrchestratorConfig
	integrationRepo syncdomain.IntegrationRepository
	runRepo         syncdomain.SyncRunRepository
	registry        syncdomain.AdapterRegistry
	reconciler      *Reconciler
	metrics         RunMetrics
	logger          *zap.Logger
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	config OrchestratorConfig,
	integrationRepo syncdomain.IntegrationRepository,
	runRepo syncdomain.SyncRunRepository,
	registry syncdomain.AdapterRegistry,
	reconciler *Reconciler,
	metrics RunMetrics,
	logger *zap.Logger,
) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NopRunMetrics{}
	}
	return &Orchestrator{
		config:          config,
		integrationRepo: integrationRepo,
		runRepo:         runRepo,
		registry:        registry,
		reconciler:      reconciler,
		metrics:         metrics,
		logger:          logger,
	}, nil
}

// DueIntegrations returns active integrations whose next sync time has
// arrived
func (o *Orchestrator) DueIntegrations(ctx context.Context, now time.Time) ([]syncdomain.Integration, error) {
	return o.integrationRepo.FindDue(ctx, now)
}

// TriggerSync starts a run for an integration if none is in flight. The
// acknowledgement is synchronous; execution proceeds on the calling
// goroutine via ExecuteRun, which the scheduler and the HTTP trigger both
// dispatch onto workers.
func (o *Orchestrator) TriggerSync(ctx context.Context, integrationID uuid.UUID) (*TriggerResult, *RunContext, error) {
	integ, err := o.integrationRepo.FindByID(ctx, integrationID)
	if err != nil {
		return nil, nil, err
	}
	if integ.Status != syncdomain.IntegrationStatusActive {
		return &TriggerResult{Accepted: false, Reason: TriggerReasonNotActive}, nil, nil
	}

	run := syncdomain.NewSyncRun(integ.BrandID, integ.ID)

	// Persisted single-flight: the claim survives process restarts, and a
	// stale claim (crashed worker) is reclaimable after twice the run
	// timeout.
	if err := o.integrationRepo.ClaimRun(ctx, integ.ID, run.ID, 2*o.config.RunTimeout); err != nil {
		if errors.Is(err, syncdomain.ErrAlreadyRunning) {
			return &TriggerResult{Accepted: false, Reason: TriggerReasonAlreadyRunning}, nil, nil
		}
		return nil, nil, err
	}

	if err := o.runRepo.Save(ctx, run); err != nil {
		// Undo the claim so the integration is not wedged
		_ = o.integrationRepo.ReleaseRun(ctx, integ.ID, run.ID)
		return nil, nil, err
	}

	return &TriggerResult{Accepted: true, RunID: &run.ID}, &RunContext{Integration: integ, Run: run}, nil
}

// RunContext carries a claimed run to its executor
type RunContext struct {
	Integration *syncdomain.Integration
	Run         *syncdomain.SyncRun
}

// ExecuteRun drives a claimed run to a terminal state. Every failure path
// writes a terminal ledger entry; no error is silently dropped.
func (o *Orchestrator) ExecuteRun(ctx context.Context, rc *RunContext) {
	integ := rc.Integration
	run := rc.Run

	runCtx, cancel := context.WithTimeout(ctx, o.config.RunTimeout)
	defer cancel()

	if err := run.Start(); err != nil {
		o.logger.Error("Sync run could not start",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
		return
	}
	_ = o.runRepo.Save(runCtx, run)
	o.metrics.RunStarted(runCtx, integ.AdapterType)

	o.logger.Info("Sync run started",
		zap.String("run_id", run.ID.String()),
		zap.String("integration_id", integ.ID.String()),
		zap.String("adapter_type", integ.AdapterType.String()),
	)

	fatal := o.execute(runCtx, integ, run)
	o.finalize(ctx, integ, run, fatal)
}

// execute performs fetch + reconcile and seals the run. It returns true
// when the integration must flip to error status.
func (o *Orchestrator) execute(ctx context.Context, integ *syncdomain.Integration, run *syncdomain.SyncRun) bool {
	adapter, err := o.registry.Get(integ.AdapterType)
	if err != nil {
		_ = run.FinalizeFailed(syncdomain.ErrorClassConfig, err.Error())
		return true
	}

	items, err := o.fetchWithRetry(ctx, adapter, integ.Config)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) || syncdomain.ClassOf(err) == syncdomain.ErrorClassTimeout:
			_ = run.FinalizeFailed(syncdomain.ErrorClassTimeout, "run exceeded wall-clock timeout")
			return false
		case syncdomain.IsFatal(err):
			_ = run.FinalizeFailed(syncdomain.ErrorClassAuth, err.Error())
			return true
		default:
			_ = run.FinalizeFailed(syncdomain.ErrorClassConnectivity, err.Error())
			return false
		}
	}

	if len(items) == 0 && integ.ExpectItems {
		_ = run.FinalizeFailed(syncdomain.ErrorClassConnectivity, "adapter returned an empty snapshot")
		return false
	}

	if err := o.reconciler.Reconcile(ctx, integ, items, run); err != nil {
		switch syncdomain.ClassOf(err) {
		case syncdomain.ErrorClassTimeout:
			_ = run.FinalizeFailed(syncdomain.ErrorClassTimeout, "run exceeded wall-clock timeout")
		default:
			_ = run.FinalizeFailed(syncdomain.ErrorClassStorageUnavailable, "inventory store unavailable")
		}
		return false
	}

	_ = run.Finalize()
	return false
}

// finalize writes the terminal ledger entry and updates the integration
// bookkeeping. Uses the parent context so a run timeout does not lose the
// ledger write.
func (o *Orchestrator) finalize(ctx context.Context, integ *syncdomain.Integration, run *syncdomain.SyncRun, fatal bool) {
	if err := o.runRepo.Save(ctx, run); err != nil {
		o.logger.Error("Failed to write sync ledger entry",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
	}

	finishedAt := time.Now()
	if run.FinishedAt != nil {
		finishedAt = *run.FinishedAt
	}
	integ.RecordSyncOutcome(finishedAt, run.Status)
	if fatal && integ.Status == syncdomain.IntegrationStatusActive {
		_ = integ.TransitionTo(syncdomain.IntegrationStatusError)
	}

	if err := o.integrationRepo.Save(ctx, integ); err != nil {
		o.logger.Error("Failed to update integration after run",
			zap.String("integration_id", integ.ID.String()),
			zap.Error(err),
		)
	}
	if err := o.integrationRepo.ReleaseRun(ctx, integ.ID, run.ID); err != nil {
		o.logger.Error("Failed to release run claim",
			zap.String("integration_id", integ.ID.String()),
			zap.Error(err),
		)
	}

	o.metrics.RunFinalized(ctx, integ.AdapterType, run.Status, run.ItemsUpdated, run.ItemsFailed, run.Duration())

	o.logger.Info("Sync run finalized",
		zap.String("run_id", run.ID.String()),
		zap.String("integration_id", integ.ID.String()),
		zap.String("status", run.Status.String()),
		zap.Int("items_updated", run.ItemsUpdated),
		zap.Int("items_failed", run.ItemsFailed),
		zap.Duration("duration", run.Duration()),
	)
}

// fetchWithRetry invokes the adapter with bounded exponential backoff.
// Only transient errors are retried; fatal and timeout errors surface
// immediately.
func (o *Orchestrator) fetchWithRetry(ctx context.Context, adapter syncdomain.StockAdapter, config []byte) ([]syncdomain.CanonicalStockItem, error) {
	var lastErr error
	delay := o.config.AdapterRetryBaseDelay

	for attempt := 1; attempt <= o.config.AdapterRetryAttempts; attempt++ {
		items, err := adapter.Fetch(ctx, config)
		if err == nil {
			return items, nil
		}
		lastErr = err

		if !syncdomain.IsTransient(err) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if attempt == o.config.AdapterRetryAttempts {
			break
		}

		o.logger.Debug("Adapter fetch failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > o.config.AdapterRetryMaxDelay {
			delay = o.config.AdapterRetryMaxDelay
		}
	}

	return nil, lastErr
}
