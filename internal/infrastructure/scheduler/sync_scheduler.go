// Package scheduler drives periodic inventory synchronization: a tick loop
// collects due integrations and a worker pool executes their runs. Manual
// triggers through the HTTP API share the same worker pool.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/storefront/backend/internal/application/sync"
	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// RunDispatcher is the slice of the orchestrator the scheduler needs
type RunDispatcher interface {
	DueIntegrations(ctx context.Context, now time.Time) ([]syncdomain.Integration, error)
	TriggerSync(ctx context.Context, integrationID uuid.UUID) (*appsync.TriggerResult, *appsync.RunContext, error)
	ExecuteRun(ctx context.Context, rc *appsync.RunContext)
}

// LedgerPruner removes old sync runs from the ledger
type LedgerPruner interface {
	Prune(ctx context.Context, keepPerIntegration int, maxAge time.Duration) (int64, error)
}

// Config holds scheduler configuration
type Config struct {
	// TickInterval is how often due integrations are collected
	TickInterval time.Duration
	// WorkerCount is the number of concurrent run executors
	WorkerCount int
	// QueueSize bounds the pending job queue
	QueueSize int
	// StopTimeout bounds how long Stop waits for in-flight runs
	StopTimeout time.Duration
	// LedgerKeepPerIntegration is how many runs to retain per integration
	LedgerKeepPerIntegration int
	// LedgerMaxAge is how long to retain runs regardless of count
	LedgerMaxAge time.Duration
	// LedgerPruneInterval is how often the ledger is pruned.
	// Zero disables pruning.
	LedgerPruneInterval time.Duration
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		TickInterval:             30 * time.Second,
		WorkerCount:              4,
		QueueSize:                100,
		StopTimeout:              30 * time.Second,
		LedgerKeepPerIntegration: 200,
		LedgerMaxAge:             90 * 24 * time.Hour,
		LedgerPruneInterval:      time.Hour,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.TickInterval < time.Second {
		return fmt.Errorf("%w: tick interval must be at least 1s", ErrInvalidConfig)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker count must be at least 1", ErrInvalidConfig)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue size must be at least 1", ErrInvalidConfig)
	}
	if c.StopTimeout <= 0 {
		return fmt.Errorf("%w: stop timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// SyncScheduler periodically collects due integrations and dispatches their
// runs onto a bounded worker pool
type SyncScheduler struct {
	config     Config
	dispatcher RunDispatcher
	pruner     LedgerPruner
	logger     *zap.Logger

	jobs    chan uuid.UUID
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewSyncScheduler creates a new SyncScheduler
func NewSyncScheduler(
	config Config,
	dispatcher RunDispatcher,
	pruner LedgerPruner,
	logger *zap.Logger,
) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("%w: run dispatcher is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SyncScheduler{
		config:     config,
		dispatcher: dispatcher,
		pruner:     pruner,
		logger:     logger.Named("scheduler"),
		jobs:       make(chan uuid.UUID, config.QueueSize),
	}, nil
}

// Start launches the workers, the tick loop, and the prune loop
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(runCtx, i)
	}

	s.wg.Add(1)
	go s.tickLoop(runCtx)

	if s.pruner != nil && s.config.LedgerPruneInterval > 0 {
		s.wg.Add(1)
		go s.pruneLoop(runCtx)
	}

	s.logger.Info("Sync scheduler started",
		zap.Duration("tick_interval", s.config.TickInterval),
		zap.Int("worker_count", s.config.WorkerCount),
		zap.Int("queue_size", s.config.QueueSize),
	)
	return nil
}

// Stop signals all loops to finish and waits for in-flight runs up to
// StopTimeout
func (s *SyncScheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped")
		return nil
	case <-time.After(s.config.StopTimeout):
		s.logger.Warn("Sync scheduler stop timed out with runs in flight",
			zap.Duration("timeout", s.config.StopTimeout))
		return fmt.Errorf("scheduler stop timed out after %v", s.config.StopTimeout)
	}
}

// Submit queues an integration for execution. It never blocks: when the
// queue is full the integration will be picked up again on the next tick.
func (s *SyncScheduler) Submit(integrationID uuid.UUID) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return ErrSchedulerNotRunning
	}

	select {
	case s.jobs <- integrationID:
		return nil
	default:
		return ErrJobQueueFull
	}
}

// QueueDepth returns the number of queued jobs, for health reporting
func (s *SyncScheduler) QueueDepth() int {
	return len(s.jobs)
}

func (s *SyncScheduler) tickLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	// Collect immediately on start so a restart does not delay overdue
	// integrations by a full tick
	s.collectDue(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.collectDue(ctx)
		}
	}
}

func (s *SyncScheduler) collectDue(ctx context.Context) {
	due, err := s.dispatcher.DueIntegrations(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("Failed to collect due integrations", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}

	queued := 0
	for i := range due {
		if err := s.Submit(due[i].ID); err != nil {
			// Queue full: remaining integrations stay due and the next
			// tick retries them
			s.logger.Warn("Job queue full, deferring due integrations",
				zap.Int("deferred", len(due)-queued))
			break
		}
		queued++
	}

	s.logger.Debug("Collected due integrations",
		zap.Int("due", len(due)),
		zap.Int("queued", queued),
	)
}

func (s *SyncScheduler) worker(ctx context.Context, id int) {
	defer s.wg.Done()

	logger := s.logger.With(zap.Int("worker_id", id))
	for {
		select {
		case <-ctx.Done():
			return
		case integrationID := <-s.jobs:
			s.runOne(ctx, logger, integrationID)
		}
	}
}

// runOne claims and executes a single run. A rejected trigger is normal
// operation: another worker or a manual trigger already holds the claim,
// or the integration was disabled between tick and dispatch.
func (s *SyncScheduler) runOne(ctx context.Context, logger *zap.Logger, integrationID uuid.UUID) {
	result, rc, err := s.dispatcher.TriggerSync(ctx, integrationID)
	if err != nil {
		logger.Error("Failed to trigger sync",
			zap.String("integration_id", integrationID.String()),
			zap.Error(err),
		)
		return
	}
	if !result.Accepted {
		logger.Debug("Sync trigger not accepted",
			zap.String("integration_id", integrationID.String()),
			zap.String("reason", result.Reason),
		)
		return
	}

	s.dispatcher.ExecuteRun(ctx, rc)
}

func (s *SyncScheduler) pruneLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.LedgerPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.pruner.Prune(ctx, s.config.LedgerKeepPerIntegration, s.config.LedgerMaxAge)
			if err != nil {
				s.logger.Error("Failed to prune sync ledger", zap.Error(err))
				continue
			}
			if removed > 0 {
				s.logger.Info("Pruned sync ledger", zap.Int64("removed", removed))
			}
		}
	}
}
