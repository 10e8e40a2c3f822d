package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"

	appsync "github.com/storefront/backend/internal/application/sync"
	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// SyncMetrics records sync engine measurements: run throughput, per-run item
// counts, and run duration, labeled by adapter type and terminal status.
type SyncMetrics struct {
	runsStarted   *Counter
	runsFinalized *Counter
	itemsUpdated  *Counter
	itemsFailed   *Counter
	runDuration   *Histogram
}

// NewSyncMetrics creates a new SyncMetrics instance on the given meter
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	sm := &SyncMetrics{}

	var err error
	sm.runsStarted, err = NewCounter(
		meter,
		"sync_runs_started_total",
		"Total number of sync runs started",
		"{runs}",
	)
	if err != nil {
		return nil, err
	}

	sm.runsFinalized, err = NewCounter(
		meter,
		"sync_runs_finalized_total",
		"Total number of sync runs finalized, labeled by terminal status",
		"{runs}",
	)
	if err != nil {
		return nil, err
	}

	sm.itemsUpdated, err = NewCounter(
		meter,
		"sync_items_updated_total",
		"Total number of inventory items updated by sync runs",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	sm.itemsFailed, err = NewCounter(
		meter,
		"sync_items_failed_total",
		"Total number of items that failed to reconcile",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	sm.runDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "sync_run_duration_seconds",
		Description: "Wall-clock duration of sync runs",
		Unit:        "s",
		Boundaries:  RunDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// RunStarted implements the engine's RunMetrics port
func (sm *SyncMetrics) RunStarted(ctx context.Context, adapterType syncdomain.AdapterType) {
	sm.runsStarted.Inc(ctx, AttrAdapterType.String(adapterType.String()))
}

// RunFinalized implements the engine's RunMetrics port
func (sm *SyncMetrics) RunFinalized(ctx context.Context, adapterType syncdomain.AdapterType, status syncdomain.RunStatus, itemsUpdated, itemsFailed int, duration time.Duration) {
	adapterAttr := AttrAdapterType.String(adapterType.String())
	statusAttr := AttrRunStatus.String(status.String())

	sm.runsFinalized.Inc(ctx, adapterAttr, statusAttr)
	if itemsUpdated > 0 {
		sm.itemsUpdated.Add(ctx, int64(itemsUpdated), adapterAttr)
	}
	if itemsFailed > 0 {
		sm.itemsFailed.Add(ctx, int64(itemsFailed), adapterAttr)
	}
	sm.runDuration.RecordDuration(ctx, duration, adapterAttr, statusAttr)
}

// Ensure SyncMetrics implements the application port
var _ appsync.RunMetrics = (*SyncMetrics)(nil)
