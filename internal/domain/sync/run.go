package sync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// MaxRecordedFailures bounds the per-run failure list. When more items fail,
// the oldest entries are truncated and TruncatedFailures counts the overflow.
const MaxRecordedFailures = 50

// ---------------------------------------------------------------------------
// Run Status
// ---------------------------------------------------------------------------

// RunStatus represents the status of a sync run
type RunStatus string

const (
	// RunStatusPending indicates the run is created but not yet executing
	RunStatusPending RunStatus = "pending"
	// RunStatusRunning indicates the run is executing
	RunStatusRunning RunStatus = "running"
	// RunStatusSuccess indicates every item reconciled cleanly
	RunStatusSuccess RunStatus = "success"
	// RunStatusPartial indicates at least one item succeeded and one failed
	RunStatusPartial RunStatus = "partial"
	// RunStatusFailed indicates no item succeeded, or the adapter call failed
	RunStatusFailed RunStatus = "failed"
)

// IsValid returns true if the status is valid
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusPending, RunStatusRunning, RunStatusSuccess, RunStatusPartial, RunStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of RunStatus
func (s RunStatus) String() string {
	return string(s)
}

// IsTerminal returns true for finalized statuses
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSuccess, RunStatusPartial, RunStatusFailed:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Item Failure
// ---------------------------------------------------------------------------

// ItemFailure records why one item in a run could not be reconciled
type ItemFailure struct {
	// ExternalKey is the external product key of the failed item. Empty for
	// run-wide synthetic entries (timeout, empty snapshot).
	ExternalKey string `json:"external_key"`
	// Class is the error class of the failure
	Class ErrorClass `json:"class"`
	// Reason is the human-readable failure description
	Reason string `json:"reason"`
}

// ---------------------------------------------------------------------------
// SyncRun Aggregate
// ---------------------------------------------------------------------------

// SyncRun is one execution of the engine for one integration. It is created
// pending, moves through running, and is finalized exactly once into a
// terminal status. Finalized runs are immutable ledger entries.
type SyncRun struct {
	shared.BrandAggregateRoot
	IntegrationID uuid.UUID `gorm:"type:uuid;not null;index"`
	StartedAt     time.Time `gorm:"not null"`
	FinishedAt    *time.Time
	Status        RunStatus `gorm:"size:32;not null;default:'pending';index"`
	ItemsUpdated  int       `gorm:"not null;default:0"`
	ItemsFailed   int       `gorm:"not null;default:0"`
	// Failures holds up to MaxRecordedFailures entries, oldest truncated
	Failures FailureList `gorm:"type:jsonb;serializer:json"`
	// TruncatedFailures counts failure entries dropped by the bound
	TruncatedFailures int `gorm:"not null;default:0"`
}

// FailureList is the ordered per-item failure list persisted with a run
type FailureList []ItemFailure

// TableName returns the table name for GORM
func (SyncRun) TableName() string {
	return "sync_runs"
}

// NewSyncRun creates a pending run for an integration
func NewSyncRun(brandID, integrationID uuid.UUID) *SyncRun {
	return &SyncRun{
		BrandAggregateRoot: shared.NewBrandAggregateRoot(brandID),
		IntegrationID:      integrationID,
		StartedAt:          time.Now(),
		Status:             RunStatusPending,
		Failures:           make(FailureList, 0),
	}
}

// Start marks the run as running
func (r *SyncRun) Start() error {
	if r.Status != RunStatusPending {
		return ErrInvalidStatusTransition
	}
	r.Status = RunStatusRunning
	r.StartedAt = time.Now()
	r.Touch()
	return nil
}

// RecordSuccess counts one successfully reconciled item
func (r *SyncRun) RecordSuccess() {
	r.ItemsUpdated++
}

// RecordFailure counts one failed item and appends its reason, truncating
// the oldest entry when the bound is exceeded
func (r *SyncRun) RecordFailure(externalKey string, class ErrorClass, reason string) {
	r.ItemsFailed++
	r.Failures = append(r.Failures, ItemFailure{
		ExternalKey: externalKey,
		Class:       class,
		Reason:      reason,
	})
	if len(r.Failures) > MaxRecordedFailures {
		overflow := len(r.Failures) - MaxRecordedFailures
		r.Failures = r.Failures[overflow:]
		r.TruncatedFailures += overflow
	}
}

// Finalize classifies and seals the run: success when nothing failed,
// partial when some items succeeded, failed when none did. A run can only be
// finalized once.
func (r *SyncRun) Finalize() error {
	if r.Status.IsTerminal() {
		return ErrRunAlreadyFinalized
	}

	switch {
	case r.ItemsFailed == 0 && r.ItemsUpdated > 0:
		r.Status = RunStatusSuccess
	case r.ItemsFailed == 0 && r.ItemsUpdated == 0:
		// Nothing processed and nothing failed: an empty-but-expected
		// snapshot is recorded by the caller as a failure entry before
		// finalizing, so reaching here means a legitimately empty sync.
		r.Status = RunStatusSuccess
	case r.ItemsUpdated > 0:
		r.Status = RunStatusPartial
	default:
		r.Status = RunStatusFailed
	}

	now := time.Now()
	r.FinishedAt = &now
	r.Touch()
	return nil
}

// FinalizeFailed seals the run as failed with a run-wide failure entry
// (adapter error, timeout, storage outage)
func (r *SyncRun) FinalizeFailed(class ErrorClass, reason string) error {
	if r.Status.IsTerminal() {
		return ErrRunAlreadyFinalized
	}
	r.RecordFailure("", class, reason)
	r.Status = RunStatusFailed
	now := time.Now()
	r.FinishedAt = &now
	r.Touch()
	return nil
}

// Duration returns the run duration, or zero while the run is in flight
func (r *SyncRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ---------------------------------------------------------------------------
// Ledger Port
// ---------------------------------------------------------------------------

// SyncRunRepository is the append-only ledger of runs. The orchestrator is
// the sole writer; everything else reads.
type SyncRunRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SyncRun, error)
	// ListByIntegration lists runs for an integration, newest first
	ListByIntegration(ctx context.Context, integrationID uuid.UUID, filter shared.Filter) ([]SyncRun, int64, error)
	// Save persists the run (created pending, updated once on finalize)
	Save(ctx context.Context, run *SyncRun) error
	// Prune drops runs beyond keepPerIntegration and older than maxAge
	Prune(ctx context.Context, keepPerIntegration int, maxAge time.Duration) (int64, error)
}
