package sync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Integration Status
// ---------------------------------------------------------------------------

// IntegrationStatus represents the lifecycle status of an integration
type IntegrationStatus string

const (
	// IntegrationStatusPendingSetup indicates the integration is registered
	// but not yet activated
	IntegrationStatusPendingSetup IntegrationStatus = "pending_setup"
	// IntegrationStatusActive indicates the integration is scheduled for sync
	IntegrationStatusActive IntegrationStatus = "active"
	// IntegrationStatusError indicates a fatal adapter error; no automatic
	// retries until reconfigured
	IntegrationStatusError IntegrationStatus = "error"
	// IntegrationStatusDisabled indicates the integration is switched off
	IntegrationStatusDisabled IntegrationStatus = "disabled"
)

// IsValid returns true if the status is valid
func (s IntegrationStatus) IsValid() bool {
	switch s {
	case IntegrationStatusPendingSetup, IntegrationStatusActive,
		IntegrationStatusError, IntegrationStatusDisabled:
		return true
	default:
		return false
	}
}

// String returns the string representation of IntegrationStatus
func (s IntegrationStatus) String() string {
	return string(s)
}

// integrationTransitions is the allowed status transition table
var integrationTransitions = map[IntegrationStatus][]IntegrationStatus{
	IntegrationStatusPendingSetup: {IntegrationStatusActive, IntegrationStatusDisabled},
	IntegrationStatusActive:       {IntegrationStatusError, IntegrationStatusDisabled},
	IntegrationStatusError:        {IntegrationStatusActive, IntegrationStatusDisabled},
	IntegrationStatusDisabled:     {IntegrationStatusActive},
}

// CanTransitionTo reports whether the transition is allowed
func (s IntegrationStatus) CanTransitionTo(target IntegrationStatus) bool {
	for _, allowed := range integrationTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Integration Aggregate
// ---------------------------------------------------------------------------

// Integration connects one branch to one external stock system. It carries
// the opaque adapter configuration, the sync cadence, and the persisted
// single-flight marker (CurrentRunID) that guarantees at most one run per
// integration across process restarts.
//
// At most one integration per branch may be active at a time.
type Integration struct {
	shared.BrandAggregateRoot
	BranchID            uuid.UUID         `gorm:"type:uuid;not null;index"`
	AdapterType         AdapterType       `gorm:"size:32;not null"`
	Config              []byte            `gorm:"type:jsonb"` // Opaque, schema owned by the adapter
	SyncIntervalMinutes int               `gorm:"not null;default:15"`
	Status              IntegrationStatus `gorm:"size:32;not null;default:'pending_setup';index"`
	LastSyncAt          *time.Time
	LastSyncStatus      RunStatus  `gorm:"size:32"`
	CurrentRunID        *uuid.UUID `gorm:"type:uuid"` // Non-nil while a run is in flight
	// ExpectItems marks integrations whose adapter should always return at
	// least one item; an empty snapshot then fails the run instead of
	// wiping nothing silently.
	ExpectItems bool `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Integration) TableName() string {
	return "integrations"
}

// NewIntegration registers a new integration in pending_setup status
func NewIntegration(brandID, branchID uuid.UUID, adapterType AdapterType, config []byte, intervalMinutes int) (*Integration, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch ID cannot be empty")
	}
	if !adapterType.IsValid() {
		return nil, ErrUnknownAdapterType
	}
	if intervalMinutes <= 0 {
		return nil, shared.NewDomainError("INVALID_INTERVAL", "Sync interval must be positive")
	}

	return &Integration{
		BrandAggregateRoot:  shared.NewBrandAggregateRoot(brandID),
		BranchID:            branchID,
		AdapterType:         adapterType,
		Config:              config,
		SyncIntervalMinutes: intervalMinutes,
		Status:              IntegrationStatusPendingSetup,
		ExpectItems:         !adapterType.IsPush(),
	}, nil
}

// TransitionTo moves the integration to the target status, rejecting
// transitions not in the table
func (i *Integration) TransitionTo(target IntegrationStatus) error {
	if !target.IsValid() {
		return ErrInvalidStatusTransition
	}
	if i.Status == target {
		return nil
	}
	if !i.Status.CanTransitionTo(target) {
		return ErrInvalidStatusTransition
	}
	i.Status = target
	i.Touch()
	i.IncrementVersion()
	return nil
}

// Interval returns the sync interval as a duration
func (i *Integration) Interval() time.Duration {
	return time.Duration(i.SyncIntervalMinutes) * time.Minute
}

// DueAt returns the next scheduled sync time. An integration that has never
// synced is due immediately.
func (i *Integration) DueAt() time.Time {
	if i.LastSyncAt == nil {
		return time.Time{}
	}
	return i.LastSyncAt.Add(i.Interval())
}

// IsDue reports whether a scheduled sync should start at the given time
func (i *Integration) IsDue(now time.Time) bool {
	return i.Status == IntegrationStatusActive && !i.DueAt().After(now)
}

// RecordSyncOutcome updates the last-sync bookkeeping after a run finalizes
func (i *Integration) RecordSyncOutcome(finishedAt time.Time, status RunStatus) {
	i.LastSyncAt = &finishedAt
	i.LastSyncStatus = status
	i.Touch()
	i.IncrementVersion()
}

// IsPush returns true for push-style integrations
func (i *Integration) IsPush() bool {
	return i.AdapterType.IsPush()
}

// ---------------------------------------------------------------------------
// Repository Port
// ---------------------------------------------------------------------------

// IntegrationRepository defines the persistence port for integrations.
//
// ClaimRun and ReleaseRun implement the persisted single-flight guarantee:
// claiming sets CurrentRunID only when it is currently empty (or stale), via
// a conditional update, so two concurrent triggers resolve to exactly one
// winner even across processes.
type IntegrationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Integration, error)
	FindByBranch(ctx context.Context, branchID uuid.UUID) ([]Integration, error)
	// FindActiveByBranch returns the single active integration for a branch
	FindActiveByBranch(ctx context.Context, branchID uuid.UUID) (*Integration, error)
	// FindDue returns active integrations whose next sync time is at or
	// before now
	FindDue(ctx context.Context, now time.Time) ([]Integration, error)
	Save(ctx context.Context, integration *Integration) error

	// ClaimRun atomically sets CurrentRunID to runID when no run is in
	// flight, or when the existing claim is older than staleAfter.
	// Returns ErrAlreadyRunning when the claim is held.
	ClaimRun(ctx context.Context, integrationID, runID uuid.UUID, staleAfter time.Duration) error

	// ReleaseRun clears CurrentRunID if it still equals runID
	ReleaseRun(ctx context.Context, integrationID, runID uuid.UUID) error
}
