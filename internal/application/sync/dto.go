package sync

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// TriggerReason values returned when a trigger request is not accepted
const (
	TriggerReasonAlreadyRunning = "already_running"
	TriggerReasonNotActive      = "not_active"
)

// RegisterIntegrationRequest registers a branch's connection to an external
// system
type RegisterIntegrationRequest struct {
	BrandID             uuid.UUID              `json:"brand_id" binding:"required"`
	BranchID            uuid.UUID              `json:"branch_id" binding:"required"`
	AdapterType         syncdomain.AdapterType `json:"adapter_type" binding:"required,adaptertype"`
	Config              json.RawMessage        `json:"config" binding:"required"`
	SyncIntervalMinutes int                    `json:"sync_interval_minutes" binding:"required,min=1"`
}

// UpdateIntegrationRequest edits an integration's configuration
type UpdateIntegrationRequest struct {
	Config              json.RawMessage `json:"config,omitempty"`
	SyncIntervalMinutes *int            `json:"sync_interval_minutes,omitempty"`
}

// IntegrationResponse is the API shape of an integration
type IntegrationResponse struct {
	ID                  uuid.UUID                    `json:"id"`
	BrandID             uuid.UUID                    `json:"brand_id"`
	BranchID            uuid.UUID                    `json:"branch_id"`
	AdapterType         syncdomain.AdapterType       `json:"adapter_type"`
	SyncIntervalMinutes int                          `json:"sync_interval_minutes"`
	Status              syncdomain.IntegrationStatus `json:"status"`
	LastSyncAt          *time.Time                   `json:"last_sync_at,omitempty"`
	LastSyncStatus      syncdomain.RunStatus         `json:"last_sync_status,omitempty"`
	CreatedAt           time.Time                    `json:"created_at"`
	UpdatedAt           time.Time                    `json:"updated_at"`
}

// ToIntegrationResponse converts a domain integration to its API shape.
// The opaque adapter config (credentials) is deliberately not echoed back.
func ToIntegrationResponse(integ *syncdomain.Integration) IntegrationResponse {
	return IntegrationResponse{
		ID:                  integ.ID,
		BrandID:             integ.BrandID,
		BranchID:            integ.BranchID,
		AdapterType:         integ.AdapterType,
		SyncIntervalMinutes: integ.SyncIntervalMinutes,
		Status:              integ.Status,
		LastSyncAt:          integ.LastSyncAt,
		LastSyncStatus:      integ.LastSyncStatus,
		CreatedAt:           integ.CreatedAt,
		UpdatedAt:           integ.UpdatedAt,
	}
}

// TriggerResult acknowledges a manual sync trigger. Completion is observed
// by polling the run status, not by waiting on this call.
type TriggerResult struct {
	Accepted bool       `json:"accepted"`
	RunID    *uuid.UUID `json:"run_id,omitempty"`
	Reason   string     `json:"reason,omitempty"`
}

// RunResponse is the API shape of a sync run
type RunResponse struct {
	ID                uuid.UUID                `json:"id"`
	IntegrationID     uuid.UUID                `json:"integration_id"`
	Status            syncdomain.RunStatus     `json:"status"`
	StartedAt         time.Time                `json:"started_at"`
	FinishedAt        *time.Time               `json:"finished_at,omitempty"`
	ItemsUpdated      int                      `json:"items_updated"`
	ItemsFailed       int                      `json:"items_failed"`
	Failures          []syncdomain.ItemFailure `json:"failures"`
	TruncatedFailures int                      `json:"truncated_failures"`
}

// ToRunResponse converts a domain run to its API shape
func ToRunResponse(run *syncdomain.SyncRun) RunResponse {
	failures := run.Failures
	if failures == nil {
		failures = make(syncdomain.FailureList, 0)
	}
	return RunResponse{
		ID:                run.ID,
		IntegrationID:     run.IntegrationID,
		Status:            run.Status,
		StartedAt:         run.StartedAt,
		FinishedAt:        run.FinishedAt,
		ItemsUpdated:      run.ItemsUpdated,
		ItemsFailed:       run.ItemsFailed,
		Failures:          failures,
		TruncatedFailures: run.TruncatedFailures,
	}
}

// ToRunResponses converts a slice of domain runs
func ToRunResponses(runs []syncdomain.SyncRun) []RunResponse {
	responses := make([]RunResponse, 0, len(runs))
	for i := range runs {
		responses = append(responses, ToRunResponse(&runs[i]))
	}
	return responses
}

// IngestResult acknowledges a webhook delivery
type IngestResult struct {
	ItemsAccepted int        `json:"items_accepted"`
	ItemsRejected int        `json:"items_rejected"`
	Duplicate     bool       `json:"duplicate,omitempty"`
	RunID         *uuid.UUID `json:"run_id,omitempty"`
}
