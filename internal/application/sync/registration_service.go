package sync

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// RegistrationService manages the integration lifecycle: registration,
// activation, reconfiguration, disabling. Run execution is the
// Orchestrator's job.
type RegistrationService struct {
	integrationRepo syncdomain.IntegrationRepository
	branchRepo      catalog.BranchRepository
	registry        syncdomain.AdapterRegistry
	logger          *zap.Logger
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(
	integrationRepo syncdomain.IntegrationRepository,
	branchRepo catalog.BranchRepository,
	registry syncdomain.AdapterRegistry,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		integrationRepo: integrationRepo,
		branchRepo:      branchRepo,
		registry:        registry,
		logger:          logger,
	}
}

// Register creates a new integration in pending_setup status. The adapter
// validates the opaque configuration up front so a bad config never
// reaches a run.
func (s *RegistrationService) Register(ctx context.Context, req RegisterIntegrationRequest) (*IntegrationResponse, error) {
	branch, err := s.branchRepo.FindByID(ctx, req.BranchID)
	if err != nil {
		return nil, err
	}
	if branch.BrandID != req.BrandID {
		return nil, shared.ErrNotFound
	}

	adapter, err := s.registry.Get(req.AdapterType)
	if err != nil {
		return nil, err
	}
	if err := adapter.ValidateConfig(req.Config); err != nil {
		return nil, syncdomain.NewConfigError(err)
	}

	integ, err := syncdomain.NewIntegration(req.BrandID, req.BranchID, req.AdapterType, req.Config, req.SyncIntervalMinutes)
	if err != nil {
		return nil, err
	}

	if err := s.integrationRepo.Save(ctx, integ); err != nil {
		return nil, err
	}

	s.logger.Info("Integration registered",
		zap.String("integration_id", integ.ID.String()),
		zap.String("branch_id", integ.BranchID.String()),
		zap.String("adapter_type", integ.AdapterType.String()),
	)

	resp := ToIntegrationResponse(integ)
	return &resp, nil
}

// Activate moves an integration into the sync schedule. Only one active
// integration per branch is allowed.
func (s *RegistrationService) Activate(ctx context.Context, id uuid.UUID) (*IntegrationResponse, error) {
	integ, err := s.integrationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, err := s.integrationRepo.FindActiveByBranch(ctx, integ.BranchID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.ID != integ.ID {
		return nil, syncdomain.ErrActiveIntegrationExists
	}

	if err := integ.TransitionTo(syncdomain.IntegrationStatusActive); err != nil {
		return nil, err
	}
	if err := s.integrationRepo.Save(ctx, integ); err != nil {
		return nil, err
	}

	s.logger.Info("Integration activated", zap.String("integration_id", integ.ID.String()))

	resp := ToIntegrationResponse(integ)
	return &resp, nil
}

// Disable switches an integration off. Scheduled syncs stop; manual
// triggers are rejected.
func (s *RegistrationService) Disable(ctx context.Context, id uuid.UUID) (*IntegrationResponse, error) {
	integ, err := s.integrationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := integ.TransitionTo(syncdomain.IntegrationStatusDisabled); err != nil {
		return nil, err
	}
	if err := s.integrationRepo.Save(ctx, integ); err != nil {
		return nil, err
	}

	s.logger.Info("Integration disabled", zap.String("integration_id", integ.ID.String()))

	resp := ToIntegrationResponse(integ)
	return &resp, nil
}

// Update reconfigures an integration. A new config is re-validated by the
// adapter; if the integration was in error status, a successful
// reconfiguration moves it back to active.
func (s *RegistrationService) Update(ctx context.Context, id uuid.UUID, req UpdateIntegrationRequest) (*IntegrationResponse, error) {
	integ, err := s.integrationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Config != nil {
		adapter, err := s.registry.Get(integ.AdapterType)
		if err != nil {
			return nil, err
		}
		if err := adapter.ValidateConfig(req.Config); err != nil {
			return nil, syncdomain.NewConfigError(err)
		}
		integ.Config = req.Config

		if integ.Status == syncdomain.IntegrationStatusError {
			if err := integ.TransitionTo(syncdomain.IntegrationStatusActive); err != nil {
				return nil, err
			}
		}
	}

	if req.SyncIntervalMinutes != nil {
		if *req.SyncIntervalMinutes <= 0 {
			return nil, shared.NewDomainError("INVALID_INTERVAL", "Sync interval must be positive")
		}
		integ.SyncIntervalMinutes = *req.SyncIntervalMinutes
	}

	integ.Touch()
	integ.IncrementVersion()
	if err := s.integrationRepo.Save(ctx, integ); err != nil {
		return nil, err
	}

	s.logger.Info("Integration updated", zap.String("integration_id", integ.ID.String()))

	resp := ToIntegrationResponse(integ)
	return &resp, nil
}

// Get returns one integration
func (s *RegistrationService) Get(ctx context.Context, id uuid.UUID) (*IntegrationResponse, error) {
	integ, err := s.integrationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToIntegrationResponse(integ)
	return &resp, nil
}

// ListByBranch returns all integrations configured for a branch
func (s *RegistrationService) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]IntegrationResponse, error) {
	integrations, err := s.integrationRepo.FindByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	responses := make([]IntegrationResponse, 0, len(integrations))
	for i := range integrations {
		responses = append(responses, ToIntegrationResponse(&integrations[i]))
	}
	return responses, nil
}
