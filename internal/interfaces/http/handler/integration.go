package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/storefront/backend/internal/application/sync"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// SyncTrigger is the slice of the orchestrator the HTTP surface needs:
// synchronous trigger acknowledgement plus detached run execution.
type SyncTrigger interface {
	TriggerSync(ctx context.Context, integrationID uuid.UUID) (*appsync.TriggerResult, *appsync.RunContext, error)
	ExecuteRun(ctx context.Context, rc *appsync.RunContext)
}

// IntegrationHandler handles integration lifecycle and sync trigger endpoints
type IntegrationHandler struct {
	BaseHandler
	registration *appsync.RegistrationService
	history      *appsync.HistoryService
	trigger      SyncTrigger
	logger       *zap.Logger
}

// NewIntegrationHandler creates a new IntegrationHandler
func NewIntegrationHandler(
	registration *appsync.RegistrationService,
	history *appsync.HistoryService,
	trigger SyncTrigger,
	logger *zap.Logger,
) *IntegrationHandler {
	return &IntegrationHandler{
		registration: registration,
		history:      history,
		trigger:      trigger,
		logger:       logger,
	}
}

// RegisterRoutes registers integration routes on the API group
func (h *IntegrationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	integrations := rg.Group("/integrations")
	{
		integrations.POST("", h.Register)
		integrations.GET("/:id", h.Get)
		integrations.PUT("/:id", h.Update)
		integrations.POST("/:id/activate", h.Activate)
		integrations.POST("/:id/disable", h.Disable)
		integrations.POST("/:id/sync", h.TriggerSync)
		integrations.GET("/:id/runs", h.ListRuns)
	}
	rg.GET("/runs/:id", h.GetRun)
	rg.GET("/branches/:branchId/integrations", h.ListByBranch)
}

// Register creates a new integration in pending_setup status
func (h *IntegrationHandler) Register(c *gin.Context) {
	var req appsync.RegisterIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.registration.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns one integration
func (h *IntegrationHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid integration ID format")
		return
	}

	resp, err := h.registration.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update reconfigures an integration
func (h *IntegrationHandler) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid integration ID format")
		return
	}

	var req appsync.UpdateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.registration.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Activate moves an integration into the sync schedule
func (h *IntegrationHandler) Activate(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid integration ID format")
		return
	}

	resp, err := h.registration.Activate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Disable switches an integration off
func (h *IntegrationHandler) Disable(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid integration ID format")
		return
	}

	resp, err := h.registration.Disable(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// TriggerSync starts a manual sync run. The acknowledgement is synchronous;
// the run itself executes on a detached goroutine and completion is observed
// by polling the run endpoint.
func (h *IntegrationHandler) TriggerSync(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid integration ID format")
		return
	}

	result, rc, err := h.trigger.TriggerSync(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if !result.Accepted {
		switch result.Reason {
		case appsync.TriggerReasonAlreadyRunning:
			h.Conflict(c, dto.ErrCodeSyncInProgress, "A sync run is already in flight for this integration")
		case appsync.TriggerReasonNotActive:
			h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeIntegrationInactive, "Integration is not active")
		default:
			h.Conflict(c, dto.ErrCodeConflict, "Sync trigger not accepted")
		}
		return
	}

	// Detach from the request context: the client gets its 202 immediately
	// and the run keeps the trace baggage without the request's cancel.
	go h.trigger.ExecuteRun(context.WithoutCancel(c.Request.Context()), rc)

	h.Accepted(c, result)
}

// ListByBranch returns all integrations configured for a branch
func (h *IntegrationHandler) ListByBranch(c *gin.Context) {
	branchID, ok := parseUUIDParam(c, "branchId")
	if !ok {
		h.BadRequest(c, "Invalid branch ID format")
		return
	}

	resp, err := h.registration.ListByBranch(c.Request.Context(), branchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListRuns lists the sync ledger for an integration, newest first
func (h *IntegrationHandler) ListRuns(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid integration ID format")
		return
	}

	filter, err := bindListFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.history.ListRuns(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetRun returns one sync ledger entry
func (h *IntegrationHandler) GetRun(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid run ID format")
		return
	}

	resp, err := h.history.GetRun(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
