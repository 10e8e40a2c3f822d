package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/storefront/backend/internal/application/sync"
)

// WebhookTokenHeader carries the shared secret for webhook deliveries
const WebhookTokenHeader = "X-Webhook-Token"

// WebhookHandler handles push-style stock deliveries from external systems
type WebhookHandler struct {
	BaseHandler
	webhookService *appsync.WebhookService
	logger         *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookService *appsync.WebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		logger:         logger,
	}
}

// RegisterRoutes registers webhook routes on the API group
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/integrations/:id", h.Ingest)
}

// Ingest processes one inbound stock delivery synchronously. The payload is
// opaque to the HTTP layer; the integration's adapter owns its schema.
func (h *WebhookHandler) Ingest(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid integration ID format")
		return
	}

	token := c.GetHeader(WebhookTokenHeader)
	if token == "" {
		h.Unauthorized(c, "Missing webhook token")
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if len(payload) == 0 {
		h.BadRequest(c, "Request body is required")
		return
	}

	result, err := h.webhookService.Ingest(c.Request.Context(), id, token, payload)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
