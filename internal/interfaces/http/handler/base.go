package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/domain/shared"
	syncdomain "github.com/storefront/backend/internal/domain/sync"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the gin context key under which the request ID is stored
const RequestIDKey = "request_id"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, code, message string) {
	h.Error(c, http.StatusConflict, code, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts domain and sync engine errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, shared.ErrNotFound):
		h.NotFound(c, "Resource not found")
		return
	case errors.Is(err, syncdomain.ErrAlreadyRunning):
		h.Conflict(c, dto.ErrCodeSyncInProgress, "A sync run is already in flight for this integration")
		return
	case errors.Is(err, syncdomain.ErrActiveIntegrationExists):
		h.Conflict(c, dto.ErrCodeConflict, "Branch already has an active integration")
		return
	case errors.Is(err, syncdomain.ErrIntegrationNotActive):
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeIntegrationInactive, "Integration is not active")
		return
	case errors.Is(err, syncdomain.ErrInvalidStatusTransition):
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState, "Status transition not allowed")
		return
	case errors.Is(err, syncdomain.ErrWebhookTokenMismatch):
		h.Unauthorized(c, "Webhook token rejected")
		return
	case errors.Is(err, syncdomain.ErrUnknownAdapterType),
		errors.Is(err, syncdomain.ErrAdapterNotRegistered),
		errors.Is(err, syncdomain.ErrPushNotSupported),
		errors.Is(err, syncdomain.ErrPullNotSupported):
		h.BadRequest(c, err.Error())
		return
	}

	// Adapter config rejections surface as classified CONFIG errors
	var classified *syncdomain.ClassifiedError
	if errors.As(err, &classified) && classified.Class == syncdomain.ErrorClassConfig {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidConfig, classified.Err.Error())
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	h.InternalError(c, "An unexpected error occurred")
}
