package handler

import (
	"github.com/gin-gonic/gin"

	inventoryapp "github.com/storefront/backend/internal/application/inventory"
)

// InventoryHandler handles the admin-facing inventory endpoints
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// RegisterRoutes registers inventory routes on the API group
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	inv := rg.Group("/inventory")
	{
		inv.POST("/adjust", h.Adjust)
		inv.POST("/availability", h.SetAvailability)
		inv.POST("/clear-override", h.ClearOverride)
	}
	rg.GET("/branches/:branchId/inventory", h.ListByBranch)
	rg.GET("/branches/:branchId/inventory/:productId", h.Get)
	rg.GET("/brands/:brandId/inventory/low-stock", h.ListLowStock)
}

// Adjust applies a manual stock adjustment and flags the record as manually
// overridden
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req inventoryapp.ManualAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.inventoryService.ManualAdjust(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetAvailability pins a record's storefront availability regardless of
// quantity
func (h *InventoryHandler) SetAvailability(c *gin.Context) {
	var req inventoryapp.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.inventoryService.SetAvailability(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ClearOverride removes the manual-override flag so sync writes regain
// precedence
func (h *InventoryHandler) ClearOverride(c *gin.Context) {
	var req inventoryapp.ClearOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.inventoryService.ClearOverride(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get retrieves the record for a branch-product combination
func (h *InventoryHandler) Get(c *gin.Context) {
	branchID, ok := parseUUIDParam(c, "branchId")
	if !ok {
		h.BadRequest(c, "Invalid branch ID format")
		return
	}
	productID, ok := parseUUIDParam(c, "productId")
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	resp, err := h.inventoryService.Get(c.Request.Context(), branchID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListByBranch lists inventory records at a branch
func (h *InventoryHandler) ListByBranch(c *gin.Context) {
	branchID, ok := parseUUIDParam(c, "branchId")
	if !ok {
		h.BadRequest(c, "Invalid branch ID format")
		return
	}

	filter, err := bindListFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	records, total, err := h.inventoryService.ListByBranch(c.Request.Context(), branchID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}

// ListLowStock lists records across a brand where stock is positive but at
// or below the low-stock threshold
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	brandID, ok := parseUUIDParam(c, "brandId")
	if !ok {
		h.BadRequest(c, "Invalid brand ID format")
		return
	}

	filter, err := bindListFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	records, total, err := h.inventoryService.ListLowStock(c.Request.Context(), brandID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}
