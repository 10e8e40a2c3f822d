package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inventoryapp "github.com/storefront/backend/internal/application/inventory"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
)

type inventoryFixture struct {
	engine        *gin.Engine
	inventoryRepo *mockInventoryRepo
	productRepo   *mockProductRepo
	brandID       uuid.UUID
	branchID      uuid.UUID
	product       *catalog.Product
}

func newInventoryFixture(t *testing.T) *inventoryFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	inventoryRepo := newMockInventoryRepo()
	productRepo := newMockProductRepo()

	brandID := uuid.New()
	branchID := uuid.New()
	product, err := catalog.NewProduct(brandID, "SKU-001", "Espresso Beans")
	require.NoError(t, err)
	require.NoError(t, productRepo.Save(context.Background(), product))

	assignment, err := catalog.NewBranchAssignment(branchID, product.ID)
	require.NoError(t, err)
	require.NoError(t, productRepo.AssignToBranch(context.Background(), assignment))

	service := inventoryapp.NewInventoryService(inventoryRepo, productRepo)
	handler := NewInventoryHandler(service)

	engine := gin.New()
	api := engine.Group("/api/v1")
	handler.RegisterRoutes(api)

	return &inventoryFixture{
		engine:        engine,
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
		brandID:       brandID,
		branchID:      branchID,
		product:       product,
	}
}

func (f *inventoryFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func TestInventoryHandler_Adjust(t *testing.T) {
	t.Run("creates record and flags override", func(t *testing.T) {
		f := newInventoryFixture(t)

		rec := f.do(http.MethodPost, "/api/v1/inventory/adjust", gin.H{
			"branch_id":  f.branchID,
			"product_id": f.product.ID,
			"operation":  "set",
			"amount":     25,
		})

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		data := decodeResponse(t, rec).Data.(map[string]any)
		assert.Equal(t, float64(25), data["quantity"])
		assert.Equal(t, true, data["manual_override"])
		assert.Equal(t, true, data["available"])
	})

	t.Run("rejects unassigned product", func(t *testing.T) {
		f := newInventoryFixture(t)

		orphan, err := catalog.NewProduct(f.brandID, "SKU-999", "Unstocked")
		require.NoError(t, err)
		require.NoError(t, f.productRepo.Save(context.Background(), orphan))

		rec := f.do(http.MethodPost, "/api/v1/inventory/adjust", gin.H{
			"branch_id":  f.branchID,
			"product_id": orphan.ID,
			"operation":  "add",
			"amount":     5,
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	})

	t.Run("rejects unknown operation", func(t *testing.T) {
		f := newInventoryFixture(t)

		rec := f.do(http.MethodPost, "/api/v1/inventory/adjust", gin.H{
			"branch_id":  f.branchID,
			"product_id": f.product.ID,
			"operation":  "multiply",
			"amount":     2,
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestInventoryHandler_SetAvailability(t *testing.T) {
	f := newInventoryFixture(t)

	// Stock the record first
	rec := f.do(http.MethodPost, "/api/v1/inventory/adjust", gin.H{
		"branch_id":  f.branchID,
		"product_id": f.product.ID,
		"operation":  "set",
		"amount":     10,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Pull it from the storefront despite positive stock
	rec = f.do(http.MethodPost, "/api/v1/inventory/availability", gin.H{
		"branch_id":  f.branchID,
		"product_id": f.product.ID,
		"available":  false,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeResponse(t, rec).Data.(map[string]any)
	assert.Equal(t, false, data["available"])
	assert.Equal(t, true, data["manual_override"])
	assert.Equal(t, float64(10), data["quantity"])
}

func TestInventoryHandler_ClearOverride(t *testing.T) {
	f := newInventoryFixture(t)

	record, err := inventory.NewBranchInventoryRecord(f.brandID, f.branchID, f.product.ID)
	require.NoError(t, err)
	record.ApplyExternalQuantity(7)
	record.SetAvailability(false)
	require.NoError(t, f.inventoryRepo.Save(context.Background(), record))

	rec := f.do(http.MethodPost, "/api/v1/inventory/clear-override", gin.H{
		"branch_id":  f.branchID,
		"product_id": f.product.ID,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeResponse(t, rec).Data.(map[string]any)
	assert.Equal(t, false, data["manual_override"])
	// Availability is derived from quantity again
	assert.Equal(t, true, data["available"])
}

func TestInventoryHandler_Queries(t *testing.T) {
	f := newInventoryFixture(t)

	record, err := inventory.NewBranchInventoryRecord(f.brandID, f.branchID, f.product.ID)
	require.NoError(t, err)
	record.ApplyExternalQuantity(3)
	require.NoError(t, record.SetLowStockThreshold(5))
	require.NoError(t, f.inventoryRepo.Save(context.Background(), record))

	t.Run("get by branch and product", func(t *testing.T) {
		rec := f.do(http.MethodGet,
			fmt.Sprintf("/api/v1/branches/%s/inventory/%s", f.branchID, f.product.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(3), decodeResponse(t, rec).Data.(map[string]any)["quantity"])
	})

	t.Run("unknown record returns 404", func(t *testing.T) {
		rec := f.do(http.MethodGet,
			fmt.Sprintf("/api/v1/branches/%s/inventory/%s", f.branchID, uuid.New()), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list by branch with meta", func(t *testing.T) {
		rec := f.do(http.MethodGet, fmt.Sprintf("/api/v1/branches/%s/inventory", f.branchID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Len(t, resp.Data.([]any), 1)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(1), resp.Meta.Total)
	})

	t.Run("low stock across the brand", func(t *testing.T) {
		rec := f.do(http.MethodGet, fmt.Sprintf("/api/v1/brands/%s/inventory/low-stock", f.brandID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeResponse(t, rec).Data.([]any), 1)
	})
}
