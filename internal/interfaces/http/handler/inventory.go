package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/rsjrcat/invoice-server-main-hd/internal/application/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/middleware"
)

// ItemService is the inventory item use-case surface the handler needs
type ItemService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req inventoryapp.CreateItemRequest) (*inventoryapp.ItemResponse, error)
	GetByID(ctx context.Context, tenantID, itemID uuid.UUID) (*inventoryapp.ItemResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter inventoryapp.ItemListFilter) (shared.Paginated[inventoryapp.ItemResponse], error)
	Update(ctx context.Context, tenantID, itemID uuid.UUID, req inventoryapp.UpdateItemRequest) (*inventoryapp.ItemResponse, error)
	Restock(ctx context.Context, tenantID, itemID uuid.UUID, req inventoryapp.RestockRequest) (*inventoryapp.ItemResponse, error)
}

// InventoryHandler handles inventory item API endpoints
type InventoryHandler struct {
	BaseHandler
	itemService ItemService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(itemService ItemService) *InventoryHandler {
	return &InventoryHandler{itemService: itemService}
}

// SearchItemsRequest is the query of the item search endpoint
type SearchItemsRequest struct {
	Query  string `form:"q" binding:"required,min=1,max=255"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

// Create godoc
// @Summary      Create an inventory item
// @Tags         inventory-items
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID when no token claim is present"
// @Param        Idempotency-Key header string false "Makes the request safe to retry"
// @Param        request body inventoryapp.CreateItemRequest true "Item"
// @Success      201 {object} dto.Response{data=inventoryapp.ItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory-items [post]
func (h *InventoryHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req inventoryapp.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	item, err := h.itemService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item, "Inventory item created successfully")
}

// GetByID godoc
// @Summary      Get an inventory item
// @Tags         inventory-items
// @Produce      json
// @Param        id path string true "Item ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.ItemResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory-items/{id} [get]
func (h *InventoryHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "inventory item")
	if !ok {
		return
	}

	item, err := h.itemService.GetByID(c.Request.Context(), tenantID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, item, "Inventory item fetched successfully", nil)
}

// List godoc
// @Summary      List inventory items
// @Description  Newest first, offset paginated
// @Tags         inventory-items
// @Produce      json
// @Param        search query string false "Name or description contains"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Offset" default(0)
// @Success      200 {object} dto.Response{data=[]inventoryapp.ItemResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /inventory-items [get]
func (h *InventoryHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var filter inventoryapp.ItemListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.itemService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Search godoc
// @Summary      Search inventory items
// @Description  Case-insensitive match on name or description
// @Tags         inventory-items
// @Produce      json
// @Param        q query string true "Search text"
// @Success      200 {object} dto.Response{data=[]inventoryapp.ItemResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory-items/search [get]
func (h *InventoryHandler) Search(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req SearchItemsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.itemService.List(c.Request.Context(), tenantID, inventoryapp.ItemListFilter{
		Search: req.Query,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Update godoc
// @Summary      Update an inventory item
// @Description  Catalog fields only; quantity changes go through restock and documents
// @Tags         inventory-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Item ID" format(uuid)
// @Param        request body inventoryapp.UpdateItemRequest true "Patch"
// @Success      200 {object} dto.Response{data=inventoryapp.ItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory-items/{id} [patch]
func (h *InventoryHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "inventory item")
	if !ok {
		return
	}

	var req inventoryapp.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	item, err := h.itemService.Update(c.Request.Context(), tenantID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, item, "Inventory item updated successfully", nil)
}

// Restock godoc
// @Summary      Restock an inventory item
// @Tags         inventory-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Item ID" format(uuid)
// @Param        request body inventoryapp.RestockRequest true "Quantity to add"
// @Success      200 {object} dto.Response{data=inventoryapp.ItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory-items/{id}/restock [post]
func (h *InventoryHandler) Restock(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "inventory item")
	if !ok {
		return
	}

	var req inventoryapp.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	item, err := h.itemService.Restock(c.Request.Context(), tenantID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, item, "Inventory item restocked successfully", nil)
}
