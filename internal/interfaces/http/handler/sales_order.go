package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	salesapp "github.com/rsjrcat/invoice-server-main-hd/internal/application/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/middleware"
)

// SalesOrderService is the sales order use-case surface the handler needs
type SalesOrderService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req salesapp.CreateSalesOrderRequest) (*salesapp.SalesOrderResponse, error)
	GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*salesapp.SalesOrderResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter salesapp.SalesOrderListFilter) (shared.Paginated[salesapp.SalesOrderResponse], error)
	Update(ctx context.Context, tenantID, orderID uuid.UUID, req salesapp.UpdateSalesOrderRequest) (*salesapp.SalesOrderResponse, error)
	UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, rawStatus string) (*salesapp.SalesOrderResponse, error)
	Mail(ctx context.Context, tenantID, orderID uuid.UUID) (*salesapp.SalesOrderResponse, []string, error)
}

// SalesOrderHandler handles sales order API endpoints
type SalesOrderHandler struct {
	BaseHandler
	orderService SalesOrderService
}

// NewSalesOrderHandler creates a new SalesOrderHandler
func NewSalesOrderHandler(orderService SalesOrderService) *SalesOrderHandler {
	return &SalesOrderHandler{orderService: orderService}
}

// Create godoc
// @Summary      Create a sales order
// @Description  Prices the lines from the inventory catalog and assigns the next order number. Stock is not moved.
// @Tags         sales-orders
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID when no token claim is present"
// @Param        Idempotency-Key header string false "Makes the request safe to retry"
// @Param        request body salesapp.CreateSalesOrderRequest true "Sales order"
// @Success      201 {object} dto.Response{data=salesapp.SalesOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders [post]
func (h *SalesOrderHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req salesapp.CreateSalesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order, "Sales order created successfully")
}

// GetByID godoc
// @Summary      Get a sales order
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      200 {object} dto.Response{data=salesapp.SalesOrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id} [get]
func (h *SalesOrderHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "sales order")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, order, "Sales order retrieved successfully", nil)
}

// List godoc
// @Summary      List sales orders
// @Tags         sales-orders
// @Produce      json
// @Param        status query string false "Status" Enums(PENDING, ACCEPTED, REJECTED)
// @Param        customerId query string false "Customer ID" format(uuid)
// @Param        startDate query string false "Created on or after (YYYY-MM-DD)"
// @Param        endDate query string false "Created on or before (YYYY-MM-DD)"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Offset" default(0)
// @Success      200 {object} dto.Response{data=[]salesapp.SalesOrderResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders [get]
func (h *SalesOrderHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var filter salesapp.SalesOrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.orderService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Update godoc
// @Summary      Update a sales order
// @Description  Sending items replaces every line and recomputes the totals
// @Tags         sales-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Param        request body salesapp.UpdateSalesOrderRequest true "Patch"
// @Success      200 {object} dto.Response{data=salesapp.SalesOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id} [patch]
func (h *SalesOrderHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "sales order")
	if !ok {
		return
	}

	var req salesapp.UpdateSalesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	order, err := h.orderService.Update(c.Request.Context(), tenantID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, order, "Sales order updated successfully", nil)
}

// Accept godoc
// @Summary      Accept a sales order
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      200 {object} dto.Response{data=salesapp.SalesOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/status/accept [patch]
func (h *SalesOrderHandler) Accept(c *gin.Context) {
	h.updateStatus(c, sales.OrderStatusAccepted, "Sales order accepted successfully")
}

// Reject godoc
// @Summary      Reject a sales order
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      200 {object} dto.Response{data=salesapp.SalesOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/status/reject [patch]
func (h *SalesOrderHandler) Reject(c *gin.Context) {
	h.updateStatus(c, sales.OrderStatusRejected, "Sales order rejected successfully")
}

func (h *SalesOrderHandler) updateStatus(c *gin.Context, status sales.OrderStatus, message string) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "sales order")
	if !ok {
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), tenantID, orderID, status.String())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, order, message, nil)
}

// Mail godoc
// @Summary      Mail a sales order
// @Description  Sends the order PDF to the customer. Delivery problems come back as warnings.
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      200 {object} dto.Response{data=salesapp.SalesOrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/mail [post]
func (h *SalesOrderHandler) Mail(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "sales order")
	if !ok {
		return
	}

	order, warnings, err := h.orderService.Mail(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, order, "Sales order sent to mail", warnings)
}
