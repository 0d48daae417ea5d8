package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	invoicingapp "github.com/rsjrcat/invoice-server-main-hd/internal/application/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/middleware"
)

// XLSXContentType is the media type of exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InvoiceService is the invoice use-case surface the handler needs
type InvoiceService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req invoicingapp.CreateInvoiceRequest) (*invoicingapp.InvoiceResponse, error)
	GetByID(ctx context.Context, tenantID, invoiceID uuid.UUID) (*invoicingapp.InvoiceResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter invoicingapp.InvoiceListFilter) (shared.Paginated[invoicingapp.InvoiceResponse], error)
	Export(ctx context.Context, tenantID uuid.UUID, filter invoicingapp.InvoiceListFilter, w io.Writer) (int, error)
	Update(ctx context.Context, tenantID, invoiceID uuid.UUID, req invoicingapp.UpdateInvoiceRequest) (*invoicingapp.InvoiceResponse, error)
	UpdateStatus(ctx context.Context, tenantID, invoiceID uuid.UUID, rawStatus string) (*invoicingapp.InvoiceResponse, error)
	Mail(ctx context.Context, tenantID, invoiceID uuid.UUID) (*invoicingapp.InvoiceResponse, []string, error)
}

// InvoiceHandler handles invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService InvoiceService
	now            func() time.Time
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, now: time.Now}
}

// Create godoc
// @Summary      Create an invoice
// @Description  With salesOrderId the invoice is materialized from that ACCEPTED order; otherwise customerId and items are required. Stock is taken for every line.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID when no token claim is present"
// @Param        Idempotency-Key header string false "Makes the request safe to retry"
// @Param        request body invoicingapp.CreateInvoiceRequest true "Invoice"
// @Success      201 {object} dto.Response{data=invoicingapp.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req invoicingapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice, "Invoice created successfully")
}

// GetByID godoc
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=invoicingapp.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, invoice, "Invoice fetched successfully", nil)
}

// List godoc
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        status query string false "Status" Enums(PENDING, PAID, OVERDUE, CANCELLED)
// @Param        customerId query string false "Customer ID" format(uuid)
// @Param        startDate query string false "Issued on or after (YYYY-MM-DD)"
// @Param        endDate query string false "Issued on or before (YYYY-MM-DD)"
// @Param        minAmount query int false "Minimum total in minor units"
// @Param        maxAmount query int false "Maximum total in minor units"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Offset" default(0)
// @Success      200 {object} dto.Response{data=[]invoicingapp.InvoiceResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var filter invoicingapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.invoiceService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Export godoc
// @Summary      Export invoices
// @Description  XLSX workbook of the invoices matching the list filters, paging ignored
// @Tags         invoices
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        status query string false "Status" Enums(PENDING, PAID, OVERDUE, CANCELLED)
// @Param        customerId query string false "Customer ID" format(uuid)
// @Param        startDate query string false "Issued on or after (YYYY-MM-DD)"
// @Param        endDate query string false "Issued on or before (YYYY-MM-DD)"
// @Success      200 {file} file
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/export [get]
func (h *InvoiceHandler) Export(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var filter invoicingapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	var buf bytes.Buffer
	rows, err := h.invoiceService.Export(c.Request.Context(), tenantID, filter, &buf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("invoices-%s.xlsx", h.now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("X-Total-Count", strconv.Itoa(rows))
	c.Data(http.StatusOK, XLSXContentType, buf.Bytes())
}

// Update godoc
// @Summary      Update an invoice
// @Description  salesOrderId or items rebalance stock: old lines are returned, new lines taken, in one transaction
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body invoicingapp.UpdateInvoiceRequest true "Patch"
// @Success      200 {object} dto.Response{data=invoicingapp.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id} [patch]
func (h *InvoiceHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "invoice")
	if !ok {
		return
	}

	var req invoicingapp.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), tenantID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, invoice, "Invoice updated successfully", nil)
}

// MarkPaid godoc
// @Summary      Mark an invoice paid
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=invoicingapp.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/status/paid [patch]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	h.updateStatus(c, invoicing.InvoiceStatusPaid, "Invoice marked as paid successfully")
}

// MarkOverdue godoc
// @Summary      Mark an invoice overdue
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=invoicingapp.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/status/overdue [patch]
func (h *InvoiceHandler) MarkOverdue(c *gin.Context) {
	h.updateStatus(c, invoicing.InvoiceStatusOverdue, "Invoice marked as overdue successfully")
}

// Cancel godoc
// @Summary      Cancel an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=invoicingapp.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/status/cancelled [patch]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	h.updateStatus(c, invoicing.InvoiceStatusCancelled, "Invoice cancelled successfully")
}

func (h *InvoiceHandler) updateStatus(c *gin.Context, status invoicing.InvoiceStatus, message string) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.UpdateStatus(c.Request.Context(), tenantID, invoiceID, status.String())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, invoice, message, nil)
}

// Mail godoc
// @Summary      Mail an invoice
// @Description  Sends the invoice PDF to the customer. Delivery problems come back as warnings.
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=invoicingapp.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/mail [post]
func (h *InvoiceHandler) Mail(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "invoice")
	if !ok {
		return
	}

	invoice, warnings, err := h.invoiceService.Mail(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, invoice, "Invoice sent to mail", warnings)
}
