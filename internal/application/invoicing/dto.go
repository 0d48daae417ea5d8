package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// InvoiceItemRequest is one requested line of a standalone invoice
type InvoiceItemRequest struct {
	InventoryItemID uuid.UUID        `json:"inventoryItemId" binding:"required"`
	Quantity        int64            `json:"quantity" binding:"required,gt=0"`
	UnitPrice       *int64           `json:"unitPrice" binding:"omitempty,gte=0"`
	TaxRate         *decimal.Decimal `json:"taxRate" binding:"omitempty,taxrate"`
}

// CreateInvoiceRequest creates an invoice. With SalesOrderID the invoice is
// materialized from that order and CustomerID and Items are ignored;
// otherwise both are required.
type CreateInvoiceRequest struct {
	SalesOrderID  *uuid.UUID           `json:"salesOrderId"`
	CustomerID    *uuid.UUID           `json:"customerId"`
	InvoiceNumber *int64               `json:"invoiceNumber" binding:"omitempty,gt=0"`
	IssueDate     *time.Time           `json:"issueDate"`
	DueDate       *time.Time           `json:"dueDate"`
	Items         []InvoiceItemRequest `json:"items" binding:"omitempty,dive"`
	Notes         *string              `json:"notes" binding:"omitempty,max=2000"`
	Terms         *string              `json:"terms" binding:"omitempty,max=2000"`
}

// UpdateInvoiceRequest patches an invoice. SalesOrderID takes precedence
// over Items; both move stock. The remaining fields are plain updates.
type UpdateInvoiceRequest struct {
	SalesOrderID *uuid.UUID           `json:"salesOrderId"`
	Items        []InvoiceItemRequest `json:"items" binding:"omitempty,min=1,dive"`
	CustomerID   *uuid.UUID           `json:"customerId"`
	DueDate      *time.Time           `json:"dueDate"`
	Notes        *string              `json:"notes" binding:"omitempty,max=2000"`
	Terms        *string              `json:"terms" binding:"omitempty,max=2000"`
}

// UpdateStatusRequest carries the target status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// InvoiceListFilter represents filter options for invoice listing and export
type InvoiceListFilter struct {
	Status     string     `form:"status" binding:"omitempty,oneof=PENDING PAID OVERDUE CANCELLED"`
	CustomerID string     `form:"customerId" binding:"omitempty,uuid"`
	StartDate  *time.Time `form:"startDate" time_format:"2006-01-02"`
	EndDate    *time.Time `form:"endDate" time_format:"2006-01-02"`
	MinAmount  *int64     `form:"minAmount" binding:"omitempty,gte=0"`
	MaxAmount  *int64     `form:"maxAmount" binding:"omitempty,gte=0"`
	Limit      int        `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset     int        `form:"offset" binding:"omitempty,min=0"`
}

// InvoiceItemResponse represents an invoice line in API responses
type InvoiceItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	InventoryItemID uuid.UUID       `json:"inventoryItemId"`
	Quantity        int64           `json:"quantity"`
	UnitPrice       int64           `json:"unitPrice"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	Amount          int64           `json:"amount"`
	TaxAmount       int64           `json:"taxAmount"`
}

// InvoiceResponse represents an invoice with its items in API responses
type InvoiceResponse struct {
	ID            uuid.UUID             `json:"id"`
	TenantID      uuid.UUID             `json:"tenantId"`
	InvoiceNumber int64                 `json:"invoiceNumber"`
	CustomerID    uuid.UUID             `json:"customerId"`
	SalesOrderID  *uuid.UUID            `json:"salesOrderId,omitempty"`
	IssueDate     time.Time             `json:"issueDate"`
	DueDate       time.Time             `json:"dueDate"`
	Status        string                `json:"status"`
	Notes         string                `json:"notes,omitempty"`
	Terms         string                `json:"terms,omitempty"`
	SubTotal      int64                 `json:"subTotal"`
	TaxAmount     int64                 `json:"taxAmount"`
	Total         int64                 `json:"total"`
	Items         []InvoiceItemResponse `json:"items"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

// ToInvoiceResponse converts a domain invoice to a response
func ToInvoiceResponse(inv *invoicing.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = InvoiceItemResponse{
			ID:              item.ID,
			InventoryItemID: item.InventoryItemID,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			TaxRate:         item.TaxRate,
			Amount:          item.Amount,
			TaxAmount:       item.TaxAmount,
		}
	}
	return InvoiceResponse{
		ID:            inv.ID,
		TenantID:      inv.TenantID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		SalesOrderID:  inv.SalesOrderID,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Status:        inv.Status.String(),
		Notes:         inv.Notes,
		Terms:         inv.Terms,
		SubTotal:      inv.SubTotal,
		TaxAmount:     inv.TaxAmount,
		Total:         inv.Total,
		Items:         items,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

// ToInvoiceResponses converts a slice of domain invoices to responses
func ToInvoiceResponses(invoices []invoicing.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i])
	}
	return out
}

func toLineInputs(items []InvoiceItemRequest) []pricing.LineInput {
	inputs := make([]pricing.LineInput, len(items))
	for i, item := range items {
		inputs[i] = pricing.LineInput{
			ItemID:    item.InventoryItemID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			TaxRate:   item.TaxRate,
		}
	}
	return inputs
}
