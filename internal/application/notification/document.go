// Package notification mails sales orders and invoices to their customers
// after the document state has been committed.
package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// Kind identifies the document type being sent
type Kind string

const (
	KindSalesOrder Kind = "SALES_ORDER"
	KindInvoice    Kind = "INVOICE"
)

// Label returns the human readable document type
func (k Kind) Label() string {
	if k == KindInvoice {
		return "Invoice"
	}
	return "Sales order"
}

// Line is a document line as shown to the customer
type Line struct {
	ItemID       uuid.UUID
	Name         string
	HSNOrSACCode string
	Quantity     int64
	UnitPrice    int64
	TaxRate      decimal.Decimal
	Amount       int64
	TaxAmount    int64
}

// Document is the mailable view of a sales order or invoice
type Document struct {
	Kind          Kind
	TenantID      uuid.UUID
	ID            uuid.UUID
	Number        int64
	CustomerID    uuid.UUID
	Status        string
	IssueDate     time.Time
	DueDate       *time.Time
	Notes         string
	Terms         string
	PlaceOfSupply string
	Lines         []Line
	SubTotal      int64
	TaxAmount     int64
	Total         int64

	// Message is the headline of the mail, e.g. a status change notice
	Message string
}

// Title returns e.g. "Invoice #12"
func (d Document) Title() string {
	return fmt.Sprintf("%s #%d", d.Kind.Label(), d.Number)
}

// FileName returns the attachment name of the rendered PDF
func (d Document) FileName() string {
	return fmt.Sprintf("%s-%d.pdf", strings.ToLower(strings.ReplaceAll(string(d.Kind), "_", "-")), d.Number)
}

// FromSalesOrder builds the document view of a sales order
func FromSalesOrder(o *sales.SalesOrder) Document {
	lines := make([]Line, len(o.Items))
	for i, item := range o.Items {
		lines[i] = Line{
			ItemID:       item.InventoryItemID,
			HSNOrSACCode: item.HSNOrSACCode,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			TaxRate:      item.TaxRate,
			Amount:       item.Amount,
			TaxAmount:    item.TaxAmount,
		}
	}
	return Document{
		Kind:          KindSalesOrder,
		TenantID:      o.TenantID,
		ID:            o.ID,
		Number:        o.OrderNumber,
		CustomerID:    o.CustomerID,
		Status:        o.Status.String(),
		IssueDate:     o.CreatedAt,
		Notes:         o.Notes,
		Terms:         o.Terms,
		PlaceOfSupply: o.PlaceOfSupply,
		Lines:         lines,
		SubTotal:      o.SubTotal,
		TaxAmount:     o.TaxAmount,
		Total:         o.Total,
	}
}

// FromInvoice builds the document view of an invoice
func FromInvoice(inv *invoicing.Invoice) Document {
	lines := make([]Line, len(inv.Items))
	for i, item := range inv.Items {
		lines[i] = Line{
			ItemID:    item.InventoryItemID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			TaxRate:   item.TaxRate,
			Amount:    item.Amount,
			TaxAmount: item.TaxAmount,
		}
	}
	due := inv.DueDate
	return Document{
		Kind:       KindInvoice,
		TenantID:   inv.TenantID,
		ID:         inv.ID,
		Number:     inv.InvoiceNumber,
		CustomerID: inv.CustomerID,
		Status:     inv.Status.String(),
		IssueDate:  inv.IssueDate,
		DueDate:    &due,
		Notes:      inv.Notes,
		Terms:      inv.Terms,
		Lines:      lines,
		SubTotal:   inv.SubTotal,
		TaxAmount:  inv.TaxAmount,
		Total:      inv.Total,
	}
}

// SalesOrderStatusMessage describes a sales order status change
func SalesOrderStatusMessage(number int64, status sales.OrderStatus) string {
	action := "updated"
	switch status {
	case sales.OrderStatusAccepted:
		action = "accepted"
	case sales.OrderStatusRejected:
		action = "rejected"
	}
	return fmt.Sprintf("Sales order #%d has been %s", number, action)
}

// InvoiceStatusMessage describes an invoice status change
func InvoiceStatusMessage(number int64, status invoicing.InvoiceStatus) string {
	action := "updated"
	switch status {
	case invoicing.InvoiceStatusPaid:
		action = "marked as paid"
	case invoicing.InvoiceStatusOverdue:
		action = "marked as overdue"
	case invoicing.InvoiceStatusCancelled:
		action = "cancelled"
	}
	return fmt.Sprintf("Invoice #%d has been %s", number, action)
}
