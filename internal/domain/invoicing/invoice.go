package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/pricing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	// DefaultDueDays is the payment window applied when no due date is given
	DefaultDueDays = 14

	MaxNotesLength = 2000
	MaxTermsLength = 2000
)

// InvoiceStatus represents the payment status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CanTransitionTo forbids only the return to PENDING. Moves among PAID,
// OVERDUE and CANCELLED are not restricted.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	if !target.IsValid() {
		return false
	}
	return !(s != InvoiceStatusPending && target == InvoiceStatusPending)
}

// ParseInvoiceStatus validates a raw status value
func ParseInvoiceStatus(raw string) (InvoiceStatus, error) {
	s := InvoiceStatus(raw)
	if !s.IsValid() {
		return "", shared.NewValidationError("Invalid invoice status",
			shared.ErrorDetail{Field: "status", Message: "must be one of PENDING, PAID, OVERDUE, CANCELLED", Value: raw})
	}
	return s, nil
}

// InvoiceItem represents a billed line
type InvoiceItem struct {
	ID              uuid.UUID
	InvoiceID       uuid.UUID
	InventoryItemID uuid.UUID
	Quantity        int64
	UnitPrice       int64
	TaxRate         decimal.Decimal
	Amount          int64
	TaxAmount       int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Header carries the non-line fields of a new invoice
type Header struct {
	InvoiceNumber int64
	CustomerID    uuid.UUID
	SalesOrderID  *uuid.UUID
	IssueDate     time.Time  // zero means now
	DueDate       *time.Time // nil means IssueDate + due days
	Notes         string
	Terms         string
}

// Patch carries optional scalar updates
type Patch struct {
	CustomerID *uuid.UUID
	DueDate    *time.Time
	Notes      *string
	Terms      *string
}

// Invoice is the aggregate root for invoices
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber int64
	CustomerID    uuid.UUID
	SalesOrderID  *uuid.UUID
	IssueDate     time.Time
	DueDate       time.Time
	Status        InvoiceStatus
	Notes         string
	Terms         string
	SubTotal      int64
	TaxAmount     int64
	Total         int64
	Items         []InvoiceItem
}

// NewInvoice creates a PENDING invoice with the given lines
func NewInvoice(tenantID uuid.UUID, h Header, lines []pricing.Line, dueDays int) (*Invoice, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("Tenant ID is required")
	}
	if h.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("Customer ID is required",
			shared.ErrorDetail{Field: "customerId", Message: "required"})
	}
	if h.InvoiceNumber < 1 {
		return nil, shared.NewValidationError("Invoice number must be positive",
			shared.ErrorDetail{Field: "invoiceNumber", Message: "must be > 0", Value: h.InvoiceNumber})
	}
	if dueDays <= 0 {
		dueDays = DefaultDueDays
	}

	issue := h.IssueDate
	if issue.IsZero() {
		issue = time.Now()
	}
	due := issue.AddDate(0, 0, dueDays)
	if h.DueDate != nil {
		due = *h.DueDate
	}
	if due.Before(issue) {
		return nil, shared.NewValidationError("Due date cannot be before the issue date",
			shared.ErrorDetail{Field: "dueDate", Message: "must not be before issueDate"})
	}
	if err := validateText(h.Notes, h.Terms); err != nil {
		return nil, err
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       h.InvoiceNumber,
		CustomerID:          h.CustomerID,
		SalesOrderID:        h.SalesOrderID,
		IssueDate:           issue,
		DueDate:             due,
		Status:              InvoiceStatusPending,
		Notes:               h.Notes,
		Terms:               h.Terms,
	}
	if err := inv.ReplaceItems(lines); err != nil {
		return nil, err
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// ReplaceItems swaps the item collection and recomputes the stored totals
func (inv *Invoice) ReplaceItems(lines []pricing.Line) error {
	if len(lines) == 0 {
		return shared.NewValidationError("At least one item is required",
			shared.ErrorDetail{Field: "items", Message: "must not be empty"})
	}

	now := time.Now()
	items := make([]InvoiceItem, len(lines))
	for i, l := range lines {
		items[i] = InvoiceItem{
			ID:              uuid.New(),
			InvoiceID:       inv.ID,
			InventoryItemID: l.ItemID,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			TaxRate:         l.TaxRate,
			Amount:          l.Amount,
			TaxAmount:       l.TaxAmount,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}

	totals := pricing.Summarize(lines)
	inv.Items = items
	inv.SubTotal = totals.SubTotal
	inv.TaxAmount = totals.TaxAmount
	inv.Total = totals.Total
	inv.UpdatedAt = now
	return nil
}

// RebindSalesOrder points the invoice at another sales order
func (inv *Invoice) RebindSalesOrder(orderID, customerID uuid.UUID) {
	inv.SalesOrderID = &orderID
	inv.CustomerID = customerID
	inv.UpdatedAt = time.Now()
}

// ApplyPatch updates the provided scalar fields
func (inv *Invoice) ApplyPatch(p Patch) error {
	notes, terms := inv.Notes, inv.Terms
	if p.Notes != nil {
		notes = *p.Notes
	}
	if p.Terms != nil {
		terms = *p.Terms
	}
	if err := validateText(notes, terms); err != nil {
		return err
	}
	if p.DueDate != nil && p.DueDate.Before(inv.IssueDate) {
		return shared.NewValidationError("Due date cannot be before the issue date",
			shared.ErrorDetail{Field: "dueDate", Message: "must not be before issueDate"})
	}
	if p.CustomerID != nil && *p.CustomerID == uuid.Nil {
		return shared.NewValidationError("Customer ID is required",
			shared.ErrorDetail{Field: "customerId", Message: "required"})
	}

	if p.CustomerID != nil {
		inv.CustomerID = *p.CustomerID
	}
	if p.DueDate != nil {
		inv.DueDate = *p.DueDate
	}
	inv.Notes, inv.Terms = notes, terms
	inv.UpdatedAt = time.Now()
	return nil
}

// ChangeStatus moves the invoice to a new status, refusing a return to PENDING
func (inv *Invoice) ChangeStatus(target InvoiceStatus) error {
	if !target.IsValid() {
		return shared.NewValidationError("Invalid invoice status",
			shared.ErrorDetail{Field: "status", Message: "must be one of PENDING, PAID, OVERDUE, CANCELLED", Value: string(target)})
	}
	if !inv.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError(inv.Status.String(), target.String())
	}

	from := inv.Status
	inv.Status = target
	inv.UpdatedAt = time.Now()
	if from != target {
		inv.AddDomainEvent(NewInvoiceStatusChangedEvent(inv, from))
	}
	return nil
}

// StockLines returns the quantities this invoice holds out of stock
func (inv *Invoice) StockLines() []inventory.StockLine {
	lines := make([]inventory.StockLine, len(inv.Items))
	for i, item := range inv.Items {
		lines[i] = inventory.StockLine{ItemID: item.InventoryItemID, Quantity: item.Quantity}
	}
	return lines
}

func validateText(notes, terms string) error {
	var details []shared.ErrorDetail
	if len(notes) > MaxNotesLength {
		details = append(details, shared.ErrorDetail{Field: "notes", Message: "max 2000 characters"})
	}
	if len(terms) > MaxTermsLength {
		details = append(details, shared.ErrorDetail{Field: "terms", Message: "max 2000 characters"})
	}
	if len(details) > 0 {
		return shared.NewValidationError("Invalid invoice details", details...)
	}
	return nil
}
