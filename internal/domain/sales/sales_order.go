package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/pricing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	MaxNotesLength         = 2000
	MaxTermsLength         = 2000
	MaxPlaceOfSupplyLength = 100
	MaxHSNOrSACCodeLength  = 10
)

// OrderStatus represents the status of a sales order
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusAccepted OrderStatus = "ACCEPTED"
	OrderStatusRejected OrderStatus = "REJECTED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Only the return to PENDING is forbidden; moves between ACCEPTED and
// REJECTED are left open.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if !target.IsValid() {
		return false
	}
	return !(s != OrderStatusPending && target == OrderStatusPending)
}

// ParseOrderStatus validates a raw status value
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(raw)
	if !s.IsValid() {
		return "", shared.NewValidationError("Invalid sales order status",
			shared.ErrorDetail{Field: "status", Message: "must be one of PENDING, ACCEPTED, REJECTED", Value: raw})
	}
	return s, nil
}

// SalesOrderItem represents a line item in a sales order
type SalesOrderItem struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	InventoryItemID uuid.UUID
	Quantity        int64
	UnitPrice       int64
	TaxRate         decimal.Decimal
	Amount          int64 // Quantity * UnitPrice
	TaxAmount       int64
	HSNOrSACCode    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Details holds the free-text fields of an order
type Details struct {
	Notes         string
	Terms         string
	PlaceOfSupply string
}

// DetailsPatch carries optional updates of the free-text fields
type DetailsPatch struct {
	CustomerID    *uuid.UUID
	Notes         *string
	Terms         *string
	PlaceOfSupply *string
}

// SalesOrder is the aggregate root for sales orders
type SalesOrder struct {
	shared.TenantAggregateRoot
	OrderNumber   int64
	CustomerID    uuid.UUID
	Status        OrderStatus
	SubTotal      int64
	TaxAmount     int64
	Total         int64
	Notes         string
	Terms         string
	PlaceOfSupply string
	Items         []SalesOrderItem
}

// NewSalesOrder creates a PENDING order from priced lines. codes holds the
// optional HSN/SAC code of each line by position.
func NewSalesOrder(tenantID, customerID uuid.UUID, orderNumber int64, priced *pricing.Result, codes []string, details Details) (*SalesOrder, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("Tenant ID is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("Customer ID is required",
			shared.ErrorDetail{Field: "customerId", Message: "required"})
	}
	if orderNumber < 1 {
		return nil, shared.NewValidationError("Order number must be positive")
	}
	if err := validateDetails(details); err != nil {
		return nil, err
	}

	order := &SalesOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		CustomerID:          customerID,
		Status:              OrderStatusPending,
		Notes:               details.Notes,
		Terms:               details.Terms,
		PlaceOfSupply:       details.PlaceOfSupply,
	}
	if err := order.ReplaceItems(priced, codes); err != nil {
		return nil, err
	}

	order.AddDomainEvent(NewSalesOrderCreatedEvent(order))
	return order, nil
}

// ReplaceItems swaps the whole item collection and recomputes the totals
func (o *SalesOrder) ReplaceItems(priced *pricing.Result, codes []string) error {
	if priced == nil || len(priced.Lines) == 0 {
		return shared.NewValidationError("At least one item is required",
			shared.ErrorDetail{Field: "items", Message: "must not be empty"})
	}

	now := time.Now()
	items := make([]SalesOrderItem, len(priced.Lines))
	for i, l := range priced.Lines {
		code := ""
		if i < len(codes) {
			code = codes[i]
		}
		if len(code) > MaxHSNOrSACCodeLength {
			return shared.NewValidationError("HSN/SAC code is too long",
				shared.ErrorDetail{Field: "hsnOrSacCode", Message: "max 10 characters", Value: code})
		}
		items[i] = SalesOrderItem{
			ID:              uuid.New(),
			OrderID:         o.ID,
			InventoryItemID: l.ItemID,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			TaxRate:         l.TaxRate,
			Amount:          l.Amount,
			TaxAmount:       l.TaxAmount,
			HSNOrSACCode:    code,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}

	o.Items = items
	o.SubTotal = priced.SubTotal
	o.TaxAmount = priced.TaxAmount
	o.Total = priced.Total
	o.UpdatedAt = now
	return nil
}

// ApplyPatch updates the provided scalar fields
func (o *SalesOrder) ApplyPatch(p DetailsPatch) error {
	next := Details{Notes: o.Notes, Terms: o.Terms, PlaceOfSupply: o.PlaceOfSupply}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}
	if p.Terms != nil {
		next.Terms = *p.Terms
	}
	if p.PlaceOfSupply != nil {
		next.PlaceOfSupply = *p.PlaceOfSupply
	}
	if err := validateDetails(next); err != nil {
		return err
	}
	if p.CustomerID != nil {
		if *p.CustomerID == uuid.Nil {
			return shared.NewValidationError("Customer ID is required",
				shared.ErrorDetail{Field: "customerId", Message: "required"})
		}
		o.CustomerID = *p.CustomerID
	}

	o.Notes, o.Terms, o.PlaceOfSupply = next.Notes, next.Terms, next.PlaceOfSupply
	o.UpdatedAt = time.Now()
	return nil
}

// ChangeStatus moves the order to a new status, refusing a return to PENDING
func (o *SalesOrder) ChangeStatus(target OrderStatus) error {
	if !target.IsValid() {
		return shared.NewValidationError("Invalid sales order status",
			shared.ErrorDetail{Field: "status", Message: "must be one of PENDING, ACCEPTED, REJECTED", Value: string(target)})
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError(o.Status.String(), target.String())
	}

	from := o.Status
	o.Status = target
	o.UpdatedAt = time.Now()
	if from != target {
		o.AddDomainEvent(NewSalesOrderStatusChangedEvent(o, from))
	}
	return nil
}

// IsAccepted reports whether the order can be invoiced
func (o *SalesOrder) IsAccepted() bool {
	return o.Status == OrderStatusAccepted
}

// StockLines returns the quantities an invoice of this order takes from stock
func (o *SalesOrder) StockLines() []inventory.StockLine {
	lines := make([]inventory.StockLine, len(o.Items))
	for i, item := range o.Items {
		lines[i] = inventory.StockLine{ItemID: item.InventoryItemID, Quantity: item.Quantity}
	}
	return lines
}

// PricedLines returns the order lines exactly as priced when the order was
// written, for copying onto an invoice without recalculation.
func (o *SalesOrder) PricedLines() []pricing.Line {
	lines := make([]pricing.Line, len(o.Items))
	for i, item := range o.Items {
		lines[i] = pricing.Line{
			ItemID:    item.InventoryItemID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			TaxRate:   item.TaxRate,
			Amount:    item.Amount,
			TaxAmount: item.TaxAmount,
		}
	}
	return lines
}

func validateDetails(d Details) error {
	var details []shared.ErrorDetail
	if len(d.Notes) > MaxNotesLength {
		details = append(details, shared.ErrorDetail{Field: "notes", Message: "max 2000 characters"})
	}
	if len(d.Terms) > MaxTermsLength {
		details = append(details, shared.ErrorDetail{Field: "terms", Message: "max 2000 characters"})
	}
	if len(d.PlaceOfSupply) > MaxPlaceOfSupplyLength {
		details = append(details, shared.ErrorDetail{Field: "placeOfSupply", Message: "max 100 characters"})
	}
	if len(details) > 0 {
		return shared.NewValidationError("Invalid sales order details", details...)
	}
	return nil
}
