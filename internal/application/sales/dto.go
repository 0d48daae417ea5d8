package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/pricing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// OrderItemRequest is one requested line. Price and tax rate fall back to
// the inventory catalog when omitted.
type OrderItemRequest struct {
	InventoryItemID uuid.UUID        `json:"inventoryItemId" binding:"required"`
	Quantity        int64            `json:"quantity" binding:"required,gt=0"`
	UnitPrice       *int64           `json:"unitPrice" binding:"omitempty,gte=0"`
	TaxRate         *decimal.Decimal `json:"taxRate" binding:"omitempty,taxrate"`
	HSNOrSACCode    string           `json:"hsnOrSacCode" binding:"max=10"`
}

// CreateSalesOrderRequest represents a request to create a sales order
type CreateSalesOrderRequest struct {
	CustomerID    uuid.UUID          `json:"customerId" binding:"required"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Notes         string             `json:"notes" binding:"max=2000"`
	Terms         string             `json:"terms" binding:"max=2000"`
	PlaceOfSupply string             `json:"placeOfSupply" binding:"max=100"`
}

// UpdateSalesOrderRequest patches a sales order. A non-nil Items replaces
// every line of the order.
type UpdateSalesOrderRequest struct {
	CustomerID    *uuid.UUID         `json:"customerId"`
	Items         []OrderItemRequest `json:"items" binding:"omitempty,min=1,dive"`
	Notes         *string            `json:"notes" binding:"omitempty,max=2000"`
	Terms         *string            `json:"terms" binding:"omitempty,max=2000"`
	PlaceOfSupply *string            `json:"placeOfSupply" binding:"omitempty,max=100"`
}

// UpdateStatusRequest carries the target status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SalesOrderListFilter represents filter options for sales order listing
type SalesOrderListFilter struct {
	Status     string     `form:"status" binding:"omitempty,oneof=PENDING ACCEPTED REJECTED"`
	CustomerID string     `form:"customerId" binding:"omitempty,uuid"`
	StartDate  *time.Time `form:"startDate" time_format:"2006-01-02"`
	EndDate    *time.Time `form:"endDate" time_format:"2006-01-02"`
	Limit      int        `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset     int        `form:"offset" binding:"omitempty,min=0"`
}

// SalesOrderItemResponse represents an order line in API responses
type SalesOrderItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	InventoryItemID uuid.UUID       `json:"inventoryItemId"`
	Quantity        int64           `json:"quantity"`
	UnitPrice       int64           `json:"unitPrice"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	Amount          int64           `json:"amount"`
	TaxAmount       int64           `json:"taxAmount"`
	HSNOrSACCode    string          `json:"hsnOrSacCode,omitempty"`
}

// SalesOrderResponse represents a sales order with its items in API responses
type SalesOrderResponse struct {
	ID            uuid.UUID                `json:"id"`
	TenantID      uuid.UUID                `json:"tenantId"`
	OrderNumber   int64                    `json:"orderNumber"`
	CustomerID    uuid.UUID                `json:"customerId"`
	Status        string                   `json:"status"`
	SubTotal      int64                    `json:"subTotal"`
	TaxAmount     int64                    `json:"taxAmount"`
	Total         int64                    `json:"total"`
	Notes         string                   `json:"notes,omitempty"`
	Terms         string                   `json:"terms,omitempty"`
	PlaceOfSupply string                   `json:"placeOfSupply,omitempty"`
	Items         []SalesOrderItemResponse `json:"items"`
	CreatedAt     time.Time                `json:"createdAt"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

// ToSalesOrderResponse converts a domain order to a response
func ToSalesOrderResponse(o *sales.SalesOrder) SalesOrderResponse {
	items := make([]SalesOrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = SalesOrderItemResponse{
			ID:              item.ID,
			InventoryItemID: item.InventoryItemID,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			TaxRate:         item.TaxRate,
			Amount:          item.Amount,
			TaxAmount:       item.TaxAmount,
			HSNOrSACCode:    item.HSNOrSACCode,
		}
	}
	return SalesOrderResponse{
		ID:            o.ID,
		TenantID:      o.TenantID,
		OrderNumber:   o.OrderNumber,
		CustomerID:    o.CustomerID,
		Status:        o.Status.String(),
		SubTotal:      o.SubTotal,
		TaxAmount:     o.TaxAmount,
		Total:         o.Total,
		Notes:         o.Notes,
		Terms:         o.Terms,
		PlaceOfSupply: o.PlaceOfSupply,
		Items:         items,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// ToSalesOrderResponses converts a slice of domain orders to responses
func ToSalesOrderResponses(orders []sales.SalesOrder) []SalesOrderResponse {
	out := make([]SalesOrderResponse, len(orders))
	for i := range orders {
		out[i] = ToSalesOrderResponse(&orders[i])
	}
	return out
}

func toLineInputs(items []OrderItemRequest) ([]pricing.LineInput, []string) {
	inputs := make([]pricing.LineInput, len(items))
	codes := make([]string, len(items))
	for i, item := range items {
		inputs[i] = pricing.LineInput{
			ItemID:    item.InventoryItemID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			TaxRate:   item.TaxRate,
		}
		codes[i] = item.HSNOrSACCode
	}
	return inputs, codes
}
