package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// CreateItemRequest represents a request to create an inventory item
type CreateItemRequest struct {
	Name        string           `json:"name" binding:"required,min=1,max=255"`
	Description string           `json:"description" binding:"max=1000"`
	UnitPrice   int64            `json:"unitPrice" binding:"gte=0"`
	TaxRate     *decimal.Decimal `json:"taxRate" binding:"omitempty,taxrate"`
	Quantity    int64            `json:"quantity" binding:"gte=0"`
}

// UpdateItemRequest represents a request to update the catalog fields of an item.
// Quantity is not patchable; stock only moves through documents and restocks.
type UpdateItemRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string          `json:"description" binding:"omitempty,max=1000"`
	UnitPrice   *int64           `json:"unitPrice" binding:"omitempty,gte=0"`
	TaxRate     *decimal.Decimal `json:"taxRate" binding:"omitempty,taxrate"`
	ClearTax    bool             `json:"clearTaxRate"`
}

// RestockRequest adds stock to an item
type RestockRequest struct {
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

// ItemListFilter represents filter options for item listing and search
type ItemListFilter struct {
	Search string `form:"search" binding:"max=255"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

// ItemResponse represents an inventory item in API responses
type ItemResponse struct {
	ID          uuid.UUID        `json:"id"`
	TenantID    uuid.UUID        `json:"tenantId"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	UnitPrice   int64            `json:"unitPrice"`
	TaxRate     *decimal.Decimal `json:"taxRate,omitempty"`
	Quantity    int64            `json:"quantity"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// ToItemResponse converts a domain item to a response
func ToItemResponse(item *inventory.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		TenantID:    item.TenantID,
		Name:        item.Name,
		Description: item.Description,
		UnitPrice:   item.UnitPrice,
		TaxRate:     item.TaxRate,
		Quantity:    item.Quantity,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

// ToItemResponses converts a slice of domain items
func ToItemResponses(items []inventory.InventoryItem) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i := range items {
		out[i] = ToItemResponse(&items[i])
	}
	return out
}
