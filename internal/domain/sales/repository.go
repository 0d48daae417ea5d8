package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
)

// OrderFilter narrows sales order listings
type OrderFilter struct {
	Status     *OrderStatus
	CustomerID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Page       shared.Page
}

// SalesOrderRepository defines the persistence contract for sales orders.
// Loaded orders always include their items.
type SalesOrderRepository interface {
	// FindByIDForTenant finds an order with items within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SalesOrder, error)

	// LockByIDForTenant loads the order with a row lock held until the
	// enclosing transaction ends
	LockByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SalesOrder, error)

	// List returns a page of orders, newest first, with the total count
	List(ctx context.Context, tenantID uuid.UUID, filter OrderFilter) ([]SalesOrder, int64, error)

	// Create inserts the order and its items
	Create(ctx context.Context, order *SalesOrder) error

	// Update writes the order header (status, totals, text fields)
	Update(ctx context.Context, order *SalesOrder) error

	// ReplaceItems deletes every stored item of the order and inserts order.Items
	ReplaceItems(ctx context.Context, order *SalesOrder) error
}
