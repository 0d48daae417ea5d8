package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	Status     *InvoiceStatus
	CustomerID *uuid.UUID
	From       *time.Time // issue date lower bound, inclusive
	To         *time.Time // issue date upper bound, inclusive
	MinAmount  *int64     // total lower bound
	MaxAmount  *int64     // total upper bound
	Page       shared.Page
}

// InvoiceRepository defines the persistence contract for invoices.
// Loaded invoices always include their items.
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// LockByIDForTenant loads the invoice with a row lock held until the
	// enclosing transaction ends
	LockByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// ExistsForSalesOrder reports whether an invoice other than excludeID
	// references the sales order
	ExistsForSalesOrder(ctx context.Context, tenantID, salesOrderID uuid.UUID, excludeID *uuid.UUID) (bool, error)

	List(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, int64, error)

	// Create inserts the invoice and its items
	Create(ctx context.Context, inv *Invoice) error

	// Update writes the invoice header
	Update(ctx context.Context, inv *Invoice) error

	// ReplaceItems deletes every stored item of the invoice and inserts inv.Items
	ReplaceItems(ctx context.Context, inv *Invoice) error
}
