package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
)

// ItemFilter narrows item listings
type ItemFilter struct {
	Search string
	Page   shared.Page
}

// InventoryItemRepository defines the persistence contract for inventory items.
// Every method is tenant scoped.
type InventoryItemRepository interface {
	// FindByIDForTenant finds an inventory item by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*InventoryItem, error)

	// FindByIDsForTenant loads all given items in one query. Missing ids are
	// simply absent from the result.
	FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]InventoryItem, error)

	// LockByIDsForTenant loads the items with row locks held until the
	// enclosing transaction ends, ordered by id.
	LockByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]InventoryItem, error)

	// AdjustQuantity applies a relative change (quantity = quantity + delta)
	AdjustQuantity(ctx context.Context, tenantID, id uuid.UUID, delta int64) error

	// List returns a page of items, newest first, with the total count
	List(ctx context.Context, tenantID uuid.UUID, filter ItemFilter) ([]InventoryItem, int64, error)

	// Save creates or updates the catalog fields of an item
	Save(ctx context.Context, item *InventoryItem) error
}
