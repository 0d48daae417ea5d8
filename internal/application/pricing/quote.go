// Package pricing resolves requested document lines against the tenant's
// inventory catalog and prices them.
package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/pricing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
)

// Quote loads every referenced item in one batch and prices the lines.
// A line referencing an item the tenant does not own fails the whole quote.
func Quote(ctx context.Context, items inventory.InventoryItemRepository, tenantID uuid.UUID, inputs []pricing.LineInput) (*pricing.Result, error) {
	if len(inputs) == 0 {
		return nil, shared.NewValidationError("At least one item is required",
			shared.ErrorDetail{Field: "items", Message: "must not be empty"})
	}

	ids := make([]uuid.UUID, 0, len(inputs))
	seen := make(map[uuid.UUID]struct{}, len(inputs))
	for _, in := range inputs {
		if _, ok := seen[in.ItemID]; ok {
			continue
		}
		seen[in.ItemID] = struct{}{}
		ids = append(ids, in.ItemID)
	}

	found, err := items.FindByIDsForTenant(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	catalog := make(map[uuid.UUID]pricing.CatalogEntry, len(found))
	for _, item := range found {
		catalog[item.ID] = pricing.CatalogEntry{UnitPrice: item.UnitPrice, TaxRate: item.TaxRate}
	}
	return pricing.Calculate(inputs, catalog)
}
