package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/application/coordinator"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"go.uber.org/zap"
)

// ItemService manages the tenant's inventory catalog
type ItemService struct {
	itemRepo inventory.InventoryItemRepository
	txScope  coordinator.TransactionScope
	ledger   *Ledger
	logger   *zap.Logger
}

// NewItemService creates a new ItemService
func NewItemService(
	itemRepo inventory.InventoryItemRepository,
	txScope coordinator.TransactionScope,
	ledger *Ledger,
	logger *zap.Logger,
) *ItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemService{
		itemRepo: itemRepo,
		txScope:  txScope,
		ledger:   ledger,
		logger:   logger,
	}
}

// Create creates a new inventory item with its opening stock
func (s *ItemService) Create(ctx context.Context, tenantID uuid.UUID, req CreateItemRequest) (*ItemResponse, error) {
	item, err := inventory.NewInventoryItem(tenantID, req.Name, req.Description, req.UnitPrice, req.TaxRate, req.Quantity)
	if err != nil {
		return nil, err
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("inventory item created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("item_id", item.ID.String()),
	)
	resp := ToItemResponse(item)
	return &resp, nil
}

// GetByID retrieves an inventory item
func (s *ItemService) GetByID(ctx context.Context, tenantID, itemID uuid.UUID) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByIDForTenant(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// List returns a page of items, newest first. A non-empty search matches
// name or description case-insensitively.
func (s *ItemService) List(ctx context.Context, tenantID uuid.UUID, filter ItemListFilter) (shared.Paginated[ItemResponse], error) {
	page := shared.Page{Limit: filter.Limit, Offset: filter.Offset}.Normalize()
	items, total, err := s.itemRepo.List(ctx, tenantID, inventory.ItemFilter{Search: filter.Search, Page: page})
	if err != nil {
		return shared.Paginated[ItemResponse]{}, err
	}
	return shared.NewPaginated(ToItemResponses(items), total, page), nil
}

// Update replaces the provided catalog fields
func (s *ItemService) Update(ctx context.Context, tenantID, itemID uuid.UUID, req UpdateItemRequest) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByIDForTenant(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}

	name, description, unitPrice, taxRate := item.Name, item.Description, item.UnitPrice, item.TaxRate
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.UnitPrice != nil {
		unitPrice = *req.UnitPrice
	}
	switch {
	case req.ClearTax:
		taxRate = nil
	case req.TaxRate != nil:
		taxRate = req.TaxRate
	}

	if err := item.Update(name, description, unitPrice, taxRate); err != nil {
		return nil, err
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// Restock adds stock to an item and returns the item as stored afterwards
func (s *ItemService) Restock(ctx context.Context, tenantID, itemID uuid.UUID, req RestockRequest) (*ItemResponse, error) {
	var item *inventory.InventoryItem
	err := s.txScope.Execute(ctx, func(repos coordinator.Repositories) error {
		if err := s.ledger.Restock(ctx, repos.Items(), tenantID, itemID, req.Quantity); err != nil {
			return err
		}
		var err error
		item, err = repos.Items().FindByIDForTenant(ctx, tenantID, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("inventory item restocked",
		zap.String("tenant_id", tenantID.String()),
		zap.String("item_id", itemID.String()),
		zap.Int64("quantity", req.Quantity),
	)
	resp := ToItemResponse(item)
	return &resp, nil
}
