package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/application/coordinator"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newItemService(repo *MockItemRepository) *ItemService {
	scope := coordinator.NewNoOpTransactionScope(coordinator.RepositorySet{ItemRepo: repo})
	return NewItemService(repo, scope, NewLedger(nil), nil)
}

func TestItemService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	rate := decimal.NewFromInt(10)

	repo := new(MockItemRepository)
	repo.On("Save", ctx, mock.AnythingOfType("*inventory.InventoryItem")).Return(nil)

	resp, err := newItemService(repo).Create(ctx, tenantID, CreateItemRequest{
		Name:      "Widget",
		UnitPrice: 1000,
		TaxRate:   &rate,
		Quantity:  5,
	})

	require.NoError(t, err)
	assert.Equal(t, "Widget", resp.Name)
	assert.Equal(t, int64(5), resp.Quantity)
	assert.Equal(t, tenantID, resp.TenantID)
	repo.AssertExpectations(t)
}

func TestItemService_Create_Invalid(t *testing.T) {
	repo := new(MockItemRepository)
	rate := decimal.NewFromInt(101)

	_, err := newItemService(repo).Create(context.Background(), uuid.New(), CreateItemRequest{Name: "W", TaxRate: &rate})

	assert.ErrorIs(t, err, shared.ErrValidation)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestItemService_Update(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	item := stockItem(tenantID, "Old", 7)
	rate := decimal.RequireFromString("5.5")
	item.TaxRate = &rate

	repo := new(MockItemRepository)
	repo.On("FindByIDForTenant", ctx, tenantID, item.ID).Return(&item, nil)
	repo.On("Save", ctx, &item).Return(nil)

	name := "New"
	price := int64(250)
	resp, err := newItemService(repo).Update(ctx, tenantID, item.ID, UpdateItemRequest{Name: &name, UnitPrice: &price, ClearTax: true})

	require.NoError(t, err)
	assert.Equal(t, "New", resp.Name)
	assert.Equal(t, int64(250), resp.UnitPrice)
	assert.Nil(t, resp.TaxRate)
	assert.Equal(t, int64(7), resp.Quantity)
}

func TestItemService_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	tenantID, id := uuid.New(), uuid.New()

	repo := new(MockItemRepository)
	repo.On("FindByIDForTenant", ctx, tenantID, id).Return(nil, shared.NewNotFoundError("Inventory item", id))

	_, err := newItemService(repo).Update(ctx, tenantID, id, UpdateItemRequest{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestItemService_List(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	items := []inventory.InventoryItem{stockItem(tenantID, "A", 1), stockItem(tenantID, "B", 2)}

	repo := new(MockItemRepository)
	repo.On("List", ctx, tenantID, inventory.ItemFilter{Search: "wid", Page: shared.Page{Limit: 20}}).Return(items, int64(2), nil)

	page, err := newItemService(repo).List(ctx, tenantID, ItemListFilter{Search: "wid"})

	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 20, page.Limit)
}

func TestItemService_Restock(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	before := stockItem(tenantID, "X", 2)
	after := before
	after.Quantity = 5

	repo := new(MockItemRepository)
	repo.On("LockByIDsForTenant", ctx, tenantID, []uuid.UUID{before.ID}).Return([]inventory.InventoryItem{before}, nil)
	repo.On("AdjustQuantity", ctx, tenantID, before.ID, int64(3)).Return(nil)
	repo.On("FindByIDForTenant", ctx, tenantID, before.ID).Return(&after, nil)

	resp, err := newItemService(repo).Restock(ctx, tenantID, before.ID, RestockRequest{Quantity: 3})

	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.Quantity)
	repo.AssertExpectations(t)
}
