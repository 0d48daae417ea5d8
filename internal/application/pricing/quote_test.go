package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/pricing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalog struct {
	inventory.InventoryItemRepository
	items []inventory.InventoryItem
	calls [][]uuid.UUID
}

func (c *catalog) FindByIDsForTenant(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	c.calls = append(c.calls, ids)
	var out []inventory.InventoryItem
	for _, item := range c.items {
		if item.TenantID != tenantID {
			continue
		}
		for _, id := range ids {
			if id == item.ID {
				out = append(out, item)
			}
		}
	}
	return out, nil
}

func TestQuote(t *testing.T) {
	tenantID := uuid.New()
	rate := decimal.RequireFromString("12.5")
	item, err := inventory.NewInventoryItem(tenantID, "Cable", "", 400, &rate, 10)
	require.NoError(t, err)
	repo := &catalog{items: []inventory.InventoryItem{*item}}

	override := int64(300)
	result, err := Quote(context.Background(), repo, tenantID, []pricing.LineInput{
		{ItemID: item.ID, Quantity: 1},
		{ItemID: item.ID, Quantity: 2, UnitPrice: &override},
	})

	require.NoError(t, err)
	require.Len(t, repo.calls, 1)
	assert.Len(t, repo.calls[0], 1, "ids are looked up once")
	assert.Equal(t, int64(1000), result.SubTotal)
	// 400 x 12.5% = 50, 600 x 12.5% = 75
	assert.Equal(t, int64(125), result.TaxAmount)
	assert.Equal(t, int64(1125), result.Total)
}

func TestQuote_ForeignTenantItem(t *testing.T) {
	item, err := inventory.NewInventoryItem(uuid.New(), "Cable", "", 400, nil, 10)
	require.NoError(t, err)
	repo := &catalog{items: []inventory.InventoryItem{*item}}

	_, err = Quote(context.Background(), repo, uuid.New(), []pricing.LineInput{{ItemID: item.ID, Quantity: 1}})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestQuote_Empty(t *testing.T) {
	_, err := Quote(context.Background(), &catalog{}, uuid.New(), nil)
	assert.ErrorIs(t, err, shared.ErrValidation)
}
