package persistence

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormInventoryItemRepository_FindByIDForTenant(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInventoryItemRepository(db)
	tenantID := uuid.New()
	item := seedItem(t, db, tenantID, "Copper wire", 1000, 5)

	t.Run("finds own item", func(t *testing.T) {
		got, err := repo.FindByIDForTenant(t.Context(), tenantID, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "Copper wire", got.Name)
		assert.Equal(t, int64(1000), got.UnitPrice)
		assert.Equal(t, int64(5), got.Quantity)
		require.NotNil(t, got.TaxRate)
		assert.True(t, got.TaxRate.Equal(decimal.NewFromInt(10)))
	})

	t.Run("other tenant gets not found", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(t.Context(), uuid.New(), item.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormInventoryItemRepository_FindByIDsForTenant(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInventoryItemRepository(db)
	tenantID := uuid.New()
	a := seedItem(t, db, tenantID, "Bolt", 10, 100)
	b := seedItem(t, db, tenantID, "Nut", 5, 100)
	foreign := seedItem(t, db, uuid.New(), "Washer", 2, 100)

	items, err := repo.FindByIDsForTenant(t.Context(), tenantID, []uuid.UUID{a.ID, b.ID, foreign.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	empty, err := repo.FindByIDsForTenant(t.Context(), tenantID, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGormInventoryItemRepository_AdjustQuantity(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInventoryItemRepository(db)
	tenantID := uuid.New()
	item := seedItem(t, db, tenantID, "Cable tie", 50, 5)

	require.NoError(t, repo.AdjustQuantity(t.Context(), tenantID, item.ID, -3))
	require.NoError(t, repo.AdjustQuantity(t.Context(), tenantID, item.ID, 10))

	got, err := repo.FindByIDForTenant(t.Context(), tenantID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.Quantity)

	err = repo.AdjustQuantity(t.Context(), uuid.New(), item.ID, 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormInventoryItemRepository_Save(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInventoryItemRepository(db)
	tenantID := uuid.New()
	item := seedItem(t, db, tenantID, "Fuse", 300, 8)

	require.NoError(t, repo.AdjustQuantity(t.Context(), tenantID, item.ID, -2))

	// a stale in-memory quantity must not overwrite the stored one
	require.NoError(t, item.Update("Fuse 10A", "slow blow", 350, nil))
	item.Quantity = 100
	require.NoError(t, repo.Save(t.Context(), item))

	got, err := repo.FindByIDForTenant(t.Context(), tenantID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fuse 10A", got.Name)
	assert.Equal(t, "slow blow", got.Description)
	assert.Equal(t, int64(350), got.UnitPrice)
	assert.Nil(t, got.TaxRate)
	assert.Equal(t, int64(6), got.Quantity)
}

func TestGormInventoryItemRepository_List(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInventoryItemRepository(db)
	tenantID := uuid.New()
	seedItem(t, db, tenantID, "Red paint", 100, 1)
	seedItem(t, db, tenantID, "Blue PAINT", 100, 1)
	seedItem(t, db, tenantID, "Brush", 100, 1)
	seedItem(t, db, uuid.New(), "Paint thinner", 100, 1)

	t.Run("search is case-insensitive and tenant scoped", func(t *testing.T) {
		items, total, err := repo.List(t.Context(), tenantID, inventory.ItemFilter{Search: "paint"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, items, 2)
	})

	t.Run("pages keep the total", func(t *testing.T) {
		items, total, err := repo.List(t.Context(), tenantID, inventory.ItemFilter{Page: shared.Page{Limit: 2, Offset: 2}})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, items, 1)
	})
}

func TestGormInventoryItemRepository_LockByIDsForTenant_SQL(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	tenantID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectQuery(`SELECT \* FROM "inventory_items" WHERE .*tenant_id = \$\d.* ORDER BY id FOR UPDATE`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "unit_price", "quantity"}).
			AddRow(ids[0].String(), tenantID.String(), "Bolt", 10, 4).
			AddRow(ids[1].String(), tenantID.String(), "Nut", 5, 9))

	items, err := NewGormInventoryItemRepository(db).LockByIDsForTenant(t.Context(), tenantID, ids)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(4), items[0].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormInventoryItemRepository_AdjustQuantity_SQL(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	tenantID, id := uuid.New(), uuid.New()

	mock.ExpectExec(`UPDATE "inventory_items" SET "quantity"=quantity \+ \$1,"updated_at"=\$2 WHERE .*tenant_id = .*`).
		WithArgs(int64(-3), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewGormInventoryItemRepository(db).AdjustQuantity(t.Context(), tenantID, id, -3))
	assert.NoError(t, mock.ExpectationsWereMet())
}
