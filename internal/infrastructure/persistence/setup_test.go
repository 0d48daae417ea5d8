package persistence

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/partner"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/pricing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens a migrated in-memory sqlite database. One connection keeps
// every statement, transactional or not, on the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	d, err := Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	sqlDB, err := d.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = d.Close() })

	require.NoError(t, AutoMigrate(d.DB))
	return d.DB
}

// newMockDB opens GORM over sqlmock with the postgres dialector
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	d, err := Open(postgresDialector(mockDB))
	require.NoError(t, err)
	return d.DB, mock, mockDB
}

func postgresDialector(conn *sql.DB) gorm.Dialector {
	return postgres.New(postgres.Config{
		Conn:       conn,
		DriverName: "postgres",
	})
}

func seedItem(t *testing.T, db *gorm.DB, tenantID uuid.UUID, name string, price int64, quantity int64) *inventory.InventoryItem {
	t.Helper()
	rate := decimal.NewFromInt(10)
	item, err := inventory.NewInventoryItem(tenantID, name, "", price, &rate, quantity)
	require.NoError(t, err)
	require.NoError(t, NewGormInventoryItemRepository(db).Save(t.Context(), item))
	return item
}

func seedCustomer(t *testing.T, db *gorm.DB, tenantID uuid.UUID) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(tenantID, "Acme Traders", "billing@acme.test")
	require.NoError(t, err)
	require.NoError(t, NewGormCustomerRepository(db).Save(t.Context(), c))
	return c
}

func pricedLines(t *testing.T, items ...*inventory.InventoryItem) []pricing.Line {
	t.Helper()
	lines := make([]pricing.Line, len(items))
	for i, item := range items {
		l, err := pricing.NewLine(item.ID, int64(i+1), item.UnitPrice, item.EffectiveTaxRate())
		require.NoError(t, err)
		lines[i] = l
	}
	return lines
}

func newOrder(t *testing.T, tenantID, customerID uuid.UUID, number int64, items ...*inventory.InventoryItem) *sales.SalesOrder {
	t.Helper()
	lines := pricedLines(t, items...)
	order, err := sales.NewSalesOrder(tenantID, customerID, number,
		&pricing.Result{Lines: lines, Totals: pricing.Summarize(lines)}, nil,
		sales.Details{Notes: "deliver to dock 2"})
	require.NoError(t, err)
	return order
}

func newInvoice(t *testing.T, tenantID, customerID uuid.UUID, number int64, issued time.Time, orderID *uuid.UUID, items ...*inventory.InventoryItem) *invoicing.Invoice {
	t.Helper()
	inv, err := invoicing.NewInvoice(tenantID, invoicing.Header{
		InvoiceNumber: number,
		CustomerID:    customerID,
		SalesOrderID:  orderID,
		IssueDate:     issued,
	}, pricedLines(t, items...), invoicing.DefaultDueDays)
	require.NoError(t, err)
	return inv
}
