// Package testutil provides helpers shared by the integration tests: an
// in-memory database, fixtures, an HTTP client for the API envelope and an
// event recorder.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/partner"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

// NewSQLiteDB opens a migrated in-memory sqlite database. A single
// connection keeps every statement on the same in-memory database.
func NewSQLiteDB(t *testing.T) *persistence.Database {
	t.Helper()

	db, err := persistence.Open(sqlite.Open(":memory:"))
	require.NoError(t, err, "Failed to open sqlite database")
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, persistence.AutoMigrate(db.DB), "Failed to migrate sqlite database")
	return db
}

// SeedCustomer stores a customer for tenantID. Customers have no API of
// their own, so tests create them through the repository.
func SeedCustomer(t *testing.T, db *persistence.Database, tenantID uuid.UUID, name, email string) *partner.Customer {
	t.Helper()

	customer, err := partner.NewCustomer(tenantID, name, email)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCustomerRepository(db.DB).Save(t.Context(), customer))
	return customer
}

// WaitForCondition polls condition until it holds or timeout elapses.
// It reports whether the condition was met.
func WaitForCondition(t *testing.T, condition func() bool, timeout, interval time.Duration) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return condition()
}
