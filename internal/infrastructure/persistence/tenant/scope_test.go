package tenant

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type scopedRow struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null"`
	Name     string
}

func setupScopeTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&scopedRow{}))
	return db
}

func TestScope(t *testing.T) {
	db := setupScopeTestDB(t)
	tenantA, tenantB := uuid.New(), uuid.New()
	require.NoError(t, db.Create(&[]scopedRow{
		{ID: uuid.New(), TenantID: tenantA, Name: "a1"},
		{ID: uuid.New(), TenantID: tenantA, Name: "a2"},
		{ID: uuid.New(), TenantID: tenantB, Name: "b1"},
	}).Error)

	t.Run("filters by tenant", func(t *testing.T) {
		var rows []scopedRow
		require.NoError(t, db.Scopes(Scope(tenantA)).Find(&rows).Error)
		assert.Len(t, rows, 2)
		for _, r := range rows {
			assert.Equal(t, tenantA, r.TenantID)
		}
	})

	t.Run("unknown tenant sees nothing", func(t *testing.T) {
		var rows []scopedRow
		require.NoError(t, db.Scopes(Scope(uuid.New())).Find(&rows).Error)
		assert.Empty(t, rows)
	})

	t.Run("nil tenant fails the statement", func(t *testing.T) {
		var rows []scopedRow
		err := db.Scopes(Scope(uuid.Nil)).Find(&rows).Error
		assert.ErrorIs(t, err, ErrTenantIDRequired)
	})

	t.Run("qualified column", func(t *testing.T) {
		var count int64
		require.NoError(t, db.Model(&scopedRow{}).Scopes(ScopeColumn("scoped_rows.tenant_id", tenantB)).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}
