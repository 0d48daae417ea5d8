package persistence

import (
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/application/coordinator"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/numbering"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCounterRepository_NextNumber(t *testing.T) {
	t.Run("each kind starts at one and counts independently", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormCounterRepository(db)
		tenantID := uuid.New()
		ctx := t.Context()

		for want := int64(1); want <= 3; want++ {
			got, err := repo.NextNumber(ctx, tenantID, numbering.KindOrder)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}

		got, err := repo.NextNumber(ctx, tenantID, numbering.KindInvoice)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)

		got, err = repo.NextNumber(ctx, tenantID, numbering.KindOrder)
		require.NoError(t, err)
		assert.Equal(t, int64(4), got)
	})

	t.Run("tenants have separate sequences", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormCounterRepository(db)
		a, b := uuid.New(), uuid.New()

		_, err := repo.NextNumber(t.Context(), a, numbering.KindInvoice)
		require.NoError(t, err)
		_, err = repo.NextNumber(t.Context(), a, numbering.KindInvoice)
		require.NoError(t, err)

		got, err := repo.NextNumber(t.Context(), b, numbering.KindInvoice)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})

	t.Run("rolled back transaction returns its number", func(t *testing.T) {
		db := newTestDB(t)
		scope := NewGormTransactionScope(db)
		tenantID := uuid.New()
		boom := errors.New("document write failed")

		err := scope.Execute(t.Context(), func(repos coordinator.Repositories) error {
			n, err := repos.Counters().NextNumber(t.Context(), tenantID, numbering.KindInvoice)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := NewGormCounterRepository(db).NextNumber(t.Context(), tenantID, numbering.KindInvoice)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})

	t.Run("concurrent callers never share a number", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormCounterRepository(db)
		tenantID := uuid.New()

		const n = 20
		var (
			mu   sync.Mutex
			seen = make(map[int64]bool, n)
			wg   sync.WaitGroup
		)
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := repo.NextNumber(t.Context(), tenantID, numbering.KindOrder)
				assert.NoError(t, err)
				mu.Lock()
				seen[got] = true
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Len(t, seen, n)
		for i := int64(1); i <= n; i++ {
			assert.True(t, seen[i], "missing number %d", i)
		}
	})

	t.Run("rejects unknown kind and nil tenant", func(t *testing.T) {
		repo := NewGormCounterRepository(newTestDB(t))

		_, err := repo.NextNumber(t.Context(), uuid.New(), numbering.DocumentKind("QUOTE"))
		assert.ErrorIs(t, err, shared.ErrValidation)

		_, err = repo.NextNumber(t.Context(), uuid.Nil, numbering.KindOrder)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestGormCounterRepository_NextNumber_SQL(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	tenantID := uuid.New()

	mock.ExpectQuery(`INSERT INTO tenant_counters .+ ON CONFLICT \(tenant_id\) DO UPDATE SET next_invoice_number = tenant_counters.next_invoice_number \+ 1.+RETURNING next_invoice_number`).
		WithArgs(tenantID, int64(1), int64(2), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"next_invoice_number"}).AddRow(8))

	got, err := NewGormCounterRepository(db).NextNumber(t.Context(), tenantID, numbering.KindInvoice)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCounterRepository_AdvancePast(t *testing.T) {
	t.Run("next number follows a chosen number", func(t *testing.T) {
		repo := NewGormCounterRepository(newTestDB(t))
		tenantID := uuid.New()

		require.NoError(t, repo.AdvancePast(t.Context(), tenantID, numbering.KindInvoice, 1))

		got, err := repo.NextNumber(t.Context(), tenantID, numbering.KindInvoice)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got)

		got, err = repo.NextNumber(t.Context(), tenantID, numbering.KindOrder)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got, "other sequences are untouched")
	})

	t.Run("never moves the counter backwards", func(t *testing.T) {
		repo := NewGormCounterRepository(newTestDB(t))
		tenantID := uuid.New()

		require.NoError(t, repo.AdvancePast(t.Context(), tenantID, numbering.KindInvoice, 10))
		require.NoError(t, repo.AdvancePast(t.Context(), tenantID, numbering.KindInvoice, 3))

		got, err := repo.NextNumber(t.Context(), tenantID, numbering.KindInvoice)
		require.NoError(t, err)
		assert.Equal(t, int64(11), got)
	})

	t.Run("rolls back with its transaction", func(t *testing.T) {
		db := newTestDB(t)
		tenantID := uuid.New()
		boom := errors.New("document write failed")

		err := NewGormTransactionScope(db).Execute(t.Context(), func(repos coordinator.Repositories) error {
			require.NoError(t, repos.Counters().AdvancePast(t.Context(), tenantID, numbering.KindInvoice, 5))
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := NewGormCounterRepository(db).NextNumber(t.Context(), tenantID, numbering.KindInvoice)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})

	t.Run("rejects non-positive numbers", func(t *testing.T) {
		repo := NewGormCounterRepository(newTestDB(t))
		err := repo.AdvancePast(t.Context(), uuid.New(), numbering.KindInvoice, 0)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestGormCounterRepository_AdvancePast_SQL(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	tenantID := uuid.New()

	mock.ExpectExec(`INSERT INTO tenant_counters .+ ON CONFLICT \(tenant_id\) DO UPDATE SET next_invoice_number = GREATEST\(tenant_counters.next_invoice_number, excluded.next_invoice_number\)`).
		WithArgs(tenantID, int64(1), int64(8), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewGormCounterRepository(db).AdvancePast(t.Context(), tenantID, numbering.KindInvoice, 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
