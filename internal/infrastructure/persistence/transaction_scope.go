package persistence

import (
	"context"

	"github.com/rsjrcat/invoice-server-main-hd/internal/application/coordinator"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Stock movements, numbering and document writes issued through the
// repositories handed to fn share the transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. An error from fn, or a
// panic, rolls the transaction back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos coordinator.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// NewRepositories binds every repository to db. Called with a transaction
// handle it yields the transactional set; called with the pool it yields
// the repositories used for plain reads.
func NewRepositories(db *gorm.DB) coordinator.RepositorySet {
	return coordinator.RepositorySet{
		ItemRepo:     NewGormInventoryItemRepository(db),
		OrderRepo:    NewGormSalesOrderRepository(db),
		InvoiceRepo:  NewGormInvoiceRepository(db),
		CounterRepo:  NewGormCounterRepository(db),
		CustomerRepo: NewGormCustomerRepository(db),
	}
}

var _ coordinator.TransactionScope = (*GormTransactionScope)(nil)
