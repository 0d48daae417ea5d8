// Package coordinator defines the unit of work that makes stock movements,
// document numbering and document writes commit or roll back together.
package coordinator

import (
	"context"

	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/numbering"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/partner"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
)

// TransactionScope runs a function inside one database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories provides repositories bound to the current transaction.
// All repositories returned share the same underlying transaction.
type Repositories interface {
	Items() inventory.InventoryItemRepository
	Orders() sales.SalesOrderRepository
	Invoices() invoicing.InvoiceRepository
	Counters() numbering.CounterRepository
	Customers() partner.CustomerRepository
}

// RepositorySet is a plain Repositories value
type RepositorySet struct {
	ItemRepo     inventory.InventoryItemRepository
	OrderRepo    sales.SalesOrderRepository
	InvoiceRepo  invoicing.InvoiceRepository
	CounterRepo  numbering.CounterRepository
	CustomerRepo partner.CustomerRepository
}

func (r RepositorySet) Items() inventory.InventoryItemRepository { return r.ItemRepo }
func (r RepositorySet) Orders() sales.SalesOrderRepository       { return r.OrderRepo }
func (r RepositorySet) Invoices() invoicing.InvoiceRepository    { return r.InvoiceRepo }
func (r RepositorySet) Counters() numbering.CounterRepository    { return r.CounterRepo }
func (r RepositorySet) Customers() partner.CustomerRepository    { return r.CustomerRepo }

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing with in-memory or mocked repositories.
type NoOpTransactionScope struct {
	repos RepositorySet
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories.
func NewNoOpTransactionScope(repos RepositorySet) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s.repos)
}

var (
	_ TransactionScope = (*NoOpTransactionScope)(nil)
	_ Repositories     = RepositorySet{}
)
