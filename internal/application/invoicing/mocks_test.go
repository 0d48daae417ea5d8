package invoicing

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/application/notification"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/numbering"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/partner"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockInvoiceRepository is a mock implementation of InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) LockByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsForSalesOrder(ctx context.Context, tenantID, salesOrderID uuid.UUID, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, salesOrderID, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) List(ctx context.Context, tenantID uuid.UUID, filter invoicing.InvoiceFilter) ([]invoicing.Invoice, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]invoicing.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, inv *invoicing.Invoice) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, inv *invoicing.Invoice) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *MockInvoiceRepository) ReplaceItems(ctx context.Context, inv *invoicing.Invoice) error {
	return m.Called(ctx, inv).Error(0)
}

// MockSalesOrderRepository is a mock implementation of SalesOrderRepository
type MockSalesOrderRepository struct {
	mock.Mock
}

func (m *MockSalesOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.SalesOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) LockByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.SalesOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) List(ctx context.Context, tenantID uuid.UUID, filter sales.OrderFilter) ([]sales.SalesOrder, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]sales.SalesOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockSalesOrderRepository) Create(ctx context.Context, order *sales.SalesOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockSalesOrderRepository) Update(ctx context.Context, order *sales.SalesOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockSalesOrderRepository) ReplaceItems(ctx context.Context, order *sales.SalesOrder) error {
	return m.Called(ctx, order).Error(0)
}

// MockCustomerRepository is a mock implementation of CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

// MockCounterRepository is a mock implementation of CounterRepository
type MockCounterRepository struct {
	mock.Mock
}

func (m *MockCounterRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind) (int64, error) {
	args := m.Called(ctx, tenantID, kind)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounterRepository) AdvancePast(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind, number int64) error {
	return m.Called(ctx, tenantID, kind, number).Error(0)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, doc notification.Document) error {
	return m.Called(ctx, doc).Error(0)
}

// stockRoom is an in-memory inventory that applies relative adjustments
type stockRoom struct {
	mu    sync.Mutex
	items map[uuid.UUID]*inventory.InventoryItem
}

func newStockRoom(items ...*inventory.InventoryItem) *stockRoom {
	r := &stockRoom{items: make(map[uuid.UUID]*inventory.InventoryItem)}
	for _, item := range items {
		r.items[item.ID] = item
	}
	return r
}

func (r *stockRoom) quantity(id uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].Quantity
}

func (r *stockRoom) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.TenantID != tenantID {
		return nil, shared.NewNotFoundError("Inventory item", id)
	}
	cp := *item
	return &cp, nil
}

func (r *stockRoom) FindByIDsForTenant(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.InventoryItem
	for _, id := range ids {
		if item, ok := r.items[id]; ok && item.TenantID == tenantID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *stockRoom) LockByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	return r.FindByIDsForTenant(ctx, tenantID, ids)
}

func (r *stockRoom) AdjustQuantity(_ context.Context, tenantID, id uuid.UUID, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.TenantID != tenantID {
		return shared.NewNotFoundError("Inventory item", id)
	}
	item.Quantity += delta
	return nil
}

func (r *stockRoom) List(context.Context, uuid.UUID, inventory.ItemFilter) ([]inventory.InventoryItem, int64, error) {
	return nil, 0, nil
}

func (r *stockRoom) Save(_ context.Context, item *inventory.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

type recordingWorkbook struct {
	rows int
}

func (w *recordingWorkbook) WriteInvoices(_ context.Context, out io.Writer, invoices []invoicing.Invoice) error {
	w.rows = len(invoices)
	_, err := out.Write([]byte("xlsx"))
	return err
}
