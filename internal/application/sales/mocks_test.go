package sales

import (
	"context"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/application/notification"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/numbering"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/partner"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

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
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
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

// catalogRepository serves FindByIDsForTenant from a fixed item set
type catalogRepository struct {
	inventory.InventoryItemRepository
	items map[uuid.UUID]inventory.InventoryItem
}

func (c catalogRepository) FindByIDsForTenant(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	var out []inventory.InventoryItem
	for _, id := range ids {
		if item, ok := c.items[id]; ok && item.TenantID == tenantID {
			out = append(out, item)
		}
	}
	return out, nil
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, doc notification.Document) error {
	return m.Called(ctx, doc).Error(0)
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}
