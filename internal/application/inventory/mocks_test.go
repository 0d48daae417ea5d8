package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/stretchr/testify/mock"
)

// MockItemRepository is a mock implementation of InventoryItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryItem, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) LockByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) AdjustQuantity(ctx context.Context, tenantID, id uuid.UUID, delta int64) error {
	args := m.Called(ctx, tenantID, id, delta)
	return args.Error(0)
}

func (m *MockItemRepository) List(ctx context.Context, tenantID uuid.UUID, filter inventory.ItemFilter) ([]inventory.InventoryItem, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]inventory.InventoryItem), args.Get(1).(int64), args.Error(2)
}

func (m *MockItemRepository) Save(ctx context.Context, item *inventory.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

type recordingObserver struct {
	calls [][]inventory.Shortfall
}

func (o *recordingObserver) StockRejected(_ context.Context, _ uuid.UUID, shortfalls []inventory.Shortfall) {
	o.calls = append(o.calls, shortfalls)
}
