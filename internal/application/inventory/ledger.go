package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"go.uber.org/zap"
)

// RejectionObserver is told about every reservation refused for lack of stock
type RejectionObserver interface {
	StockRejected(ctx context.Context, tenantID uuid.UUID, shortfalls []inventory.Shortfall)
}

// Ledger moves stock in and out of inventory items. Every method works on
// the repository it is given, so callers pass the transaction-bound
// repository of the unit of work the movement belongs to.
type Ledger struct {
	logger   *zap.Logger
	observer RejectionObserver
}

// LedgerOption configures a Ledger
type LedgerOption func(*Ledger)

// WithRejectionObserver reports refused reservations to o
func WithRejectionObserver(o RejectionObserver) LedgerOption {
	return func(l *Ledger) {
		l.observer = o
	}
}

// NewLedger creates a Ledger
func NewLedger(logger *zap.Logger, opts ...LedgerOption) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckAvailability locks the referenced items and returns every item that
// cannot cover its aggregated quantity. Unknown ids fail with NOT_FOUND.
func (l *Ledger) CheckAvailability(ctx context.Context, repo inventory.InventoryItemRepository, tenantID uuid.UUID, lines []inventory.StockLine) ([]inventory.Shortfall, error) {
	agg := inventory.AggregateLines(lines)
	if len(agg) == 0 {
		return nil, nil
	}
	items, err := l.lock(ctx, repo, tenantID, inventory.ItemIDs(agg))
	if err != nil {
		return nil, err
	}
	return inventory.FindShortfalls(items, agg), nil
}

// Reserve takes the quantities out of stock, all or nothing
func (l *Ledger) Reserve(ctx context.Context, repo inventory.InventoryItemRepository, tenantID uuid.UUID, lines []inventory.StockLine) error {
	return l.Rebalance(ctx, repo, tenantID, nil, lines)
}

// Release puts the quantities back into stock
func (l *Ledger) Release(ctx context.Context, repo inventory.InventoryItemRepository, tenantID uuid.UUID, lines []inventory.StockLine) error {
	return l.Rebalance(ctx, repo, tenantID, lines, nil)
}

// Rebalance returns the released quantities and takes the taken ones in a
// single sweep. Each item is locked once, in id order, and adjusted by its
// net change only. A taken item is short when its stock plus what this call
// returns to it cannot cover the request; every such item is reported
// and nothing is adjusted.
func (l *Ledger) Rebalance(ctx context.Context, repo inventory.InventoryItemRepository, tenantID uuid.UUID, released, taken []inventory.StockLine) error {
	net := make(map[uuid.UUID]int64)
	for _, line := range released {
		net[line.ItemID] -= line.Quantity
	}
	for _, line := range taken {
		net[line.ItemID] += line.Quantity
	}
	if len(net) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(net))
	for id := range net {
		ids = append(ids, id)
	}
	inventory.SortIDs(ids)

	items, err := l.lock(ctx, repo, tenantID, ids)
	if err != nil {
		return err
	}
	if shortfalls := inventory.FindShortfalls(items, taken, released...); len(shortfalls) > 0 {
		return l.reject(ctx, tenantID, shortfalls)
	}

	for _, id := range ids {
		delta := net[id]
		if delta == 0 {
			continue
		}
		if err := repo.AdjustQuantity(ctx, tenantID, id, -delta); err != nil {
			return err
		}
	}
	return nil
}

// Restock adds quantity to a single item
func (l *Ledger) Restock(ctx context.Context, repo inventory.InventoryItemRepository, tenantID, itemID uuid.UUID, quantity int64) error {
	if quantity <= 0 {
		return shared.NewValidationError("Restock quantity must be positive",
			shared.ErrorDetail{Field: "quantity", Message: "must be > 0", Value: quantity})
	}
	return l.Release(ctx, repo, tenantID, []inventory.StockLine{{ItemID: itemID, Quantity: quantity}})
}

func (l *Ledger) lock(ctx context.Context, repo inventory.InventoryItemRepository, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	items, err := repo.LockByIDsForTenant(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	if len(items) == len(ids) {
		return items, nil
	}

	found := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		found[item.ID] = struct{}{}
	}
	var missing []shared.ErrorDetail
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, shared.ErrorDetail{Field: "inventoryItemId", Message: "inventory item not found", Value: id})
		}
	}
	nf := shared.NewNotFoundError("One or more inventory items", nil)
	nf.Details = missing
	return nil, nf
}

func (l *Ledger) reject(ctx context.Context, tenantID uuid.UUID, shortfalls []inventory.Shortfall) error {
	l.logger.Info("stock reservation rejected",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("short_items", len(shortfalls)),
	)
	if l.observer != nil {
		l.observer.StockRejected(ctx, tenantID, shortfalls)
	}
	return inventory.NewShortfallError(shortfalls)
}
