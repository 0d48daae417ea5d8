package inventory

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
)

// StockLine is a quantity of one inventory item taken or returned by a document
type StockLine struct {
	ItemID   uuid.UUID
	Quantity int64
}

// Shortfall describes an item that cannot cover the requested quantity
type Shortfall struct {
	ItemID    uuid.UUID `json:"itemId"`
	Name      string    `json:"name,omitempty"`
	Requested int64     `json:"requested"`
	Available int64     `json:"available"`
}

// AggregateLines sums quantities per item and returns the lines ordered by
// item id. Locking rows in this order keeps concurrent reservations from
// deadlocking each other.
func AggregateLines(lines []StockLine) []StockLine {
	totals := make(map[uuid.UUID]int64, len(lines))
	for _, l := range lines {
		totals[l.ItemID] += l.Quantity
	}
	out := make([]StockLine, 0, len(totals))
	for id, qty := range totals {
		out = append(out, StockLine{ItemID: id, Quantity: qty})
	}
	sort.Slice(out, func(a, b int) bool {
		return idLess(out[a].ItemID, out[b].ItemID)
	})
	return out
}

// SortIDs orders ids the same way AggregateLines orders its lines
func SortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(a, b int) bool {
		return idLess(ids[a], ids[b])
	})
}

func idLess(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

// ItemIDs returns the distinct item ids referenced by the lines
func ItemIDs(lines []StockLine) []uuid.UUID {
	agg := AggregateLines(lines)
	ids := make([]uuid.UUID, len(agg))
	for i, l := range agg {
		ids[i] = l.ItemID
	}
	return ids
}

// FindShortfalls compares aggregated demand with the given stock snapshot.
// Quantities in returned go back to stock in the same movement and count as
// available. Items missing from the snapshot are not reported here; callers
// resolve unknown ids as not-found before checking stock.
func FindShortfalls(items []InventoryItem, lines []StockLine, returned ...StockLine) []Shortfall {
	byID := make(map[uuid.UUID]*InventoryItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	credit := make(map[uuid.UUID]int64, len(returned))
	for _, l := range returned {
		credit[l.ItemID] += l.Quantity
	}

	var shortfalls []Shortfall
	for _, l := range AggregateLines(lines) {
		item, ok := byID[l.ItemID]
		if !ok {
			continue
		}
		available := item.Quantity + credit[l.ItemID]
		if available < l.Quantity {
			shortfalls = append(shortfalls, Shortfall{
				ItemID:    l.ItemID,
				Name:      item.Name,
				Requested: l.Quantity,
				Available: available,
			})
		}
	}
	return shortfalls
}

// NewShortfallError builds an insufficient stock error naming every shortfall
func NewShortfallError(shortfalls []Shortfall) *shared.DomainError {
	details := make([]shared.ErrorDetail, len(shortfalls))
	for i, s := range shortfalls {
		details[i] = shared.ErrorDetail{
			Field:   s.ItemID.String(),
			Message: fmt.Sprintf("Insufficient stock for item %s: requested %d, available %d", s.label(), s.Requested, s.Available),
			Value:   s,
		}
	}
	return shared.NewInsufficientStockError(details)
}

func (s Shortfall) label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ItemID.String()
}
