// Package pricing computes line amounts, tax and document totals in integer
// minor currency units.
//
// Line tax is amount x taxRate / 100 rounded to the nearest minor unit with
// halves rounded away from zero. Amounts are never negative, so this is
// round-half-up. The intermediate product is computed with decimal arithmetic
// so fractional tax rates such as 12.5 do not drift.
package pricing

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineInput is a requested line. Nil price or rate falls back to the catalog.
type LineInput struct {
	ItemID    uuid.UUID
	Quantity  int64
	UnitPrice *int64
	TaxRate   *decimal.Decimal
}

// CatalogEntry carries the catalog defaults of one inventory item
type CatalogEntry struct {
	UnitPrice int64
	TaxRate   *decimal.Decimal
}

// Line is a fully resolved document line
type Line struct {
	ItemID    uuid.UUID
	Quantity  int64
	UnitPrice int64
	TaxRate   decimal.Decimal
	Amount    int64
	TaxAmount int64
}

// Totals are the document aggregates
type Totals struct {
	SubTotal  int64
	TaxAmount int64
	Total     int64
}

// Result is the output of Calculate
type Result struct {
	Lines []Line
	Totals
}

// Calculate resolves every input line against the catalog and sums the
// totals. Any id absent from the catalog fails the whole calculation.
func Calculate(inputs []LineInput, catalog map[uuid.UUID]CatalogEntry) (*Result, error) {
	if len(inputs) == 0 {
		return nil, shared.NewValidationError("At least one item is required",
			shared.ErrorDetail{Field: "items", Message: "must not be empty"})
	}

	var missing []shared.ErrorDetail
	for _, in := range inputs {
		if _, ok := catalog[in.ItemID]; !ok {
			missing = append(missing, shared.ErrorDetail{
				Field:   "inventoryItemId",
				Message: "inventory item not found",
				Value:   in.ItemID,
			})
		}
	}
	if len(missing) > 0 {
		err := shared.NewNotFoundError("One or more inventory items", nil)
		err.Details = missing
		return nil, err
	}

	lines := make([]Line, 0, len(inputs))
	for i, in := range inputs {
		entry := catalog[in.ItemID]

		unitPrice := entry.UnitPrice
		if in.UnitPrice != nil {
			unitPrice = *in.UnitPrice
		}
		taxRate := decimal.Zero
		switch {
		case in.TaxRate != nil:
			taxRate = *in.TaxRate
		case entry.TaxRate != nil:
			taxRate = *entry.TaxRate
		}

		line, err := NewLine(in.ItemID, in.Quantity, unitPrice, taxRate)
		if err != nil {
			return nil, withLineIndex(err, i)
		}
		lines = append(lines, line)
	}

	return &Result{Lines: lines, Totals: Summarize(lines)}, nil
}

// NewLine validates and prices a single line
func NewLine(itemID uuid.UUID, quantity, unitPrice int64, taxRate decimal.Decimal) (Line, error) {
	if itemID == uuid.Nil {
		return Line{}, shared.NewValidationError("Inventory item ID is required",
			shared.ErrorDetail{Field: "inventoryItemId", Message: "required"})
	}
	if quantity <= 0 {
		return Line{}, shared.NewValidationError("Quantity must be positive",
			shared.ErrorDetail{Field: "quantity", Message: "must be > 0", Value: quantity})
	}
	if unitPrice < 0 {
		return Line{}, shared.NewValidationError("Unit price cannot be negative",
			shared.ErrorDetail{Field: "unitPrice", Message: "must be >= 0", Value: unitPrice})
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(hundred) {
		return Line{}, shared.NewValidationError("Tax rate must be between 0 and 100",
			shared.ErrorDetail{Field: "taxRate", Message: "must be between 0 and 100", Value: taxRate.String()})
	}
	if unitPrice != 0 && quantity > math.MaxInt64/unitPrice {
		return Line{}, shared.NewValidationError("Line amount is too large",
			shared.ErrorDetail{Field: "quantity", Message: "quantity x unitPrice overflows", Value: quantity})
	}

	amount := quantity * unitPrice
	return Line{
		ItemID:    itemID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		TaxRate:   taxRate,
		Amount:    amount,
		TaxAmount: LineTax(amount, taxRate),
	}, nil
}

// LineTax returns round(amount x taxRate / 100), halves away from zero
func LineTax(amount int64, taxRate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(taxRate).Div(hundred).Round(0).IntPart()
}

// Summarize sums already resolved lines
func Summarize(lines []Line) Totals {
	var t Totals
	for _, l := range lines {
		t.SubTotal += l.Amount
		t.TaxAmount += l.TaxAmount
	}
	t.Total = t.SubTotal + t.TaxAmount
	return t
}

func withLineIndex(err error, index int) error {
	de, ok := shared.AsDomainError(err)
	if !ok {
		return err
	}
	cp := *de
	cp.Details = make([]shared.ErrorDetail, len(de.Details))
	for i, d := range de.Details {
		d.Field = fmt.Sprintf("items[%d].%s", index, d.Field)
		cp.Details[i] = d
	}
	return &cp
}
