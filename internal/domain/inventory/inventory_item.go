package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	maxNameLength        = 255
	maxDescriptionLength = 1000
)

var hundred = decimal.NewFromInt(100)

// InventoryItem is a tenant-owned stock item with its catalog price and tax rate.
// Quantity is only ever changed by relative adjustments inside a transaction.
type InventoryItem struct {
	shared.TenantAggregateRoot
	Name        string
	Description string
	UnitPrice   int64            // minor currency units
	TaxRate     *decimal.Decimal // percent, 0-100; nil means no catalog rate
	Quantity    int64
}

// NewInventoryItem creates a new inventory item
func NewInventoryItem(tenantID uuid.UUID, name, description string, unitPrice int64, taxRate *decimal.Decimal, quantity int64) (*InventoryItem, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("Tenant ID is required")
	}
	if quantity < 0 {
		return nil, shared.NewValidationError("Quantity cannot be negative",
			shared.ErrorDetail{Field: "quantity", Message: "must be >= 0", Value: quantity})
	}

	item := &InventoryItem{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Quantity:            quantity,
	}
	if err := item.Update(name, description, unitPrice, taxRate); err != nil {
		return nil, err
	}
	return item, nil
}

// Update replaces the catalog fields of the item
func (i *InventoryItem) Update(name, description string, unitPrice int64, taxRate *decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("Name is required",
			shared.ErrorDetail{Field: "name", Message: "required"})
	}
	if len(name) > maxNameLength {
		return shared.NewValidationError("Name is too long",
			shared.ErrorDetail{Field: "name", Message: "max 255 characters"})
	}
	if len(description) > maxDescriptionLength {
		return shared.NewValidationError("Description is too long",
			shared.ErrorDetail{Field: "description", Message: "max 1000 characters"})
	}
	if unitPrice < 0 {
		return shared.NewValidationError("Unit price cannot be negative",
			shared.ErrorDetail{Field: "unitPrice", Message: "must be >= 0", Value: unitPrice})
	}
	if err := ValidateTaxRate(taxRate); err != nil {
		return err
	}

	i.Name = name
	i.Description = description
	i.UnitPrice = unitPrice
	i.TaxRate = taxRate
	i.UpdatedAt = time.Now()
	return nil
}

// EffectiveTaxRate returns the catalog tax rate or zero when unset
func (i *InventoryItem) EffectiveTaxRate() decimal.Decimal {
	if i.TaxRate == nil {
		return decimal.Zero
	}
	return *i.TaxRate
}

// ValidateTaxRate checks that a tax rate, when present, lies in [0, 100]
func ValidateTaxRate(rate *decimal.Decimal) error {
	if rate == nil {
		return nil
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return shared.NewValidationError("Tax rate must be between 0 and 100",
			shared.ErrorDetail{Field: "taxRate", Message: "must be between 0 and 100", Value: rate.String()})
	}
	return nil
}
