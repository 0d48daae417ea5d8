package models

import (
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// InventoryItemModel is the persistence model for the InventoryItem aggregate root.
type InventoryItemModel struct {
	TenantModel
	Name        string           `gorm:"type:varchar(255);not null"`
	Description string           `gorm:"type:text"`
	UnitPrice   int64            `gorm:"not null;default:0"`
	TaxRate     *decimal.Decimal `gorm:"type:numeric(7,4)"`
	Quantity    int64            `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InventoryItemModel) TableName() string {
	return "inventory_items"
}

// ToDomain converts the persistence model to a domain InventoryItem.
func (m *InventoryItemModel) ToDomain() *inventory.InventoryItem {
	return &inventory.InventoryItem{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		Description:         m.Description,
		UnitPrice:           m.UnitPrice,
		TaxRate:             m.TaxRate,
		Quantity:            m.Quantity,
	}
}

// FromDomain populates the persistence model from a domain InventoryItem.
func (m *InventoryItemModel) FromDomain(item *inventory.InventoryItem) {
	m.FromDomainTenantAggregateRoot(item.TenantAggregateRoot)
	m.Name = item.Name
	m.Description = item.Description
	m.UnitPrice = item.UnitPrice
	m.TaxRate = item.TaxRate
	m.Quantity = item.Quantity
}

// InventoryItemModelFromDomain creates a new persistence model from a domain InventoryItem.
func InventoryItemModelFromDomain(item *inventory.InventoryItem) *InventoryItemModel {
	m := &InventoryItemModel{}
	m.FromDomain(item)
	return m
}
