package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// The unique index on SalesOrderID allows any number of NULLs, so only
// order-backed invoices are limited to one per order.
type InvoiceModel struct {
	BaseModel
	TenantID      uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_tenant_number,priority:1"`
	InvoiceNumber int64                   `gorm:"not null;uniqueIndex:idx_invoices_tenant_number,priority:2"`
	CustomerID    uuid.UUID               `gorm:"type:uuid;not null;index"`
	SalesOrderID  *uuid.UUID              `gorm:"type:uuid;uniqueIndex:idx_invoices_sales_order"`
	IssueDate     time.Time               `gorm:"not null;index"`
	DueDate       time.Time               `gorm:"not null"`
	Status        invoicing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Notes         string                  `gorm:"type:text"`
	Terms         string                  `gorm:"type:text"`
	SubTotal      int64                   `gorm:"not null;default:0"`
	TaxAmount     int64                   `gorm:"not null;default:0"`
	Total         int64                   `gorm:"not null;default:0;index"`
	Items         []InvoiceItemModel      `gorm:"foreignKey:InvoiceID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			TenantID:   m.TenantID,
		},
		InvoiceNumber: m.InvoiceNumber,
		CustomerID:    m.CustomerID,
		SalesOrderID:  m.SalesOrderID,
		IssueDate:     m.IssueDate,
		DueDate:       m.DueDate,
		Status:        m.Status,
		Notes:         m.Notes,
		Terms:         m.Terms,
		SubTotal:      m.SubTotal,
		TaxAmount:     m.TaxAmount,
		Total:         m.Total,
		Items:         make([]invoicing.InvoiceItem, len(m.Items)),
	}
	for i := range m.Items {
		inv.Items[i] = m.Items[i].ToDomain()
	}
	return inv
}

// InvoiceModelFromDomain creates a persistence model, items included, from
// a domain Invoice.
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		TenantID:      inv.TenantID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		SalesOrderID:  inv.SalesOrderID,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Status:        inv.Status,
		Notes:         inv.Notes,
		Terms:         inv.Terms,
		SubTotal:      inv.SubTotal,
		TaxAmount:     inv.TaxAmount,
		Total:         inv.Total,
		Items:         InvoiceItemModelsFromDomain(inv),
	}
	m.FromDomainBaseEntity(inv.BaseEntity)
	return m
}

// InvoiceItemModel is the persistence model for an invoice line.
type InvoiceItemModel struct {
	BaseModel
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo          int             `gorm:"not null;default:0"`
	InventoryItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity        int64           `gorm:"not null"`
	UnitPrice       int64           `gorm:"not null"`
	TaxRate         decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0"`
	Amount          int64           `gorm:"not null"`
	TaxAmount       int64           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain InvoiceItem.
func (m *InvoiceItemModel) ToDomain() invoicing.InvoiceItem {
	return invoicing.InvoiceItem{
		ID:              m.ID,
		InvoiceID:       m.InvoiceID,
		InventoryItemID: m.InventoryItemID,
		Quantity:        m.Quantity,
		UnitPrice:       m.UnitPrice,
		TaxRate:         m.TaxRate,
		Amount:          m.Amount,
		TaxAmount:       m.TaxAmount,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// InvoiceItemModelsFromDomain converts every line of the invoice
func InvoiceItemModelsFromDomain(inv *invoicing.Invoice) []InvoiceItemModel {
	items := make([]InvoiceItemModel, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = InvoiceItemModel{
			BaseModel:       BaseModel{ID: item.ID, CreatedAt: item.CreatedAt, UpdatedAt: item.UpdatedAt},
			InvoiceID:       inv.ID,
			LineNo:          i,
			InventoryItemID: item.InventoryItemID,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			TaxRate:         item.TaxRate,
			Amount:          item.Amount,
			TaxAmount:       item.TaxAmount,
		}
	}
	return items
}
