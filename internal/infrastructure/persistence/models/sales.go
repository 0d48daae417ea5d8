package models

import (
	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SalesOrderModel is the persistence model for the SalesOrder aggregate root.
type SalesOrderModel struct {
	BaseModel
	TenantID      uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_sales_orders_tenant_number,priority:1"`
	OrderNumber   int64                 `gorm:"not null;uniqueIndex:idx_sales_orders_tenant_number,priority:2"`
	CustomerID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	Status        sales.OrderStatus     `gorm:"type:varchar(20);not null;default:'PENDING'"`
	SubTotal      int64                 `gorm:"not null;default:0"`
	TaxAmount     int64                 `gorm:"not null;default:0"`
	Total         int64                 `gorm:"not null;default:0"`
	Notes         string                `gorm:"type:text"`
	Terms         string                `gorm:"type:text"`
	PlaceOfSupply string                `gorm:"type:varchar(100)"`
	Items         []SalesOrderItemModel `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder.
func (m *SalesOrderModel) ToDomain() *sales.SalesOrder {
	order := &sales.SalesOrder{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			TenantID:   m.TenantID,
		},
		OrderNumber:   m.OrderNumber,
		CustomerID:    m.CustomerID,
		Status:        m.Status,
		SubTotal:      m.SubTotal,
		TaxAmount:     m.TaxAmount,
		Total:         m.Total,
		Notes:         m.Notes,
		Terms:         m.Terms,
		PlaceOfSupply: m.PlaceOfSupply,
		Items:         make([]sales.SalesOrderItem, len(m.Items)),
	}
	for i := range m.Items {
		order.Items[i] = m.Items[i].ToDomain()
	}
	return order
}

// SalesOrderModelFromDomain creates a persistence model, items included,
// from a domain SalesOrder.
func SalesOrderModelFromDomain(o *sales.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{
		TenantID:      o.TenantID,
		OrderNumber:   o.OrderNumber,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		SubTotal:      o.SubTotal,
		TaxAmount:     o.TaxAmount,
		Total:         o.Total,
		Notes:         o.Notes,
		Terms:         o.Terms,
		PlaceOfSupply: o.PlaceOfSupply,
		Items:         SalesOrderItemModelsFromDomain(o),
	}
	m.FromDomainBaseEntity(o.BaseEntity)
	return m
}

// SalesOrderItemModel is the persistence model for an order line.
// LineNo keeps the lines in the order they were written.
type SalesOrderItemModel struct {
	BaseModel
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo          int             `gorm:"not null;default:0"`
	InventoryItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity        int64           `gorm:"not null"`
	UnitPrice       int64           `gorm:"not null"`
	TaxRate         decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0"`
	Amount          int64           `gorm:"not null"`
	TaxAmount       int64           `gorm:"not null"`
	HSNOrSACCode    string          `gorm:"column:hsn_or_sac_code;type:varchar(10)"`
}

// TableName returns the table name for GORM
func (SalesOrderItemModel) TableName() string {
	return "sales_order_items"
}

// ToDomain converts the persistence model to a domain SalesOrderItem.
func (m *SalesOrderItemModel) ToDomain() sales.SalesOrderItem {
	return sales.SalesOrderItem{
		ID:              m.ID,
		OrderID:         m.OrderID,
		InventoryItemID: m.InventoryItemID,
		Quantity:        m.Quantity,
		UnitPrice:       m.UnitPrice,
		TaxRate:         m.TaxRate,
		Amount:          m.Amount,
		TaxAmount:       m.TaxAmount,
		HSNOrSACCode:    m.HSNOrSACCode,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// SalesOrderItemModelsFromDomain converts every line of the order
func SalesOrderItemModelsFromDomain(o *sales.SalesOrder) []SalesOrderItemModel {
	items := make([]SalesOrderItemModel, len(o.Items))
	for i, item := range o.Items {
		items[i] = SalesOrderItemModel{
			BaseModel:       BaseModel{ID: item.ID, CreatedAt: item.CreatedAt, UpdatedAt: item.UpdatedAt},
			OrderID:         o.ID,
			LineNo:          i,
			InventoryItemID: item.InventoryItemID,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			TaxRate:         item.TaxRate,
			Amount:          item.Amount,
			TaxAmount:       item.TaxAmount,
			HSNOrSACCode:    item.HSNOrSACCode,
		}
	}
	return items
}
