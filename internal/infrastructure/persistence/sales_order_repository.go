package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/persistence/models"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

// byLineNo keeps preloaded document lines in the order they were written
func byLineNo(db *gorm.DB) *gorm.DB {
	return db.Order("line_no")
}

// FindByIDForTenant finds an order with its items within a tenant
func (r *GormSalesOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.SalesOrder, error) {
	var m models.SalesOrderModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Preload("Items", byLineNo).
		Where("id = ?", id).
		First(&m).Error; err != nil {
		return nil, translate(err, "Sales order", id)
	}
	return m.ToDomain(), nil
}

// LockByIDForTenant selects the order row FOR UPDATE and loads its items
func (r *GormSalesOrderRepository) LockByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.SalesOrder, error) {
	var m models.SalesOrderModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&m).Error; err != nil {
		return nil, translate(err, "Sales order", id)
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", m.ID).
		Order("line_no").
		Find(&m.Items).Error; err != nil {
		return nil, translate(err, "Sales order", id)
	}
	return m.ToDomain(), nil
}

// List returns a page of orders with items, newest first
func (r *GormSalesOrderRepository) List(ctx context.Context, tenantID uuid.UUID, filter sales.OrderFilter) ([]sales.SalesOrder, int64, error) {
	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Model(&models.SalesOrderModel{}).
			Scopes(tenant.Scope(tenantID))
		if filter.Status != nil {
			q = q.Where("status = ?", *filter.Status)
		}
		if filter.CustomerID != nil {
			q = q.Where("customer_id = ?", *filter.CustomerID)
		}
		if filter.From != nil {
			q = q.Where("created_at >= ?", *filter.From)
		}
		if filter.To != nil {
			q = q.Where("created_at <= ?", *filter.To)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, translate(err, "Sales order", nil)
	}

	page := filter.Page.Normalize()
	var ms []models.SalesOrderModel
	if err := filtered().
		Preload("Items", byLineNo).
		Order("created_at DESC").
		Order("order_number DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&ms).Error; err != nil {
		return nil, 0, translate(err, "Sales order", nil)
	}

	orders := make([]sales.SalesOrder, len(ms))
	for i := range ms {
		orders[i] = *ms[i].ToDomain()
	}
	return orders, total, nil
}

// Create inserts the order and its items
func (r *GormSalesOrderRepository) Create(ctx context.Context, order *sales.SalesOrder) error {
	m := models.SalesOrderModelFromDomain(order)
	return translate(r.db.WithContext(ctx).Create(m).Error, "Sales order", order.ID)
}

// Update writes the order header. Items are left untouched.
func (r *GormSalesOrderRepository) Update(ctx context.Context, order *sales.SalesOrder) error {
	result := r.db.WithContext(ctx).
		Model(&models.SalesOrderModel{}).
		Scopes(tenant.Scope(order.TenantID)).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"customer_id":     order.CustomerID,
			"status":          order.Status,
			"sub_total":       order.SubTotal,
			"tax_amount":      order.TaxAmount,
			"total":           order.Total,
			"notes":           order.Notes,
			"terms":           order.Terms,
			"place_of_supply": order.PlaceOfSupply,
			"updated_at":      order.UpdatedAt,
		})
	if result.Error != nil {
		return translate(result.Error, "Sales order", order.ID)
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Sales order", order.ID)
	}
	return nil
}

// ReplaceItems deletes the stored items of the order and inserts order.Items
func (r *GormSalesOrderRepository) ReplaceItems(ctx context.Context, order *sales.SalesOrder) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", order.ID).Delete(&models.SalesOrderItemModel{}).Error; err != nil {
		return translate(err, "Sales order item", order.ID)
	}
	items := models.SalesOrderItemModelsFromDomain(order)
	if len(items) == 0 {
		return nil
	}
	return translate(db.Create(&items).Error, "Sales order item", order.ID)
}

var _ sales.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
