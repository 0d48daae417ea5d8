package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/persistence/models"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForTenant finds an invoice with its items within a tenant
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	var m models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Preload("Items", byLineNo).
		Where("id = ?", id).
		First(&m).Error; err != nil {
		return nil, translate(err, "Invoice", id)
	}
	return m.ToDomain(), nil
}

// LockByIDForTenant selects the invoice row FOR UPDATE and loads its items
func (r *GormInvoiceRepository) LockByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	var m models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&m).Error; err != nil {
		return nil, translate(err, "Invoice", id)
	}
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", m.ID).
		Order("line_no").
		Find(&m.Items).Error; err != nil {
		return nil, translate(err, "Invoice", id)
	}
	return m.ToDomain(), nil
}

// ExistsForSalesOrder reports whether an invoice other than excludeID
// references the sales order
func (r *GormInvoiceRepository) ExistsForSalesOrder(ctx context.Context, tenantID, salesOrderID uuid.UUID, excludeID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("sales_order_id = ?", salesOrderID)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, translate(err, "Invoice", nil)
	}
	return count > 0, nil
}

// List returns a page of invoices with items, newest issue date first
func (r *GormInvoiceRepository) List(ctx context.Context, tenantID uuid.UUID, filter invoicing.InvoiceFilter) ([]invoicing.Invoice, int64, error) {
	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Model(&models.InvoiceModel{}).
			Scopes(tenant.Scope(tenantID))
		if filter.Status != nil {
			q = q.Where("status = ?", *filter.Status)
		}
		if filter.CustomerID != nil {
			q = q.Where("customer_id = ?", *filter.CustomerID)
		}
		if filter.From != nil {
			q = q.Where("issue_date >= ?", *filter.From)
		}
		if filter.To != nil {
			q = q.Where("issue_date <= ?", *filter.To)
		}
		if filter.MinAmount != nil {
			q = q.Where("total >= ?", *filter.MinAmount)
		}
		if filter.MaxAmount != nil {
			q = q.Where("total <= ?", *filter.MaxAmount)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, translate(err, "Invoice", nil)
	}

	page := filter.Page.Normalize()
	var ms []models.InvoiceModel
	if err := filtered().
		Preload("Items", byLineNo).
		Order("issue_date DESC").
		Order("invoice_number DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&ms).Error; err != nil {
		return nil, 0, translate(err, "Invoice", nil)
	}

	invoices := make([]invoicing.Invoice, len(ms))
	for i := range ms {
		invoices[i] = *ms[i].ToDomain()
	}
	return invoices, total, nil
}

// Create inserts the invoice and its items. A reused invoice number or a
// second invoice for the same sales order fails with CONFLICT.
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *invoicing.Invoice) error {
	m := models.InvoiceModelFromDomain(inv)
	return translate(r.db.WithContext(ctx).Create(m).Error, "Invoice", inv.ID)
}

// Update writes the invoice header. Items are left untouched.
func (r *GormInvoiceRepository) Update(ctx context.Context, inv *invoicing.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Scopes(tenant.Scope(inv.TenantID)).
		Where("id = ?", inv.ID).
		Updates(map[string]any{
			"customer_id":    inv.CustomerID,
			"sales_order_id": inv.SalesOrderID,
			"due_date":       inv.DueDate,
			"status":         inv.Status,
			"notes":          inv.Notes,
			"terms":          inv.Terms,
			"sub_total":      inv.SubTotal,
			"tax_amount":     inv.TaxAmount,
			"total":          inv.Total,
			"updated_at":     inv.UpdatedAt,
		})
	if result.Error != nil {
		return translate(result.Error, "Invoice", inv.ID)
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Invoice", inv.ID)
	}
	return nil
}

// ReplaceItems deletes the stored items of the invoice and inserts inv.Items
func (r *GormInvoiceRepository) ReplaceItems(ctx context.Context, inv *invoicing.Invoice) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItemModel{}).Error; err != nil {
		return translate(err, "Invoice item", inv.ID)
	}
	items := models.InvoiceItemModelsFromDomain(inv)
	if len(items) == 0 {
		return nil
	}
	return translate(db.Create(&items).Error, "Invoice item", inv.ID)
}

var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)
