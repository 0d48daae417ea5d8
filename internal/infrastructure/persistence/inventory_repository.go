package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/persistence/models"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryItemRepository implements InventoryItemRepository using GORM
type GormInventoryItemRepository struct {
	db *gorm.DB
}

// NewGormInventoryItemRepository creates a new GormInventoryItemRepository
func NewGormInventoryItemRepository(db *gorm.DB) *GormInventoryItemRepository {
	return &GormInventoryItemRepository{db: db}
}

// FindByIDForTenant finds an inventory item by ID within a tenant
func (r *GormInventoryItemRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryItem, error) {
	var m models.InventoryItemModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&m).Error; err != nil {
		return nil, translate(err, "Inventory item", id)
	}
	return m.ToDomain(), nil
}

// FindByIDsForTenant loads all given items in one query
func (r *GormInventoryItemRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ms []models.InventoryItemModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id IN ?", ids).
		Find(&ms).Error; err != nil {
		return nil, translate(err, "Inventory item", nil)
	}
	return itemsToDomain(ms), nil
}

// LockByIDsForTenant selects the items FOR UPDATE in id order, so that
// concurrent reservations over overlapping items lock in the same order.
func (r *GormInventoryItemRepository) LockByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ms []models.InventoryItemModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(tenantID)).
		Where("id IN ?", ids).
		Order("id").
		Find(&ms).Error; err != nil {
		return nil, translate(err, "Inventory item", nil)
	}
	return itemsToDomain(ms), nil
}

// AdjustQuantity applies quantity = quantity + delta
func (r *GormInventoryItemRepository) AdjustQuantity(ctx context.Context, tenantID, id uuid.UUID, delta int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.InventoryItemModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return translate(result.Error, "Inventory item", id)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Inventory item", id)
	}
	return nil
}

// List returns a page of items, newest first. Search matches name or
// description case-insensitively.
func (r *GormInventoryItemRepository) List(ctx context.Context, tenantID uuid.UUID, filter inventory.ItemFilter) ([]inventory.InventoryItem, int64, error) {
	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Model(&models.InventoryItemModel{}).
			Scopes(tenant.Scope(tenantID))
		if search := strings.TrimSpace(filter.Search); search != "" {
			pattern := "%" + strings.ToLower(search) + "%"
			q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, translate(err, "Inventory item", nil)
	}

	page := filter.Page.Normalize()
	var ms []models.InventoryItemModel
	if err := filtered().
		Order("created_at DESC").
		Order("id").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&ms).Error; err != nil {
		return nil, 0, translate(err, "Inventory item", nil)
	}
	return itemsToDomain(ms), total, nil
}

// Save inserts the item, or updates its catalog fields when it exists.
// The stored quantity is never overwritten; it only moves through
// AdjustQuantity.
func (r *GormInventoryItemRepository) Save(ctx context.Context, item *inventory.InventoryItem) error {
	m := models.InventoryItemModelFromDomain(item)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "unit_price", "tax_rate", "updated_at"}),
		}).
		Create(m).Error
	return translate(err, "Inventory item", item.ID)
}

func itemsToDomain(ms []models.InventoryItemModel) []inventory.InventoryItem {
	items := make([]inventory.InventoryItem, len(ms))
	for i := range ms {
		items[i] = *ms[i].ToDomain()
	}
	return items
}

var _ inventory.InventoryItemRepository = (*GormInventoryItemRepository)(nil)
