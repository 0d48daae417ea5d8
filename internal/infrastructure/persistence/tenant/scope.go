// Package tenant provides multi-tenant database scoping for GORM.
//
// Every repository method receives the tenant explicitly and builds its
// query through Scope, so a missing tenant fails the statement instead of
// reading across tenants.
//
// Usage:
//
//	db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Find(&items)
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTenantIDRequired is returned when a query is built without a tenant
var ErrTenantIDRequired = errors.New("tenant_id is required")

// Column is the tenant column shared by every tenant-owned table
const Column = "tenant_id"

// Scope restricts a query to one tenant. A nil tenant id poisons the
// statement with ErrTenantIDRequired.
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return ScopeColumn(Column, tenantID)
}

// ScopeColumn is Scope for a qualified or differently named column, e.g.
// "invoices.tenant_id" in joins.
func ScopeColumn(column string, tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where(column+" = ?", tenantID)
	}
}
