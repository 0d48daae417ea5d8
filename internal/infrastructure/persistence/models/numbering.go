package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantCounterModel holds the next document numbers of one tenant.
type TenantCounterModel struct {
	TenantID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	NextOrderNumber   int64     `gorm:"not null;default:1"`
	NextInvoiceNumber int64     `gorm:"not null;default:1"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TenantCounterModel) TableName() string {
	return "tenant_counters"
}
