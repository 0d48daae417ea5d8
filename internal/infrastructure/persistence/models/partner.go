package models

import (
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/partner"
)

// CustomerModel is the persistence model for customers.
type CustomerModel struct {
	TenantModel
	Name  string `gorm:"type:varchar(255);not null"`
	Email string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		ID:        m.ID,
		TenantID:  m.TenantID,
		Name:      m.Name,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	return &CustomerModel{
		TenantModel: TenantModel{
			BaseModel: BaseModel{ID: c.ID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt},
			TenantID:  c.TenantID,
		},
		Name:  c.Name,
		Email: c.Email,
	}
}
