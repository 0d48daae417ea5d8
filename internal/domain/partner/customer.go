package partner

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
)

// Customer is the billing party of sales orders and invoices.
// The invoicing core only reads customers; they are maintained elsewhere.
type Customer struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCustomer creates a customer record for a tenant
func NewCustomer(tenantID uuid.UUID, name, email string) (*Customer, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	var details []shared.ErrorDetail
	if tenantID == uuid.Nil {
		details = append(details, shared.ErrorDetail{Field: "tenantId", Message: "required"})
	}
	if name == "" || len(name) > 255 {
		details = append(details, shared.ErrorDetail{Field: "name", Message: "must be 1-255 characters"})
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			details = append(details, shared.ErrorDetail{Field: "email", Message: "invalid email address", Value: email})
		}
	}
	if len(details) > 0 {
		return nil, shared.NewValidationError("Invalid customer", details...)
	}

	now := time.Now()
	return &Customer{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanReceiveMail reports whether documents can be mailed to the customer
func (c *Customer) CanReceiveMail() bool {
	return c.Email != ""
}
