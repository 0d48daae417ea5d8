package partner

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository defines the read access the invoicing core needs
type CustomerRepository interface {
	// FindByIDForTenant returns NOT_FOUND when the customer does not belong to the tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error
}
