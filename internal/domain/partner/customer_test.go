package partner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	tenantID := uuid.New()

	c, err := NewCustomer(tenantID, "  Acme Ltd ", "billing@acme.test")
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", c.Name)
	assert.Equal(t, tenantID, c.TenantID)
	assert.True(t, c.CanReceiveMail())

	c, err = NewCustomer(tenantID, "Walk-in", "")
	require.NoError(t, err)
	assert.False(t, c.CanReceiveMail())
}

func TestNewCustomer_Validation(t *testing.T) {
	tests := []struct {
		name     string
		tenantID uuid.UUID
		cname    string
		email    string
		field    string
	}{
		{"missing tenant", uuid.Nil, "Acme", "", "tenantId"},
		{"blank name", uuid.New(), "   ", "", "name"},
		{"bad email", uuid.New(), "Acme", "not-an-email", "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCustomer(tt.tenantID, tt.cname, tt.email)
			require.ErrorIs(t, err, shared.ErrValidation)
			de, ok := shared.AsDomainError(err)
			require.True(t, ok)
			require.Len(t, de.Details, 1)
			assert.Equal(t, tt.field, de.Details[0].Field)
		})
	}
}
