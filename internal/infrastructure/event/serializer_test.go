package event

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/pricing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_Envelope(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	line, err := pricing.NewLine(uuid.New(), 2, 500, decimal.NewFromInt(10))
	require.NoError(t, err)
	inv, err := invoicing.NewInvoice(uuid.New(), invoicing.Header{InvoiceNumber: 3, CustomerID: uuid.New()}, []pricing.Line{line}, 0)
	require.NoError(t, err)
	require.NoError(t, inv.ChangeStatus(invoicing.InvoiceStatusPaid))
	original := inv.GetDomainEvents()[1]

	data, err := serializer.Serialize(original)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.Equal(t, invoicing.EventTypeInvoiceStatusChanged, env.Type)
	assert.Equal(t, inv.TenantID, env.TenantID)
	assert.Equal(t, inv.ID, env.AggregateID)
	assert.Contains(t, string(env.Payload), `"to_status":"PAID"`)

	decoded, err := serializer.Deserialize(data)
	require.NoError(t, err)
	ev, ok := decoded.(*invoicing.InvoiceStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), ev.EventID())
	assert.Equal(t, int64(3), ev.InvoiceNumber)
	assert.Equal(t, invoicing.InvoiceStatusPending, ev.FromStatus)
}

func TestEventSerializer_Deserialize_Errors(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	tests := []struct {
		name string
		data string
		want string
	}{
		{"not json", `not json`, "failed to unmarshal envelope"},
		{"wrong version", `{"version":2,"type":"InvoiceCreated"}`, "unsupported envelope version 2"},
		{"unknown type", `{"version":1,"type":"UnknownEvent","payload":{}}`, "unknown event type"},
		{"bad payload", `{"version":1,"type":"InvoiceCreated","payload":"x"}`, "failed to unmarshal InvoiceCreated payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := serializer.Deserialize([]byte(tt.data))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestEventSerializer_Registry(t *testing.T) {
	serializer := NewEventSerializer()
	assert.False(t, serializer.IsRegistered(sales.EventTypeSalesOrderCreated))

	RegisterAllEvents(serializer)

	assert.True(t, serializer.IsRegistered(sales.EventTypeSalesOrderCreated))
	assert.Equal(t, []string{
		invoicing.EventTypeInvoiceCreated,
		invoicing.EventTypeInvoiceStatusChanged,
		sales.EventTypeSalesOrderCreated,
		sales.EventTypeSalesOrderStatusChanged,
	}, serializer.RegisteredTypes())
}
