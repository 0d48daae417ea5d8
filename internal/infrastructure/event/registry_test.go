package event

import (
	"testing"

	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry(t *testing.T) {
	registry := NewHandlerRegistry()
	orders := newTestHandler(sales.EventTypeSalesOrderStatusChanged)
	invoices := newTestHandler(invoicing.EventTypeInvoiceStatusChanged, invoicing.EventTypeInvoiceCreated)
	all := newTestHandler()

	registry.Register(orders, orders.EventTypes()...)
	registry.Register(invoices, invoices.EventTypes()...)
	registry.Register(all)

	assert.Len(t, registry.GetHandlers(sales.EventTypeSalesOrderStatusChanged), 2)
	assert.Len(t, registry.GetHandlers(invoicing.EventTypeInvoiceCreated), 2)
	assert.Len(t, registry.GetHandlers("Unknown"), 1)

	registry.Unregister(invoices)
	assert.Equal(t, []shared.EventHandler{all}, registry.GetHandlers(invoicing.EventTypeInvoiceCreated))

	registry.Unregister(all)
	assert.Empty(t, registry.GetHandlers("Unknown"))
	assert.Len(t, registry.GetHandlers(sales.EventTypeSalesOrderStatusChanged), 1)
}

