package event

import (
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
)

// RegisterAllEvents makes every sales order and invoice event decodable
func RegisterAllEvents(serializer *EventSerializer) {
	serializer.Register(sales.EventTypeSalesOrderCreated, func() shared.DomainEvent { return &sales.SalesOrderCreatedEvent{} })
	serializer.Register(sales.EventTypeSalesOrderStatusChanged, func() shared.DomainEvent { return &sales.SalesOrderStatusChangedEvent{} })
	serializer.Register(invoicing.EventTypeInvoiceCreated, func() shared.DomainEvent { return &invoicing.InvoiceCreatedEvent{} })
	serializer.Register(invoicing.EventTypeInvoiceStatusChanged, func() shared.DomainEvent { return &invoicing.InvoiceStatusChangedEvent{} })
}
