package notification

import (
	"context"
	"fmt"

	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"go.uber.org/zap"
)

// StatusChangedHandler mails the customer whenever a sales order or invoice
// changes status. It runs after commit; failures are only logged by the bus.
type StatusChangedHandler struct {
	orders   sales.SalesOrderRepository
	invoices invoicing.InvoiceRepository
	notifier Notifier
	logger   *zap.Logger
}

// NewStatusChangedHandler creates a new StatusChangedHandler
func NewStatusChangedHandler(
	orders sales.SalesOrderRepository,
	invoices invoicing.InvoiceRepository,
	notifier Notifier,
	logger *zap.Logger,
) *StatusChangedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusChangedHandler{
		orders:   orders,
		invoices: invoices,
		notifier: notifier,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *StatusChangedHandler) EventTypes() []string {
	return []string{
		sales.EventTypeSalesOrderStatusChanged,
		invoicing.EventTypeInvoiceStatusChanged,
	}
}

// Handle loads the current document and mails it with a status headline
func (h *StatusChangedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var doc Document

	switch e := event.(type) {
	case *sales.SalesOrderStatusChangedEvent:
		order, err := h.orders.FindByIDForTenant(ctx, e.TenantID(), e.OrderID)
		if err != nil {
			return err
		}
		doc = FromSalesOrder(order)
		doc.Message = SalesOrderStatusMessage(e.OrderNumber, e.ToStatus)
	case *invoicing.InvoiceStatusChangedEvent:
		inv, err := h.invoices.FindByIDForTenant(ctx, e.TenantID(), e.InvoiceID)
		if err != nil {
			return err
		}
		doc = FromInvoice(inv)
		doc.Message = InvoiceStatusMessage(e.InvoiceNumber, e.ToStatus)
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	h.logger.Info("mailing status change",
		zap.String("tenant_id", doc.TenantID.String()),
		zap.String("document", doc.Title()),
		zap.String("status", doc.Status),
	)
	return h.notifier.Notify(ctx, doc)
}

var _ shared.EventHandler = (*StatusChangedHandler)(nil)
