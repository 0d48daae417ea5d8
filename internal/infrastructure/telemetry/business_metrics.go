package telemetry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when NewBusinessMetrics gets no meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

const (
	documentTypeSalesOrder = "sales_order"
	documentTypeInvoice    = "invoice"
)

// BusinessMetrics counts documents, status transitions and refused stock
// reservations. It subscribes to the domain event bus and observes the
// inventory ledger.
type BusinessMetrics struct {
	logger *zap.Logger

	documentsCreated *Counter
	documentAmount   *Histogram
	statusChanges    *Counter
	stockRejections  *Counter
	shortUnits       *Counter
}

// NewBusinessMetrics registers the instruments on meter
func NewBusinessMetrics(meter metric.Meter, logger *zap.Logger) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{logger: logger}

	var err error
	if bm.documentsCreated, err = NewCounter(meter,
		"invoicing_documents_created_total",
		"Number of sales orders and invoices created",
		"{document}",
	); err != nil {
		return nil, err
	}
	if bm.documentAmount, err = NewHistogram(meter,
		"invoicing_document_amount",
		"Grand total of created documents in major currency units",
		"{currency}",
		AmountBuckets,
	); err != nil {
		return nil, err
	}
	if bm.statusChanges, err = NewCounter(meter,
		"invoicing_status_changes_total",
		"Number of document status transitions",
		"{transition}",
	); err != nil {
		return nil, err
	}
	if bm.stockRejections, err = NewCounter(meter,
		"invoicing_stock_rejections_total",
		"Number of reservations refused for insufficient stock",
		"{reservation}",
	); err != nil {
		return nil, err
	}
	if bm.shortUnits, err = NewCounter(meter,
		"invoicing_stock_short_units_total",
		"Units missing across refused reservations",
		"{unit}",
	); err != nil {
		return nil, err
	}

	return bm, nil
}

// EventTypes implements shared.EventHandler
func (bm *BusinessMetrics) EventTypes() []string {
	return []string{
		sales.EventTypeSalesOrderCreated,
		sales.EventTypeSalesOrderStatusChanged,
		invoicing.EventTypeInvoiceCreated,
		invoicing.EventTypeInvoiceStatusChanged,
	}
}

// Handle implements shared.EventHandler. Unknown events are ignored.
func (bm *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	tenant := AttrMetricTenant.String(event.TenantID().String())

	switch e := event.(type) {
	case *sales.SalesOrderCreatedEvent:
		docType := AttrMetricDocumentType.String(documentTypeSalesOrder)
		bm.documentsCreated.Inc(ctx, tenant, docType)
		bm.documentAmount.Record(ctx, minorToMajor(e.Total), docType)
	case *invoicing.InvoiceCreatedEvent:
		docType := AttrMetricDocumentType.String(documentTypeInvoice)
		bm.documentsCreated.Inc(ctx, tenant, docType)
		bm.documentAmount.Record(ctx, minorToMajor(e.Total), docType)
	case *sales.SalesOrderStatusChangedEvent:
		bm.statusChanges.Inc(ctx, tenant,
			AttrMetricDocumentType.String(documentTypeSalesOrder),
			AttrMetricStatus.String(string(e.ToStatus)),
		)
	case *invoicing.InvoiceStatusChangedEvent:
		bm.statusChanges.Inc(ctx, tenant,
			AttrMetricDocumentType.String(documentTypeInvoice),
			AttrMetricStatus.String(string(e.ToStatus)),
		)
	default:
		bm.logger.Debug("business metrics ignoring event", zap.String("event_type", event.EventType()))
	}
	return nil
}

// StockRejected records a refused reservation and the units it was short by
func (bm *BusinessMetrics) StockRejected(ctx context.Context, tenantID uuid.UUID, shortfalls []inventory.Shortfall) {
	tenant := AttrMetricTenant.String(tenantID.String())
	bm.stockRejections.Inc(ctx, tenant)

	var missing int64
	for _, s := range shortfalls {
		if s.Requested > s.Available {
			missing += s.Requested - s.Available
		}
	}
	if missing > 0 {
		bm.shortUnits.Add(ctx, missing, tenant)
	}
}

func minorToMajor(minor int64) float64 {
	return float64(minor) / 100
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)
