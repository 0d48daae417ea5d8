// Package invoicing implements the invoice workflow: materializing accepted
// sales orders, standalone invoices, stock-consistent updates and the
// one-way status change.
package invoicing

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/application/coordinator"
	appinventory "github.com/rsjrcat/invoice-server-main-hd/internal/application/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/application/notification"
	apppricing "github.com/rsjrcat/invoice-server-main-hd/internal/application/pricing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/numbering"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/pricing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MaxExportRows caps the number of invoices written to one export
const MaxExportRows = 10000

// WorkbookWriter renders a list of invoices as a spreadsheet
type WorkbookWriter interface {
	WriteInvoices(ctx context.Context, w io.Writer, invoices []invoicing.Invoice) error
}

// InvoiceService handles invoice business operations
type InvoiceService struct {
	invoiceRepo    invoicing.InvoiceRepository
	txScope        coordinator.TransactionScope
	ledger         *appinventory.Ledger
	notifier       notification.Notifier
	workbook       WorkbookWriter
	eventPublisher shared.EventPublisher
	dueDays        int
	logger         *zap.Logger
}

// ServiceOption configures an InvoiceService
type ServiceOption func(*InvoiceService)

// WithDefaultDueDays sets the due date offset used when none is given
func WithDefaultDueDays(days int) ServiceOption {
	return func(s *InvoiceService) {
		if days > 0 {
			s.dueDays = days
		}
	}
}

// WithWorkbookWriter enables spreadsheet export
func WithWorkbookWriter(w WorkbookWriter) ServiceOption {
	return func(s *InvoiceService) {
		s.workbook = w
	}
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo invoicing.InvoiceRepository,
	txScope coordinator.TransactionScope,
	ledger *appinventory.Ledger,
	notifier notification.Notifier,
	logger *zap.Logger,
	opts ...ServiceOption,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &InvoiceService{
		invoiceRepo: invoiceRepo,
		txScope:     txScope,
		ledger:      ledger,
		notifier:    notifier,
		dueDays:     invoicing.DefaultDueDays,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create issues an invoice, either from an accepted sales order or from the
// requested lines, and takes its quantities out of stock.
func (s *InvoiceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "Create",
		telemetry.WithAttribute(telemetry.AttrTenantID, tenantID),
		telemetry.WithAttribute(telemetry.AttrLineCount, len(req.Items)),
	)
	defer span.End()

	var (
		resp *InvoiceResponse
		err  error
	)
	if req.SalesOrderID != nil {
		span.SetAttributes(attribute.String("invoice.sales_order_id", req.SalesOrderID.String()))
		resp, err = s.CreateFromSalesOrder(ctx, tenantID, *req.SalesOrderID, req)
	} else {
		resp, err = s.CreateStandalone(ctx, tenantID, req)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.AttrDocumentID, resp.ID,
		telemetry.AttrDocumentNo, resp.InvoiceNumber,
	)
	telemetry.SetOK(span)
	return resp, nil
}

// CreateFromSalesOrder copies the lines of an ACCEPTED order onto a new
// invoice. The order is locked for the whole transaction so only one
// invoice can ever reference it.
func (s *InvoiceService) CreateFromSalesOrder(ctx context.Context, tenantID, orderID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	var inv *invoicing.Invoice
	err := s.txScope.Execute(ctx, func(repos coordinator.Repositories) error {
		order, err := s.lockInvoiceableOrder(ctx, repos, tenantID, orderID, nil)
		if err != nil {
			return err
		}

		if err := s.ledger.Reserve(ctx, repos.Items(), tenantID, order.StockLines()); err != nil {
			return err
		}

		number, err := s.invoiceNumber(ctx, repos, tenantID, req.InvoiceNumber)
		if err != nil {
			return err
		}

		inv, err = invoicing.NewInvoice(tenantID, invoicing.Header{
			InvoiceNumber: number,
			CustomerID:    order.CustomerID,
			SalesOrderID:  &order.ID,
			IssueDate:     issueDate(req.IssueDate),
			DueDate:       req.DueDate,
			Notes:         valueOr(req.Notes, order.Notes),
			Terms:         valueOr(req.Terms, order.Terms),
		}, order.PricedLines(), s.dueDays)
		if err != nil {
			return err
		}
		return repos.Invoices().Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created from sales order",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("sales_order_id", orderID.String()),
		zap.Int64("invoice_number", inv.InvoiceNumber),
	)
	s.publishEvents(ctx, inv)

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// CreateStandalone prices the requested lines through the catalog and
// reserves their quantities.
func (s *InvoiceService) CreateStandalone(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	var details []shared.ErrorDetail
	if req.CustomerID == nil || *req.CustomerID == uuid.Nil {
		details = append(details, shared.ErrorDetail{Field: "customerId", Message: "required without salesOrderId"})
	}
	if len(req.Items) == 0 {
		details = append(details, shared.ErrorDetail{Field: "items", Message: "required without salesOrderId"})
	}
	if len(details) > 0 {
		return nil, shared.NewValidationError("Invalid invoice", details...)
	}

	var inv *invoicing.Invoice
	err := s.txScope.Execute(ctx, func(repos coordinator.Repositories) error {
		if _, err := repos.Customers().FindByIDForTenant(ctx, tenantID, *req.CustomerID); err != nil {
			return err
		}

		priced, err := apppricing.Quote(ctx, repos.Items(), tenantID, toLineInputs(req.Items))
		if err != nil {
			return err
		}
		if err := s.ledger.Reserve(ctx, repos.Items(), tenantID, stockLines(priced.Lines)); err != nil {
			return err
		}

		number, err := s.invoiceNumber(ctx, repos, tenantID, req.InvoiceNumber)
		if err != nil {
			return err
		}

		inv, err = invoicing.NewInvoice(tenantID, invoicing.Header{
			InvoiceNumber: number,
			CustomerID:    *req.CustomerID,
			IssueDate:     issueDate(req.IssueDate),
			DueDate:       req.DueDate,
			Notes:         valueOr(req.Notes, ""),
			Terms:         valueOr(req.Terms, ""),
		}, priced.Lines, s.dueDays)
		if err != nil {
			return err
		}
		return repos.Invoices().Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.Int64("invoice_number", inv.InvoiceNumber),
		zap.Int64("total", inv.Total),
	)
	s.publishEvents(ctx, inv)

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// GetByID retrieves an invoice with its items
func (s *InvoiceService) GetByID(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// List returns a page of invoices, newest first
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) (shared.Paginated[InvoiceResponse], error) {
	domainFilter, err := toDomainFilter(filter)
	if err != nil {
		return shared.Paginated[InvoiceResponse]{}, err
	}
	invoices, total, err := s.invoiceRepo.List(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[InvoiceResponse]{}, err
	}
	return shared.NewPaginated(ToInvoiceResponses(invoices), total, domainFilter.Page), nil
}

// Export writes every invoice matching the filter, up to MaxExportRows, as
// a workbook. Paging fields of the filter are ignored.
func (s *InvoiceService) Export(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter, w io.Writer) (int, error) {
	if s.workbook == nil {
		return 0, shared.NewInvalidStateError("Invoice export is not configured")
	}
	domainFilter, err := toDomainFilter(filter)
	if err != nil {
		return 0, err
	}

	var all []invoicing.Invoice
	domainFilter.Page = shared.Page{Limit: shared.MaxPageLimit}
	for len(all) < MaxExportRows {
		batch, total, err := s.invoiceRepo.List(ctx, tenantID, domainFilter)
		if err != nil {
			return 0, err
		}
		all = append(all, batch...)
		if len(batch) < domainFilter.Page.Limit || int64(len(all)) >= total {
			break
		}
		domainFilter.Page.Offset += len(batch)
	}
	if len(all) > MaxExportRows {
		all = all[:MaxExportRows]
	}

	if err := s.workbook.WriteInvoices(ctx, w, all); err != nil {
		return 0, fmt.Errorf("write invoice workbook: %w", err)
	}
	s.logger.Info("invoices exported",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("rows", len(all)),
	)
	return len(all), nil
}

// Update patches an invoice. Rebinding to a sales order or replacing the
// items returns the old quantities to stock and takes the new ones in the
// same transaction as the write.
func (s *InvoiceService) Update(ctx context.Context, tenantID, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "Update",
		telemetry.WithAttribute(telemetry.AttrTenantID, tenantID),
		telemetry.WithAttribute(telemetry.AttrDocumentID, invoiceID),
	)
	defer span.End()

	var inv *invoicing.Invoice
	err := s.txScope.Execute(ctx, func(repos coordinator.Repositories) error {
		var err error
		inv, err = repos.Invoices().LockByIDForTenant(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		old := inv.StockLines()

		patch := invoicing.Patch{DueDate: req.DueDate, Notes: req.Notes, Terms: req.Terms}
		switch {
		case req.SalesOrderID != nil:
			order, err := s.lockInvoiceableOrder(ctx, repos, tenantID, *req.SalesOrderID, &inv.ID)
			if err != nil {
				return err
			}
			if err := s.ledger.Rebalance(ctx, repos.Items(), tenantID, old, order.StockLines()); err != nil {
				return err
			}
			if err := inv.ReplaceItems(order.PricedLines()); err != nil {
				return err
			}
			inv.RebindSalesOrder(order.ID, order.CustomerID)
			if err := repos.Invoices().ReplaceItems(ctx, inv); err != nil {
				return err
			}

		case req.Items != nil:
			priced, err := apppricing.Quote(ctx, repos.Items(), tenantID, toLineInputs(req.Items))
			if err != nil {
				return err
			}
			if err := s.ledger.Rebalance(ctx, repos.Items(), tenantID, old, stockLines(priced.Lines)); err != nil {
				return err
			}
			if err := inv.ReplaceItems(priced.Lines); err != nil {
				return err
			}
			if err := repos.Invoices().ReplaceItems(ctx, inv); err != nil {
				return err
			}
			patch.CustomerID = req.CustomerID

		default:
			patch.CustomerID = req.CustomerID
		}

		if patch.CustomerID != nil && *patch.CustomerID != inv.CustomerID {
			if _, err := repos.Customers().FindByIDForTenant(ctx, tenantID, *patch.CustomerID); err != nil {
				return err
			}
		}
		if err := inv.ApplyPatch(patch); err != nil {
			return err
		}
		return repos.Invoices().Update(ctx, inv)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)

	s.logger.Info("invoice updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.Bool("sales_order_rebound", req.SalesOrderID != nil),
		zap.Bool("items_replaced", req.SalesOrderID == nil && req.Items != nil),
	)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// UpdateStatus moves the invoice to the given status. Leaving PENDING is
// final; stock is not affected.
func (s *InvoiceService) UpdateStatus(ctx context.Context, tenantID, invoiceID uuid.UUID, rawStatus string) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "UpdateStatus",
		telemetry.WithAttribute(telemetry.AttrTenantID, tenantID),
		telemetry.WithAttribute(telemetry.AttrDocumentID, invoiceID),
		telemetry.WithAttribute(telemetry.AttrStatusTo, rawStatus),
	)
	defer span.End()

	target, err := invoicing.ParseInvoiceStatus(rawStatus)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var inv *invoicing.Invoice
	err = s.txScope.Execute(ctx, func(repos coordinator.Repositories) error {
		var err error
		inv, err = repos.Invoices().LockByIDForTenant(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if err := inv.ChangeStatus(target); err != nil {
			return err
		}
		return repos.Invoices().Update(ctx, inv)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)

	s.logger.Info("invoice status changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("status", target.String()),
	)
	s.publishEvents(ctx, inv)

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Mail sends the invoice to its customer. A delivery failure does not fail
// the call; it comes back as a warning next to the invoice.
func (s *InvoiceService) Mail(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, []string, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if err := s.notifier.Notify(ctx, notification.FromInvoice(inv)); err != nil {
		s.logger.Warn("failed to mail invoice",
			zap.String("tenant_id", tenantID.String()),
			zap.String("invoice_id", invoiceID.String()),
			zap.Error(err),
		)
		warnings = append(warnings, "Invoice email could not be sent: "+err.Error())
	}

	resp := ToInvoiceResponse(inv)
	return &resp, warnings, nil
}

// lockInvoiceableOrder locks the order and checks that it is ACCEPTED and
// not yet referenced by an invoice other than exclude.
func (s *InvoiceService) lockInvoiceableOrder(ctx context.Context, repos coordinator.Repositories, tenantID, orderID uuid.UUID, exclude *uuid.UUID) (*sales.SalesOrder, error) {
	order, err := repos.Orders().LockByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsAccepted() {
		return nil, shared.NewInvalidStateError(
			fmt.Sprintf("Sales order #%d is %s; only ACCEPTED orders can be invoiced", order.OrderNumber, order.Status))
	}
	exists, err := repos.Invoices().ExistsForSalesOrder(ctx, tenantID, orderID, exclude)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewConflictError(fmt.Sprintf("Sales order #%d has already been invoiced", order.OrderNumber))
	}
	return order, nil
}

func (s *InvoiceService) invoiceNumber(ctx context.Context, repos coordinator.Repositories, tenantID uuid.UUID, supplied *int64) (int64, error) {
	if supplied != nil {
		if err := repos.Counters().AdvancePast(ctx, tenantID, numbering.KindInvoice, *supplied); err != nil {
			return 0, err
		}
		return *supplied, nil
	}
	return repos.Counters().NextNumber(ctx, tenantID, numbering.KindInvoice)
}

func (s *InvoiceService) publishEvents(ctx context.Context, inv *invoicing.Invoice) {
	events := inv.GetDomainEvents()
	inv.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish invoice events",
			zap.String("invoice_id", inv.ID.String()),
			zap.Error(err),
		)
	}
}

func toDomainFilter(filter InvoiceListFilter) (invoicing.InvoiceFilter, error) {
	out := invoicing.InvoiceFilter{
		Page:      shared.Page{Limit: filter.Limit, Offset: filter.Offset}.Normalize(),
		From:      filter.StartDate,
		MinAmount: filter.MinAmount,
		MaxAmount: filter.MaxAmount,
	}
	if filter.Status != "" {
		status, err := invoicing.ParseInvoiceStatus(filter.Status)
		if err != nil {
			return out, err
		}
		out.Status = &status
	}
	if filter.CustomerID != "" {
		id, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			return out, shared.NewValidationError("Invalid customer ID",
				shared.ErrorDetail{Field: "customerId", Message: "must be a UUID", Value: filter.CustomerID})
		}
		out.CustomerID = &id
	}
	if filter.EndDate != nil {
		// endDate is inclusive of the whole day
		end := filter.EndDate.Add(24*time.Hour - time.Nanosecond)
		out.To = &end
	}
	if out.MinAmount != nil && out.MaxAmount != nil && *out.MinAmount > *out.MaxAmount {
		return out, shared.NewValidationError("minAmount cannot exceed maxAmount",
			shared.ErrorDetail{Field: "minAmount", Message: "must be <= maxAmount", Value: *out.MinAmount})
	}
	return out, nil
}

func stockLines(lines []pricing.Line) []inventory.StockLine {
	out := make([]inventory.StockLine, len(lines))
	for i, l := range lines {
		out[i] = inventory.StockLine{ItemID: l.ItemID, Quantity: l.Quantity}
	}
	return out
}

func issueDate(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func valueOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
