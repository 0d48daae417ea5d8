package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/partner"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"go.uber.org/zap"
)

// Renderer produces the HTML of a document and of the mail that carries it
type Renderer interface {
	RenderDocument(ctx context.Context, doc Document, customer *partner.Customer) ([]byte, error)
	RenderEmail(ctx context.Context, doc Document, customer *partner.Customer) ([]byte, error)
}

// PDFConverter turns rendered HTML into a PDF
type PDFConverter interface {
	Render(ctx context.Context, html []byte) ([]byte, error)
}

// Archive keeps a copy of every PDF sent
type Archive interface {
	Put(ctx context.Context, key string, pdf []byte) (string, error)
}

// Attachment is a file sent with a mail
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is an outgoing mail
type Message struct {
	To          string
	ToName      string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers mail
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier sends a committed document to its customer
type Notifier interface {
	Notify(ctx context.Context, doc Document) error
}

// Dispatcher renders, converts, archives and mails documents. PDF
// conversion and archiving are skipped when not configured.
type Dispatcher struct {
	customers partner.CustomerRepository
	items     inventory.InventoryItemRepository
	renderer  Renderer
	mailer    Mailer
	pdf       PDFConverter
	archive   Archive
	logger    *zap.Logger
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithPDFConverter attaches a PDF rendering of the document to each mail
func WithPDFConverter(c PDFConverter) DispatcherOption {
	return func(d *Dispatcher) {
		d.pdf = c
	}
}

// WithArchive stores every generated PDF
func WithArchive(a Archive) DispatcherOption {
	return func(d *Dispatcher) {
		d.archive = a
	}
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(
	customers partner.CustomerRepository,
	items inventory.InventoryItemRepository,
	renderer Renderer,
	mailer Mailer,
	logger *zap.Logger,
	opts ...DispatcherOption,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		customers: customers,
		items:     items,
		renderer:  renderer,
		mailer:    mailer,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify sends doc to its customer
func (d *Dispatcher) Notify(ctx context.Context, doc Document) error {
	customer, err := d.customers.FindByIDForTenant(ctx, doc.TenantID, doc.CustomerID)
	if err != nil {
		return fmt.Errorf("load customer: %w", err)
	}
	if !customer.CanReceiveMail() {
		return shared.NewInvalidStateError(fmt.Sprintf("Customer %s has no email address", customer.Name))
	}

	if err := d.nameLines(ctx, &doc); err != nil {
		return err
	}

	body, err := d.renderer.RenderEmail(ctx, doc, customer)
	if err != nil {
		return fmt.Errorf("render mail: %w", err)
	}

	msg := Message{
		To:      customer.Email,
		ToName:  customer.Name,
		Subject: doc.Title(),
		HTML:    string(body),
	}
	if doc.Message != "" {
		msg.Subject = doc.Message
	}

	if d.pdf != nil {
		pdf, err := d.renderPDF(ctx, doc, customer)
		if err != nil {
			return err
		}
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename:    doc.FileName(),
			ContentType: "application/pdf",
			Content:     pdf,
		})
	}

	if err := d.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	d.logger.Info("document mailed",
		zap.String("tenant_id", doc.TenantID.String()),
		zap.String("document", doc.Title()),
		zap.String("document_id", doc.ID.String()),
	)
	return nil
}

func (d *Dispatcher) renderPDF(ctx context.Context, doc Document, customer *partner.Customer) ([]byte, error) {
	html, err := d.renderer.RenderDocument(ctx, doc, customer)
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	pdf, err := d.pdf.Render(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	if d.archive != nil {
		key := fmt.Sprintf("%s/%s", doc.TenantID, doc.FileName())
		url, err := d.archive.Put(ctx, key, pdf)
		if err != nil {
			// the mail can still go out without the archived copy
			d.logger.Warn("failed to archive document pdf",
				zap.String("key", key),
				zap.Error(err),
			)
		} else {
			d.logger.Debug("document pdf archived", zap.String("url", url))
		}
	}
	return pdf, nil
}

func (d *Dispatcher) nameLines(ctx context.Context, doc *Document) error {
	if len(doc.Lines) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		ids = append(ids, l.ItemID)
	}
	items, err := d.items.FindByIDsForTenant(ctx, doc.TenantID, ids)
	if err != nil {
		return fmt.Errorf("load line items: %w", err)
	}
	names := make(map[uuid.UUID]string, len(items))
	for _, item := range items {
		names[item.ID] = item.Name
	}
	lines := make([]Line, len(doc.Lines))
	for i, l := range doc.Lines {
		l.Name = names[l.ItemID]
		lines[i] = l
	}
	doc.Lines = lines
	return nil
}

var _ Notifier = (*Dispatcher)(nil)
