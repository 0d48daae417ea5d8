package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/inventory"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/partner"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type stubCustomers map[uuid.UUID]*partner.Customer

func (s stubCustomers) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	c, ok := s[id]
	if !ok || c.TenantID != tenantID {
		return nil, shared.NewNotFoundError("Customer", id)
	}
	return c, nil
}

func (s stubCustomers) Save(_ context.Context, c *partner.Customer) error {
	s[c.ID] = c
	return nil
}

type stubItems struct {
	inventory.InventoryItemRepository
	items []inventory.InventoryItem
}

func (s stubItems) FindByIDsForTenant(_ context.Context, _ uuid.UUID, _ []uuid.UUID) ([]inventory.InventoryItem, error) {
	return s.items, nil
}

type stubRenderer struct{}

func (stubRenderer) RenderDocument(_ context.Context, doc Document, _ *partner.Customer) ([]byte, error) {
	return []byte("<html>" + doc.Title() + "</html>"), nil
}

func (stubRenderer) RenderEmail(_ context.Context, doc Document, c *partner.Customer) ([]byte, error) {
	return []byte("<p>Dear " + c.Name + "</p>"), nil
}

type stubPDF struct{ err error }

func (s stubPDF) Render(_ context.Context, html []byte) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]byte("%PDF-"), html...), nil
}

type recordingArchive struct {
	keys []string
	err  error
}

func (a *recordingArchive) Put(_ context.Context, key string, _ []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.keys = append(a.keys, key)
	return "s3://documents/" + key, nil
}

type recordingMailer struct {
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var errMailDown = errors.New("mail api unavailable")

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, doc Document) error {
	return m.Called(ctx, doc).Error(0)
}

type stubOrders struct {
	sales.SalesOrderRepository
	order *sales.SalesOrder
}

func (s stubOrders) FindByIDForTenant(_ context.Context, _, _ uuid.UUID) (*sales.SalesOrder, error) {
	return s.order, nil
}

type stubInvoices struct {
	invoicing.InvoiceRepository
	invoice *invoicing.Invoice
}

func (s stubInvoices) FindByIDForTenant(_ context.Context, _, _ uuid.UUID) (*invoicing.Invoice, error) {
	return s.invoice, nil
}
