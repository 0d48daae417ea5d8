// Package integration runs the invoicing API end to end: the full gin stack
// over a real database, with mail captured in memory.
package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/rsjrcat/invoice-server-main-hd/internal/application/inventory"
	invoicingapp "github.com/rsjrcat/invoice-server-main-hd/internal/application/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/application/notification"
	salesapp "github.com/rsjrcat/invoice-server-main-hd/internal/application/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/cache"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/event"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/export"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/logger"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/persistence"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/printing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/handler"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/middleware"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/router"
	"github.com/rsjrcat/invoice-server-main-hd/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Server is a fully wired API over db
type Server struct {
	Engine *gin.Engine
	DB     *persistence.Database
	Mailer *testutil.RecordingMailer
	Events *testutil.EventRecorder
	// Invoices reaches status moves the HTTP routes do not offer
	Invoices *invoicingapp.InvoiceService
}

// NewServer wires the services, event bus and middleware chain the way the
// server binary does, minus telemetry exporters and auth
func NewServer(t *testing.T, db *persistence.Database) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	log := zaptest.NewLogger(t)
	repos := persistence.NewRepositories(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	templates, err := printing.NewDocumentTemplates(printing.WithCompanyName("Acme Billing"))
	require.NoError(t, err)
	mailer := &testutil.RecordingMailer{}
	notifier := notification.NewDispatcher(repos.Customers(), repos.Items(), templates, mailer, log)

	ledger := inventoryapp.NewLedger(log)
	itemService := inventoryapp.NewItemService(repos.Items(), txScope, ledger, log)
	orderService := salesapp.NewSalesOrderService(repos.Orders(), txScope, notifier, log)
	invoiceService := invoicingapp.NewInvoiceService(repos.Invoices(), txScope, ledger, notifier, log,
		invoicingapp.WithWorkbookWriter(export.NewInvoiceWorkbook()),
	)

	recorder := testutil.NewEventRecorder()
	bus := event.NewInMemoryEventBus(log, event.WithAsyncDispatch())
	bus.Subscribe(recorder)
	bus.Subscribe(notification.NewStatusChangedHandler(repos.Orders(), repos.Invoices(), notifier, log))
	require.NoError(t, bus.Start(context.Background()))
	orderService.SetEventPublisher(bus)
	invoiceService.SetEventPublisher(bus)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = bus.Stop(ctx)
	})

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.Logger = log

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.TenantMiddlewareWithConfig(tenantConfig),
	)
	router.Setup(engine, router.Handlers{
		Inventory:  handler.NewInventoryHandler(itemService),
		SalesOrder: handler.NewSalesOrderHandler(orderService),
		Invoice:    handler.NewInvoiceHandler(invoiceService),
		System:     handler.NewSystemHandler(db, "test"),
	}, middleware.Idempotency(middleware.IdempotencyConfig{Store: store, Logger: log}))

	return &Server{Engine: engine, DB: db, Mailer: mailer, Events: recorder, Invoices: invoiceService}
}

// Client returns an API client acting for tenantID
func (s *Server) Client(tenantID uuid.UUID) *testutil.Client {
	return testutil.NewClient(s.Engine, tenantID)
}

// CreateItem creates an inventory item through the API
func CreateItem(t *testing.T, c *testutil.Client, name string, unitPrice, quantity int64, taxRate string) inventoryapp.ItemResponse {
	t.Helper()
	body := map[string]any{"name": name, "unitPrice": unitPrice, "quantity": quantity}
	if taxRate != "" {
		body["taxRate"] = taxRate
	}
	return testutil.DecodeData[inventoryapp.ItemResponse](t,
		c.Do(t, http.MethodPost, "/api/v1/inventory-items", body), http.StatusCreated)
}

// CreateAcceptedOrder creates a sales order for one line and accepts it
func CreateAcceptedOrder(t *testing.T, c *testutil.Client, customerID, itemID uuid.UUID, quantity int64) salesapp.SalesOrderResponse {
	t.Helper()
	order := testutil.DecodeData[salesapp.SalesOrderResponse](t, c.Do(t, http.MethodPost, "/api/v1/sales-orders", map[string]any{
		"customerId": customerID,
		"items":      []map[string]any{{"inventoryItemId": itemID, "quantity": quantity}},
	}), http.StatusCreated)

	return testutil.DecodeData[salesapp.SalesOrderResponse](t,
		c.Do(t, http.MethodPatch, "/api/v1/sales-orders/"+order.ID.String()+"/status/accept", nil), http.StatusOK)
}

// GetItem reads an inventory item through the API
func GetItem(t *testing.T, c *testutil.Client, id uuid.UUID) inventoryapp.ItemResponse {
	t.Helper()
	return testutil.DecodeData[inventoryapp.ItemResponse](t,
		c.Do(t, http.MethodGet, "/api/v1/inventory-items/"+id.String(), nil), http.StatusOK)
}
