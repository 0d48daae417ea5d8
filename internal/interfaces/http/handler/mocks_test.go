package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/rsjrcat/invoice-server-main-hd/internal/application/inventory"
	invoicingapp "github.com/rsjrcat/invoice-server-main-hd/internal/application/invoicing"
	salesapp "github.com/rsjrcat/invoice-server-main-hd/internal/application/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/dto"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// newTestRouter returns an engine whose requests already carry tenantID
func newTestRouter(tenantID uuid.UUID) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), func(c *gin.Context) {
		if tenantID != uuid.Nil {
			c.Set(middleware.TenantIDKey, tenantID)
		}
		c.Next()
	})
	return router
}

func doJSON(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

type mockItemService struct {
	mock.Mock
}

func (m *mockItemService) Create(ctx context.Context, tenantID uuid.UUID, req inventoryapp.CreateItemRequest) (*inventoryapp.ItemResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.ItemResponse), args.Error(1)
}

func (m *mockItemService) GetByID(ctx context.Context, tenantID, itemID uuid.UUID) (*inventoryapp.ItemResponse, error) {
	args := m.Called(ctx, tenantID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.ItemResponse), args.Error(1)
}

func (m *mockItemService) List(ctx context.Context, tenantID uuid.UUID, filter inventoryapp.ItemListFilter) (shared.Paginated[inventoryapp.ItemResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(shared.Paginated[inventoryapp.ItemResponse]), args.Error(1)
}

func (m *mockItemService) Update(ctx context.Context, tenantID, itemID uuid.UUID, req inventoryapp.UpdateItemRequest) (*inventoryapp.ItemResponse, error) {
	args := m.Called(ctx, tenantID, itemID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.ItemResponse), args.Error(1)
}

func (m *mockItemService) Restock(ctx context.Context, tenantID, itemID uuid.UUID, req inventoryapp.RestockRequest) (*inventoryapp.ItemResponse, error) {
	args := m.Called(ctx, tenantID, itemID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.ItemResponse), args.Error(1)
}

type mockSalesOrderService struct {
	mock.Mock
}

func (m *mockSalesOrderService) Create(ctx context.Context, tenantID uuid.UUID, req salesapp.CreateSalesOrderRequest) (*salesapp.SalesOrderResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.SalesOrderResponse), args.Error(1)
}

func (m *mockSalesOrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*salesapp.SalesOrderResponse, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.SalesOrderResponse), args.Error(1)
}

func (m *mockSalesOrderService) List(ctx context.Context, tenantID uuid.UUID, filter salesapp.SalesOrderListFilter) (shared.Paginated[salesapp.SalesOrderResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(shared.Paginated[salesapp.SalesOrderResponse]), args.Error(1)
}

func (m *mockSalesOrderService) Update(ctx context.Context, tenantID, orderID uuid.UUID, req salesapp.UpdateSalesOrderRequest) (*salesapp.SalesOrderResponse, error) {
	args := m.Called(ctx, tenantID, orderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.SalesOrderResponse), args.Error(1)
}

func (m *mockSalesOrderService) UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, rawStatus string) (*salesapp.SalesOrderResponse, error) {
	args := m.Called(ctx, tenantID, orderID, rawStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.SalesOrderResponse), args.Error(1)
}

func (m *mockSalesOrderService) Mail(ctx context.Context, tenantID, orderID uuid.UUID) (*salesapp.SalesOrderResponse, []string, error) {
	args := m.Called(ctx, tenantID, orderID)
	var warnings []string
	if w := args.Get(1); w != nil {
		warnings = w.([]string)
	}
	if args.Get(0) == nil {
		return nil, warnings, args.Error(2)
	}
	return args.Get(0).(*salesapp.SalesOrderResponse), warnings, args.Error(2)
}

type mockInvoiceService struct {
	mock.Mock
}

func (m *mockInvoiceService) Create(ctx context.Context, tenantID uuid.UUID, req invoicingapp.CreateInvoiceRequest) (*invoicingapp.InvoiceResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicingapp.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) GetByID(ctx context.Context, tenantID, invoiceID uuid.UUID) (*invoicingapp.InvoiceResponse, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicingapp.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter invoicingapp.InvoiceListFilter) (shared.Paginated[invoicingapp.InvoiceResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(shared.Paginated[invoicingapp.InvoiceResponse]), args.Error(1)
}

func (m *mockInvoiceService) Export(ctx context.Context, tenantID uuid.UUID, filter invoicingapp.InvoiceListFilter, w io.Writer) (int, error) {
	args := m.Called(ctx, tenantID, filter, w)
	if fn, ok := args.Get(0).(func(io.Writer) int); ok {
		return fn(w), args.Error(1)
	}
	return args.Int(0), args.Error(1)
}

func (m *mockInvoiceService) Update(ctx context.Context, tenantID, invoiceID uuid.UUID, req invoicingapp.UpdateInvoiceRequest) (*invoicingapp.InvoiceResponse, error) {
	args := m.Called(ctx, tenantID, invoiceID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicingapp.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) UpdateStatus(ctx context.Context, tenantID, invoiceID uuid.UUID, rawStatus string) (*invoicingapp.InvoiceResponse, error) {
	args := m.Called(ctx, tenantID, invoiceID, rawStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicingapp.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) Mail(ctx context.Context, tenantID, invoiceID uuid.UUID) (*invoicingapp.InvoiceResponse, []string, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	var warnings []string
	if w := args.Get(1); w != nil {
		warnings = w.([]string)
	}
	if args.Get(0) == nil {
		return nil, warnings, args.Error(2)
	}
	return args.Get(0).(*invoicingapp.InvoiceResponse), warnings, args.Error(2)
}
