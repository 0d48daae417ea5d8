package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/handler"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/test/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("invoicing", "/invoices")
		assert.Equal(t, "invoicing", g.Name())
		assert.Equal(t, "/invoices", g.Prefix())
	})

	t.Run("group middleware runs before routes", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test").
			Use(func(c *gin.Context) {
				c.Header("X-Group", "yes")
				c.Next()
			}).
			PATCH("/items/:id", func(c *gin.Context) {
				c.String(http.StatusOK, c.Param("id"))
			})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/v1/test/items/abc", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "abc", w.Body.String())
		assert.Equal(t, "yes", w.Header().Get("X-Group"))
	})
}

func newTestHandlers() Handlers {
	return Handlers{
		Inventory:  handler.NewInventoryHandler(nil),
		SalesOrder: handler.NewSalesOrderHandler(nil),
		Invoice:    handler.NewInvoiceHandler(nil),
		System:     handler.NewSystemHandler(nil, "test"),
	}
}

func TestSetup_RegistersResourceRoutes(t *testing.T) {
	engine := gin.New()
	Setup(engine, newTestHandlers(), nil)

	registered := make(map[string]bool)
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	want := []string{
		"GET /health",
		"POST /api/v1/inventory-items",
		"GET /api/v1/inventory-items",
		"GET /api/v1/inventory-items/search",
		"GET /api/v1/inventory-items/:id",
		"PATCH /api/v1/inventory-items/:id",
		"POST /api/v1/inventory-items/:id/restock",
		"POST /api/v1/sales-orders",
		"GET /api/v1/sales-orders",
		"GET /api/v1/sales-orders/:id",
		"PATCH /api/v1/sales-orders/:id",
		"PATCH /api/v1/sales-orders/:id/status/accept",
		"PATCH /api/v1/sales-orders/:id/status/reject",
		"POST /api/v1/sales-orders/:id/mail",
		"POST /api/v1/invoices",
		"GET /api/v1/invoices",
		"GET /api/v1/invoices/export",
		"GET /api/v1/invoices/:id",
		"PATCH /api/v1/invoices/:id",
		"PATCH /api/v1/invoices/:id/status/paid",
		"PATCH /api/v1/invoices/:id/status/overdue",
		"PATCH /api/v1/invoices/:id/status/cancelled",
		"POST /api/v1/invoices/:id/mail",
	}
	for _, route := range want {
		assert.True(t, registered[route], "missing route %s", route)
	}
	assert.Len(t, engine.Routes(), len(want))
}

func TestSetup_IdempotencyGuardsCreatesOnly(t *testing.T) {
	engine := gin.New()
	guard := func(c *gin.Context) {
		c.AbortWithStatus(http.StatusTeapot)
	}
	Setup(engine, newTestHandlers(), guard)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/api/v1/invoices", http.StatusTeapot},
		{http.MethodPost, "/api/v1/sales-orders", http.StatusTeapot},
		{http.MethodPost, "/api/v1/inventory-items", http.StatusTeapot},
		// no tenant in context, so the handler answers 401 before touching its service
		{http.MethodGet, "/api/v1/invoices", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/invoices/export", http.StatusUnauthorized},
		{http.MethodPatch, "/api/v1/sales-orders/00000000-0000-0000-0000-000000000001/status/accept", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
