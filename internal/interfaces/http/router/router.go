package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/handler"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered on Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes under /api/<version>
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup collects the routes of one resource under a common prefix
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new resource route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to every route of this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// Handle registers a route. Routes are registered in the order they are
// added, so static segments like /export must come before /:id.
func (dg *DomainGroup) Handle(method, path string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: method, path: path, handlers: handlers})
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodGet, path, handlers...)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPost, path, handlers...)
}

// PATCH registers a PATCH route
func (dg *DomainGroup) PATCH(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPatch, path, handlers...)
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// Handlers bundles the HTTP handlers of the service
type Handlers struct {
	Inventory  *handler.InventoryHandler
	SalesOrder *handler.SalesOrderHandler
	Invoice    *handler.InvoiceHandler
	System     *handler.SystemHandler
}

// Setup wires the health probe at the root and every resource under
// /api/v1. idempotency, when non-nil, guards the creating POST endpoints.
func Setup(engine *gin.Engine, h Handlers, idempotency gin.HandlerFunc) {
	engine.GET("/health", h.System.Health)

	creating := func(final gin.HandlerFunc) []gin.HandlerFunc {
		if idempotency == nil {
			return []gin.HandlerFunc{final}
		}
		return []gin.HandlerFunc{idempotency, final}
	}

	items := NewDomainGroup("inventory", "/inventory-items").
		POST("", creating(h.Inventory.Create)...).
		GET("", h.Inventory.List).
		GET("/search", h.Inventory.Search).
		GET("/:id", h.Inventory.GetByID).
		PATCH("/:id", h.Inventory.Update).
		POST("/:id/restock", h.Inventory.Restock)

	orders := NewDomainGroup("sales", "/sales-orders").
		POST("", creating(h.SalesOrder.Create)...).
		GET("", h.SalesOrder.List).
		GET("/:id", h.SalesOrder.GetByID).
		PATCH("/:id", h.SalesOrder.Update).
		PATCH("/:id/status/accept", h.SalesOrder.Accept).
		PATCH("/:id/status/reject", h.SalesOrder.Reject).
		POST("/:id/mail", h.SalesOrder.Mail)

	invoices := NewDomainGroup("invoicing", "/invoices").
		POST("", creating(h.Invoice.Create)...).
		GET("", h.Invoice.List).
		GET("/export", h.Invoice.Export).
		GET("/:id", h.Invoice.GetByID).
		PATCH("/:id", h.Invoice.Update).
		PATCH("/:id/status/paid", h.Invoice.MarkPaid).
		PATCH("/:id/status/overdue", h.Invoice.MarkOverdue).
		PATCH("/:id/status/cancelled", h.Invoice.Cancel).
		POST("/:id/mail", h.Invoice.Mail)

	NewRouter(engine).
		Register(items).
		Register(orders).
		Register(invoices).
		Setup()
}
