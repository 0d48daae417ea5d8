package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProfilingWithConfig_Disabled(t *testing.T) {
	called := false
	router := gin.New()
	router.Use(ProfilingWithConfig(ProfilingConfig{Enabled: false}))
	router.GET("/test", func(c *gin.Context) {
		called = true
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestProfilingWithConfig_AttachesLabels(t *testing.T) {
	tenantID := uuid.New()
	got := map[string]string{}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(TenantIDKey, tenantID)
		c.Next()
	}, Profiling())
	router.GET("/api/v1/sales-orders/:id", func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(key, value string) bool {
			got[key] = value
			return true
		})
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/sales-orders/1", nil))

	assert.Equal(t, http.MethodGet, got[ProfilingLabelMethod])
	assert.Equal(t, "/api/v1/sales-orders/:id", got[ProfilingLabelRoute])
	assert.Equal(t, "sales-orders", got[ProfilingLabelController])
	assert.Equal(t, tenantID.String(), got[ProfilingLabelTenantID])
}

func TestProfilingWithConfig_SkipPaths(t *testing.T) {
	labelled := false
	router := gin.New()
	router.Use(Profiling())
	router.GET("/health", func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(string, string) bool {
			labelled = true
			return false
		})
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.False(t, labelled)
}

func TestControllerFromRoute(t *testing.T) {
	tests := []struct {
		route string
		want  string
	}{
		{"/api/v1/invoices", "invoices"},
		{"/api/v1/invoices/:id/status/paid", "invoices"},
		{"/api/v2/inventory-items/search", "inventory-items"},
		{"/health", "health"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			assert.Equal(t, tt.want, controllerFromRoute(tt.route))
		})
	}
}
