package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/logger"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTenantRouter(cfg TenantMiddlewareConfig, pre ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(pre...)
	router.Use(TenantMiddlewareWithConfig(cfg))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/test", func(c *gin.Context) {
		id, ok := GetTenantID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"tenant": id.String(),
			"logCtx": logger.GetTenantID(c.Request.Context()),
		})
	})
	return router
}

func TestTenantMiddleware_HeaderExtraction(t *testing.T) {
	valid := uuid.NewString()
	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantMessage string
	}{
		{"valid header", valid, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, "Tenant identification required"},
		{"not a uuid", "acme", http.StatusUnauthorized, "Invalid tenant ID format"},
		{"nil uuid", uuid.Nil.String(), http.StatusUnauthorized, "Invalid tenant ID format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTenantRouter(DefaultTenantConfig())
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set(TenantHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, valid, body["tenant"])
				assert.Equal(t, valid, body["logCtx"])
				return
			}
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
			assert.Equal(t, tt.wantMessage, resp.Error.Message)
		})
	}
}

func TestTenantMiddleware_JWTClaimWins(t *testing.T) {
	claimTenant := uuid.NewString()
	router := newTenantRouter(DefaultTenantConfig(), JWTAuthMiddleware(newTestVerifier()))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+signTestToken(t, claimTenant, time.Minute))
	req.Header.Set(TenantHeaderKey, uuid.NewString())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, claimTenant, body["tenant"])
}

func TestTenantMiddleware_HeaderDisabled(t *testing.T) {
	cfg := DefaultTenantConfig()
	cfg.HeaderEnabled = false
	router := newTenantRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(TenantHeaderKey, uuid.NewString())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTenantMiddleware_SkipPaths(t *testing.T) {
	router := newTenantRouter(DefaultTenantConfig())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetTenantID_Absent(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	id, ok := GetTenantID(c)
	assert.False(t, ok)
	assert.Equal(t, uuid.Nil, id)
}
