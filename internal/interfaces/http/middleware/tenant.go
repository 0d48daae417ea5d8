package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/logger"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/telemetry"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/dto"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Tenant context keys
const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// HeaderEnabled allows the X-Tenant-ID header when no token claim is present
	HeaderEnabled bool
	// SkipPaths are paths that don't require tenant context
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		HeaderEnabled: true,
		SkipPaths:     []string{"/health"},
	}
}

type tenantHeader struct {
	TenantID string `header:"X-Tenant-ID" binding:"omitempty,tenant_uuid"`
}

// TenantMiddleware resolves the tenant of the request with the default config
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// TenantMiddlewareWithConfig resolves the tenant of the request. The JWT
// claim wins over the X-Tenant-ID header. Requests without a usable tenant
// are rejected with 401.
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}

		raw, source := GetJWTTenantID(c), "jwt"
		if raw == "" && cfg.HeaderEnabled {
			var h tenantHeader
			if err := c.ShouldBindHeader(&h); err != nil {
				abortWithError(c, dto.ErrCodeUnauthorized, "Invalid tenant ID format")
				return
			}
			raw, source = h.TenantID, "header"
		}
		if raw == "" {
			abortWithError(c, dto.ErrCodeUnauthorized, "Tenant identification required")
			return
		}

		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			abortWithError(c, dto.ErrCodeUnauthorized, "Invalid tenant ID format")
			return
		}

		c.Set(TenantIDKey, tenantID)
		ctx := logger.WithTenantID(c.Request.Context(), tenantID.String())
		c.Request = c.Request.WithContext(ctx)
		telemetry.SetAttributes(trace.SpanFromContext(ctx), telemetry.AttrTenantID, tenantID.String())

		log.Debug("Tenant identified",
			zap.String("tenant_id", tenantID.String()),
			zap.String("method", source),
		)
		c.Next()
	}
}

// GetTenantID retrieves the tenant resolved by TenantMiddleware
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(TenantIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}
