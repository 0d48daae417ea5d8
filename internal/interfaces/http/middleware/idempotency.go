package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Idempotency headers
const (
	IdempotencyKeyHeader     = "Idempotency-Key"
	IdempotentReplayedHeader = "Idempotent-Replayed"
	// MaxIdempotencyKeyLength bounds client supplied keys
	MaxIdempotencyKeyLength = 255
)

// DefaultIdempotencyTTL is how long a completed response stays replayable
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Store  shared.IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

// Idempotency makes a create route safe to retry. Requests carrying an
// Idempotency-Key reserve the key for their tenant, method and route; the
// response is stored unless it is a 5xx, and later requests with the same key
// get the stored response back with Idempotent-Replayed: true. Requests
// without the header pass through. Must run after the tenant middleware.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	base := cfg.Logger
	if base == nil {
		base = zap.NewNop()
	}

	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if raw == "" || cfg.Store == nil {
			c.Next()
			return
		}
		if len(raw) > MaxIdempotencyKeyLength {
			abortWithError(c, shared.CodeValidation, "Idempotency-Key must be at most 255 characters")
			return
		}

		key := idempotencyKey(c, raw)
		log := logger.Enrich(c.Request.Context(), base)

		stored, reserved, err := cfg.Store.Reserve(c.Request.Context(), key, ttl)
		switch {
		case errors.Is(err, shared.ErrRequestInProgress):
			abortWithError(c, shared.CodeConflict, "A request with this Idempotency-Key is still in progress")
			return
		case err != nil:
			log.Warn("Idempotency store unavailable, executing without replay protection", zap.Error(err))
			c.Next()
			return
		case stored != nil:
			c.Header(IdempotentReplayedHeader, "true")
			c.Data(stored.Status, stored.ContentType, stored.Body)
			c.Abort()
			return
		case !reserved:
			c.Next()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec

		// context.WithoutCancel keeps the store calls alive after a client
		// disconnect or request timeout
		storeCtx := context.WithoutCancel(c.Request.Context())
		completed := false
		defer func() {
			if completed {
				return
			}
			if relErr := cfg.Store.Release(storeCtx, key); relErr != nil {
				log.Warn("Failed to release idempotency key", zap.Error(relErr))
			}
		}()

		c.Next()

		status := rec.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		resp := shared.StoredResponse{
			Status:      status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		}
		if err := cfg.Store.Complete(storeCtx, key, resp, ttl); err != nil {
			log.Warn("Failed to store idempotent response", zap.Error(err))
			return
		}
		completed = true
	}
}

// idempotencyKey scopes a client key to the tenant, method and route
func idempotencyKey(c *gin.Context, raw string) string {
	tenant := "-"
	if tenantID, ok := GetTenantID(c); ok {
		tenant = tenantID.String()
	}
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return tenant + ":" + c.Request.Method + ":" + route + ":" + raw
}

// bodyRecorder copies the response body while writing it through
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
