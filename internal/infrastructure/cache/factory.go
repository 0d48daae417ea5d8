package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/config"
	"go.uber.org/zap"
)

const defaultConnectTimeout = 5 * time.Second

// IdempotencyStoreFactory picks the idempotency store for the configured
// environment: Redis when enabled, memory otherwise or as a fallback
type IdempotencyStoreFactory struct {
	cfg            config.RedisConfig
	logger         *zap.Logger
	fallback       bool
	connectTimeout time.Duration
}

// FactoryOption configures an IdempotencyStoreFactory
type FactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger used to report the chosen store
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory store. Defaults to true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.fallback = allow
	}
}

// WithConnectTimeout bounds the initial Redis ping
func WithConnectTimeout(d time.Duration) FactoryOption {
	return func(f *IdempotencyStoreFactory) {
		if d > 0 {
			f.connectTimeout = d
		}
	}
}

// NewIdempotencyStoreFactory creates a factory for cfg
func NewIdempotencyStoreFactory(cfg config.RedisConfig, opts ...FactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		cfg:            cfg,
		logger:         zap.NewNop(),
		fallback:       true,
		connectTimeout: defaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore connects to Redis when enabled. A failed ping yields the
// in-memory store when fallback is allowed and an error otherwise.
func (f *IdempotencyStoreFactory) CreateStore(ctx context.Context) (shared.IdempotencyStore, error) {
	if !f.cfg.Enabled {
		f.logger.Info("redis disabled, idempotency keys kept in memory")
		return NewInMemoryIdempotencyStore(), nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, f.connectTimeout)
	defer cancel()

	store, err := NewRedisIdempotencyStore(pingCtx, f.cfg)
	switch {
	case err == nil:
		f.logger.Info("idempotency keys kept in redis", zap.String("addr", f.cfg.Addr()))
		return store, nil
	case !f.fallback:
		return nil, fmt.Errorf("redis required for idempotency keys: %w", err)
	}

	// Retries that land on another instance will not be replayed
	f.logger.Warn("redis unreachable, idempotency keys kept in memory",
		zap.String("addr", f.cfg.Addr()),
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}
