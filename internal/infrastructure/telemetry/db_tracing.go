package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQueryThreshold = 200 * time.Millisecond

type contextKey string

const queryStartTimeKey contextKey = "invoicing_query_start_time"

// DBTracingPlugin is a gorm.Plugin that installs otelgorm spans and flags
// statements slower than the configured threshold.
type DBTracingPlugin struct {
	logFullSQL     bool
	slowThreshold  time.Duration
	tracerProvider trace.TracerProvider
	logger         *zap.Logger
}

// DBTracingOption configures a DBTracingPlugin
type DBTracingOption func(*DBTracingPlugin)

// WithDBTracerProvider overrides the global tracer provider
func WithDBTracerProvider(tp trace.TracerProvider) DBTracingOption {
	return func(p *DBTracingPlugin) {
		p.tracerProvider = tp
	}
}

// NewDBTracingPlugin creates the plugin. Returns nil when DB tracing is off,
// so callers can skip registration.
func NewDBTracingPlugin(cfg config.TelemetryConfig, logger *zap.Logger, opts ...DBTracingOption) *DBTracingPlugin {
	if !cfg.Enabled || !cfg.DBTraceEnabled {
		return nil
	}
	p := &DBTracingPlugin{
		logFullSQL:    cfg.DBLogFullSQL,
		slowThreshold: cfg.DBSlowQueryThresh,
		logger:        logger,
	}
	if p.slowThreshold <= 0 {
		p.slowThreshold = defaultSlowQueryThreshold
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements gorm.Plugin
func (p *DBTracingPlugin) Name() string {
	return "invoicing:db_tracing"
}

// Initialize implements gorm.Plugin
func (p *DBTracingPlugin) Initialize(db *gorm.DB) error {
	opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
	if !p.logFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if p.tracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(p.tracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	registrations := []struct {
		before, after func(name string, fn func(*gorm.DB)) error
		op            string
	}{
		{cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register, "create"},
		{cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register, "query"},
		{cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register, "update"},
		{cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register, "delete"},
		{cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register, "row"},
		{cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register, "raw"},
	}
	for _, r := range registrations {
		if err := r.before("invoicing_timing:before_"+r.op, markQueryStart); err != nil {
			return err
		}
		if err := r.after("invoicing_timing:after_"+r.op, p.checkSlowQuery); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.logFullSQL),
		zap.Duration("slow_query_threshold", p.slowThreshold),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

func (p *DBTracingPlugin) checkSlowQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if elapsed <= p.slowThreshold {
		return
	}

	fields := []zap.Field{
		zap.String("table", db.Statement.Table),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", db.Statement.RowsAffected),
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		fields = append(fields, zap.Error(db.Error))
	}
	p.logger.Warn("slow query", fields...)

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}

var _ gorm.Plugin = (*DBTracingPlugin)(nil)
