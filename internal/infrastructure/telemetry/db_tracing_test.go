package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func openTracedDB(t *testing.T, plugin gorm.Plugin) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	if plugin != nil {
		require.NoError(t, db.Use(plugin))
	}
	return db
}

func TestNewDBTracingPlugin_Disabled(t *testing.T) {
	assert.Nil(t, NewDBTracingPlugin(config.TelemetryConfig{DBTraceEnabled: true}, zap.NewNop()))
	assert.Nil(t, NewDBTracingPlugin(config.TelemetryConfig{Enabled: true}, zap.NewNop()))
}

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	p := NewDBTracingPlugin(config.TelemetryConfig{Enabled: true, DBTraceEnabled: true}, zap.NewNop())
	require.NotNil(t, p)
	assert.Equal(t, defaultSlowQueryThreshold, p.slowThreshold)
	assert.False(t, p.logFullSQL)
	assert.Equal(t, "invoicing:db_tracing", p.Name())
}

func TestDBTracingPlugin_RecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	p := NewDBTracingPlugin(
		config.TelemetryConfig{Enabled: true, DBTraceEnabled: true},
		zap.NewNop(),
		WithDBTracerProvider(tp),
	)
	db := openTracedDB(t, p)

	ctx, parent := tp.Tracer("test").Start(context.Background(), "request")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "widget"}).Error)
	var rows []tracedRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	parent.End()

	assert.Len(t, rows, 1)

	var dbSpans int
	for _, s := range sr.Ended() {
		if s.Name() != "request" {
			dbSpans++
			assert.Equal(t, parent.SpanContext().TraceID(), s.SpanContext().TraceID())
		}
	}
	assert.GreaterOrEqual(t, dbSpans, 2)
}

func TestDBTracingPlugin_FlagsSlowQueries(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := NewDBTracingPlugin(
		config.TelemetryConfig{Enabled: true, DBTraceEnabled: true, DBSlowQueryThresh: time.Nanosecond},
		zap.New(core),
	)
	db := openTracedDB(t, p)

	require.NoError(t, db.WithContext(context.Background()).Create(&tracedRow{Name: "slow"}).Error)

	slow := logs.FilterMessage("slow query").All()
	require.NotEmpty(t, slow)
	assert.Equal(t, "traced_rows", slow[0].ContextMap()["table"])
}

func TestDBTracingPlugin_FastQueriesNotLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := NewDBTracingPlugin(
		config.TelemetryConfig{Enabled: true, DBTraceEnabled: true, DBSlowQueryThresh: time.Hour},
		zap.New(core),
	)
	db := openTracedDB(t, p)

	require.NoError(t, db.Create(&tracedRow{Name: "fast"}).Error)
	assert.Zero(t, logs.FilterMessage("slow query").Len())
}
