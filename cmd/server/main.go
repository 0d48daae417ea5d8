package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rsjrcat/invoice-server-main-hd/internal/application/coordinator"
	inventoryapp "github.com/rsjrcat/invoice-server-main-hd/internal/application/inventory"
	invoicingapp "github.com/rsjrcat/invoice-server-main-hd/internal/application/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/application/notification"
	salesapp "github.com/rsjrcat/invoice-server-main-hd/internal/application/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/auth"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/cache"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/config"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/event"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/export"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/logger"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/mail"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/persistence"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/printing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/storage"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/telemetry"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/handler"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/middleware"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/router"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//	@title			Invoicing API
//	@version		1.0
//	@description	Multi-tenant inventory, sales order and invoice service

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()
	bootLog := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})

	// Telemetry first, so the log bridge can be teed into the main logger
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output},
		telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, loggerProvider, logger.ParseLevel(cfg.Log.Level)),
	)
	defer func() { _ = log.Sync() }()

	log.Info("Starting invoicing server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	var plugins []gorm.Plugin
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		plugins = append(plugins, telemetry.NewDBTracingPlugin(cfg.Telemetry, log))
	}
	db, err := persistence.NewDatabase(cfg.Database,
		persistence.WithLogger(gormLog),
		persistence.WithPlugins(plugins...),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to migrate database schema", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	repos := persistence.NewRepositories(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Idempotency keys
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Business metrics double as the stock rejection observer of the ledger
	businessMetrics, err := telemetry.NewBusinessMetrics(meterProvider.Meter("invoicing"), log)
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	ledger := inventoryapp.NewLedger(log, inventoryapp.WithRejectionObserver(businessMetrics))

	// Document delivery
	notifier, closeNotifier := newNotifier(ctx, cfg, repos, log)

	itemService := inventoryapp.NewItemService(repos.Items(), txScope, ledger, log)
	salesOrderService := salesapp.NewSalesOrderService(repos.Orders(), txScope, notifier, log)
	invoiceService := invoicingapp.NewInvoiceService(repos.Invoices(), txScope, ledger, notifier, log,
		invoicingapp.WithDefaultDueDays(cfg.Invoice.DefaultDueDays),
		invoicingapp.WithWorkbookWriter(export.NewInvoiceWorkbook()),
	)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log, event.WithAsyncDispatch())
	eventBus.Subscribe(businessMetrics)
	eventBus.Subscribe(notification.NewStatusChangedHandler(repos.Orders(), repos.Invoices(), notifier, log))

	var kafkaForwarder *event.KafkaForwarder
	if cfg.Kafka.Enabled {
		serializer := event.NewEventSerializer()
		event.RegisterAllEvents(serializer)
		kafkaForwarder = event.NewKafkaForwarder(event.NewKafkaWriter(event.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			WriteTimeout: cfg.Kafka.BatchTimeout,
		}), serializer, log)
		eventBus.Subscribe(kafkaForwarder)
		log.Info("Kafka event forwarding enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	salesOrderService.SetEventPublisher(eventBus)
	invoiceService.SetEventPublisher(eventBus)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	tracingConfig := middleware.DefaultTracingConfig()
	tracingConfig.ServiceName = cfg.Telemetry.ServiceName
	tracingConfig.Enabled = cfg.Telemetry.Enabled
	tracingConfig.TracerProvider = otel.GetTracerProvider()

	profilingConfig := middleware.DefaultProfilingConfig()
	profilingConfig.Enabled = profiler.IsEnabled()

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
		middleware.TracingWithConfig(tracingConfig),
		middleware.SpanEnricher(),
		middleware.HTTPMetrics(meterProvider.Meter("invoicing.http"), log),
	)

	if cfg.JWT.Enabled {
		jwtConfig := middleware.DefaultJWTConfig(auth.NewTokenVerifier(cfg.JWT))
		jwtConfig.Logger = log
		engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	}

	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.HeaderEnabled = !cfg.JWT.Enabled
	tenantConfig.Logger = log
	engine.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimit > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimit),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	engine.Use(middleware.ProfilingWithConfig(profilingConfig))

	router.Setup(engine, router.Handlers{
		Inventory:  handler.NewInventoryHandler(itemService),
		SalesOrder: handler.NewSalesOrderHandler(salesOrderService),
		Invoice:    handler.NewInvoiceHandler(invoiceService),
		System:     handler.NewSystemHandler(db, version),
	}, middleware.Idempotency(middleware.IdempotencyConfig{
		Store:  idempotencyStore,
		TTL:    cfg.HTTP.IdempotencyTTL,
		Logger: log,
	}))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Reverse order of construction: stop producers before their sinks
	if rateLimiter != nil {
		rateLimiter.Stop()
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if kafkaForwarder != nil {
		if err := kafkaForwarder.Close(); err != nil {
			log.Error("Error closing kafka writer", zap.Error(err))
		}
	}
	closeNotifier()
	if err := idempotencyStore.Close(); err != nil {
		log.Error("Error closing idempotency store", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	_ = loggerProvider.Shutdown(shutdownCtx)
}

// newNotifier assembles the document dispatcher: HTML templates, the
// configured mailer, and optionally PDF rendering and S3 archiving. The
// returned func releases the browser.
func newNotifier(ctx context.Context, cfg *config.Config, repos coordinator.RepositorySet, log *zap.Logger) (notification.Notifier, func()) {
	templates, err := printing.NewDocumentTemplates(
		printing.WithCompanyName(cfg.App.Name),
	)
	if err != nil {
		log.Fatal("Failed to parse document templates", zap.Error(err))
	}
	mailer, err := mail.New(cfg.Mail, log)
	if err != nil {
		log.Fatal("Failed to create mailer", zap.Error(err))
	}

	var opts []notification.DispatcherOption
	closeFn := func() {}

	if cfg.PDF.Enabled {
		renderer, err := printing.NewChromedpRenderer(cfg.PDF, log)
		if err != nil {
			log.Fatal("Failed to create PDF renderer", zap.Error(err))
		}
		opts = append(opts, notification.WithPDFConverter(renderer))
		closeFn = func() {
			if err := renderer.Close(); err != nil {
				log.Error("Error closing PDF renderer", zap.Error(err))
			}
		}
	}

	if cfg.Storage.Enabled {
		archive, err := storage.NewS3DocumentArchive(ctx, cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create document archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Warn("Document archive bucket unavailable", zap.Error(err), zap.String("bucket", archive.Bucket()))
		}
		opts = append(opts, notification.WithArchive(archive))
	}

	return notification.NewDispatcher(repos.Customers(), repos.Items(), templates, mailer, log, opts...), closeFn
}
