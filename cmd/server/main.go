package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	inventoryapp "github.com/storefront/backend/internal/application/inventory"
	appsync "github.com/storefront/backend/internal/application/sync"
	syncdomain "github.com/storefront/backend/internal/domain/sync"
	"github.com/storefront/backend/internal/infrastructure/adapters"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/scheduler"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting inventory sync engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry: tracing and metrics
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	var runMetrics appsync.RunMetrics = appsync.NopRunMetrics{}
	if meterProvider.IsEnabled() {
		syncMetrics, err := telemetry.NewSyncMetrics(meterProvider.Meter("sync"))
		if err != nil {
			log.Fatal("Failed to initialize sync metrics", zap.Error(err))
		}
		runMetrics = syncMetrics
	}

	// Database
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, logger.NewGormLogger(log, gormLogLevel))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.DBTraceEnabled {
		if err := db.EnableTracing(); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}
	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected")

	// Repositories
	branchRepo := persistence.NewGormBranchRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	inventoryRepo := persistence.NewGormBranchInventoryRepository(db.DB)
	integrationRepo := persistence.NewGormIntegrationRepository(db.DB)
	runRepo := persistence.NewGormSyncRunRepository(db.DB)
	mappingRepo := persistence.NewGormKeyMappingRepository(db.DB)

	// Idempotency store: Redis with in-memory fallback outside production
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Stock adapters. The spreadsheet adapter needs object storage; when
	// storage is not configured the adapter type is simply not registered.
	adapterList := []syncdomain.StockAdapter{
		adapters.NewERPAdapter(),
		adapters.NewPOSTerminalAdapter(log),
		adapters.NewWebhookAdapter(),
		adapters.NewCustomAdapter(),
	}
	if cfg.Storage.Bucket != "" {
		objectStore, err := storage.NewS3ObjectStorage(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		adapterList = append(adapterList, adapters.NewSpreadsheetAdapter(objectStore, log))
	} else {
		log.Warn("Object storage not configured, spreadsheet integrations unavailable")
	}

	registry, err := adapters.NewRegistry(adapterList...)
	if err != nil {
		log.Fatal("Failed to build adapter registry", zap.Error(err))
	}

	// Application services
	reconciler := appsync.NewReconciler(inventoryRepo, productRepo, mappingRepo, log)
	orchestrator, err := appsync.NewOrchestrator(appsync.OrchestratorConfig{
		RunTimeout:            cfg.Sync.RunTimeout,
		AdapterRetryAttempts:  cfg.Sync.AdapterRetryAttempts,
		AdapterRetryBaseDelay: cfg.Sync.AdapterRetryBaseDelay,
		AdapterRetryMaxDelay:  cfg.Sync.AdapterRetryMaxDelay,
	}, integrationRepo, runRepo, registry, reconciler, runMetrics, log)
	if err != nil {
		log.Fatal("Failed to create orchestrator", zap.Error(err))
	}

	registrationService := appsync.NewRegistrationService(integrationRepo, branchRepo, registry, log)
	historyService := appsync.NewHistoryService(runRepo, log)
	webhookService := appsync.NewWebhookService(integrationRepo, runRepo, registry, reconciler, idempotencyStore, runMetrics, log)
	inventoryService := inventoryapp.NewInventoryService(inventoryRepo, productRepo)

	// Background scheduler
	if cfg.Sync.SchedulerEnabled {
		schedConfig := scheduler.DefaultConfig()
		schedConfig.TickInterval = cfg.Sync.TickInterval
		schedConfig.WorkerCount = cfg.Sync.WorkerCount
		schedConfig.LedgerKeepPerIntegration = cfg.Sync.LedgerKeepPerIntegration
		schedConfig.LedgerMaxAge = cfg.Sync.LedgerMaxAge
		schedConfig.LedgerPruneInterval = cfg.Sync.LedgerPruneInterval

		syncScheduler, err := scheduler.NewSyncScheduler(schedConfig, orchestrator, historyService, log)
		if err != nil {
			log.Fatal("Failed to create sync scheduler", zap.Error(err))
		}
		if err := syncScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			if err := syncScheduler.Stop(); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()
		log.Info("Sync scheduler started",
			zap.Duration("tick_interval", schedConfig.TickInterval),
			zap.Int("worker_count", schedConfig.WorkerCount),
		)
	}

	// HTTP surface
	middleware.SetupValidator()
	engine, err := router.NewEngine(cfg, log)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	integrationHandler := handler.NewIntegrationHandler(registrationService, historyService, orchestrator, log)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	webhookHandler := handler.NewWebhookHandler(webhookService, log)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(integrationHandler).
		Register(inventoryHandler).
		Register(webhookHandler).
		Setup()

	systemHandler := handler.NewSystemHandler(dbPinger{db}, version)
	systemHandler.RegisterRoutes(engine)

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// dbPinger adapts the database to the readiness probe's context-aware ping
type dbPinger struct {
	db *persistence.Database
}

func (p dbPinger) Ping(ctx context.Context) error {
	return p.db.DB.WithContext(ctx).Raw("SELECT 1").Error
}
