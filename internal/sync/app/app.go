package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fintrakhq/banksync/internal/sync/cache"
	httpapi "github.com/fintrakhq/banksync/internal/sync/http"
	"github.com/fintrakhq/banksync/internal/sync/service"
	"github.com/fintrakhq/banksync/internal/sync/store"
	"github.com/fintrakhq/banksync/internal/sync/store/drivers/memory"
	"github.com/fintrakhq/banksync/internal/sync/store/drivers/mongo"
	"github.com/fintrakhq/banksync/pkg/gocardless"
	"github.com/fintrakhq/banksync/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the bank sync service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	provider *gocardless.Client
	cache    *cache.Institutions // nil when Redis is not configured

	// Services
	bankService   *service.BankService
	syncService   *service.SyncService
	importService *service.ImportService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "banksync",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initCache(); err != nil {
		_ = app.db.Close(context.Background())
		return nil, err
	}

	app.provider = gocardless.New(gocardless.Config{
		Credentials: gocardless.Credentials{
			SecretID:  cfg.GoCardlessSecretID,
			SecretKey: cfg.GoCardlessSecretKey,
		},
		BaseURL: cfg.GoCardlessBaseURL,
		Logger:  app.logger,
	})

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("bank sync service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down bank sync service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("error closing institutions cache", "error", err)
		}
	}

	if err := app.db.Close(ctx); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("bank sync service stopped")
	return nil
}

// initDatabase connects to MongoDB when MONGO_URI is set, otherwise falls
// back to the in-memory store. The fallback keeps local development and tests
// free of infrastructure but loses everything on restart.
func (app *Application) initDatabase() error {
	if app.cfg.MongoURI == "" {
		app.logger.Warn("MONGO_URI not set, using in-memory store")
		app.db = memory.New()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := mongo.Open(ctx, app.cfg.MongoURI, app.cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	app.db = db

	app.logger.Info("connected to mongodb", "database", app.cfg.MongoDatabase)
	return nil
}

// initCache wires the Redis-backed institutions cache when REDIS_ADDR is
// set. Without it institution lookups hit the provider every time.
func (app *Application) initCache() error {
	if app.cfg.RedisAddr == "" {
		app.logger.Info("REDIS_ADDR not set, institutions cache disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := cache.NewInstitutions(ctx, app.cfg.RedisAddr, app.cfg.InstitutionTTL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.cache = c

	app.logger.Info("institutions cache enabled", "addr", app.cfg.RedisAddr, "ttl", app.cfg.InstitutionTTL)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	// A nil *cache.Institutions must not masquerade as a non-nil interface.
	var institutionCache service.InstitutionCache
	if app.cache != nil {
		institutionCache = app.cache
	}

	app.bankService = service.NewBankService(app.provider, institutionCache, app.cfg.DefaultCountry)
	app.syncService = service.NewSyncService(app.provider, app.db)
	app.importService = service.NewImportService(app.db)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	// Wire services to router
	router.BankService = app.bankService
	router.SyncService = app.syncService
	router.ImportService = app.importService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
