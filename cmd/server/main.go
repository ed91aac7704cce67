package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/juju/loggo"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"taxi/internal/app"
	"taxi/internal/config"
	"taxi/internal/handler"
	internalRedis "taxi/internal/redis"
	"taxi/internal/repository/postgres"
	"taxi/internal/service"
)

var logger = loggo.GetLogger("taxi")

func main() {
	// Load configuration.
	cfg := config.Load()

	if err := loggo.ConfigureLoggers(cfg.Log.Spec); err != nil {
		logger.Warningf("invalid LOG_CONFIG %q: %v", cfg.Log.Spec, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Errorf("failed to initialize New Relic: %v", err)
		} else {
			logger.Infof("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Criticalf("failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Infof("connected to PostgreSQL")

	// Redis backs the shift start lock, the target setting and idempotent
	// replay. The ledger keeps working without it.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Warningf("redis unavailable, continuing without it: %v", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Infof("connected to Redis")
	}

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		logger.Infof("starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Criticalf("server error: %v", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Infof("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize Redis stores.
	var (
		lockStore        internalRedis.LockStoreInterface
		settingsStore    internalRedis.SettingsStoreInterface
		idempotencyStore internalRedis.IdempotencyStoreInterface
	)
	if redisClient != nil {
		lockStore = internalRedis.NewLockStore(redisClient)
		settingsStore = internalRedis.NewSettingsStore(redisClient)
		idempotencyStore = internalRedis.NewIdempotencyStore(redisClient)
	}

	// Initialize repositories.
	transactor := postgres.NewTransactor(db)
	shiftRepo := postgres.NewShiftRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	expenseRepo := postgres.NewExpenseRepository(db)

	// Initialize services.
	clk := clock.WallClock
	notificationService := service.NewNotificationService(nil)
	settingsService := service.NewSettingsService(settingsStore, cfg.Ledger.DailyTarget)
	shiftService := service.NewShiftService(
		transactor, shiftRepo, rideRepo, lockStore, notificationService,
		clk, cfg.Ledger.Location, cfg.Ledger.ShiftLockTTL,
	)
	rideService := service.NewRideService(shiftRepo, rideRepo, settingsService, notificationService, clk)
	expenseService := service.NewExpenseService(expenseRepo)
	summaryService := service.NewSummaryService(shiftRepo, rideRepo, expenseRepo, settingsService, clk)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		ShiftHandler:     handler.NewShiftHandler(shiftService),
		RideHandler:      handler.NewRideHandler(rideService),
		ExpenseHandler:   handler.NewExpenseHandler(expenseService),
		SummaryHandler:   handler.NewSummaryHandler(summaryService),
		SettingsHandler:  handler.NewSettingsHandler(settingsService),
		IdempotencyStore: idempotencyStore,
		NewRelicApp:      nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
