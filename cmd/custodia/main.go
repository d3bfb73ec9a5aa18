package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/custodia-app/custodia/internal/auth"
	"github.com/custodia-app/custodia/internal/config"
	"github.com/custodia-app/custodia/internal/database"
	"github.com/custodia-app/custodia/internal/handlers"
	"github.com/custodia-app/custodia/internal/logging"
	"github.com/custodia-app/custodia/internal/service"
	appSignals "github.com/custodia-app/custodia/internal/signals"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Determine if we're in development mode
	isDev := os.Getenv("ENV") != "production"

	// Initialize logging
	logging.Initialize(isDev)

	logger := logging.GetLogger("main")

	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("build_date", date).
		Msg("Starting Custodia")

	// Create context that's canceled on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("Received signal, initiating shutdown")
		cancel()
	}()

	if err := run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Application run failed")
	}
}

func run(ctx context.Context) error {
	logger := logging.GetLogger("main")

	// Get config file path from environment or use default
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "configs/custodia.toml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error().Err(err).Str("config_path", configPath).Msg("Failed to load configuration")
		return err
	}

	// Set log level from configuration
	logging.SetLogLevel(cfg.Service.LogLevel)
	logger.Info().Str("log_level", cfg.Service.LogLevel).Msg("Log level set")

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(cfg.Service.DatabaseFile), 0755); err != nil {
		logger.Error().Err(err).Str("path", filepath.Dir(cfg.Service.DatabaseFile)).Msg("Failed to create data directory")
		return err
	}

	// Initialize database
	db, err := database.New(database.NewDefaultOptions(cfg.Service.DatabaseFile))
	if err != nil {
		wrappedErr := fmt.Errorf("failed to initialize database: %w", err)
		logger.Error().Err(wrappedErr).Str("db_path", cfg.Service.DatabaseFile).Msg("Database initialization failed")
		return wrappedErr
	}
	defer db.Close()

	if err := db.MigrateDatabase(); err != nil {
		wrappedErr := fmt.Errorf("failed to initialize database schema: %w", err)
		logger.Error().Err(wrappedErr).Msg("Database schema initialization failed")
		return wrappedErr
	}

	// Initialize stores
	userStore := database.NewUserStore(db)
	familyStore := database.NewFamilyStore(db)
	rotationStore := database.NewRotationStore(db)
	eventStore := database.NewEventStore(db)
	swapStore := database.NewSwapStore(db)
	settingsStore := database.NewSettingsStore(db)

	// Seed the default calendar window once; later changes made through the
	// settings API survive restarts.
	if err := settingsStore.SeedDefaults(ctx, cfg.Calendar.MonthsBack, cfg.Calendar.MonthsForward); err != nil {
		wrappedErr := fmt.Errorf("failed to seed settings: %w", err)
		logger.Error().Err(wrappedErr).Msg("Settings seeding failed")
		return wrappedErr
	}

	// Initialize services
	rotationService := service.NewRotationService(rotationStore, familyStore)
	eventService := service.NewEventService(eventStore, familyStore)
	swapService := service.NewSwapService(swapStore, eventStore, familyStore)
	calendarService := service.NewCalendarService(rotationStore, eventStore, familyStore, settingsStore)

	tokenService := auth.NewTokenService(cfg.Secrets.JWTSecret, cfg.Auth.Issuer)

	// Initialize base handler first, as other handlers depend on it
	baseHandler := handlers.NewBaseHandler(tokenService, userStore)
	rotationHandler := handlers.NewRotationHandler(baseHandler, rotationService)
	eventHandler := handlers.NewEventHandler(baseHandler, eventService)
	swapHandler := handlers.NewSwapHandler(baseHandler, swapService)
	calendarHandler := handlers.NewCalendarHandler(baseHandler, calendarService)
	settingsHandler := handlers.NewSettingsHandler(baseHandler, settingsStore)
	webhookHandler := handlers.NewWebhookHandler(baseHandler, db, userStore, cfg.Secrets.WebhookSecret)
	healthHandler := handlers.NewHealthHandler(baseHandler, db, webhookHandler)

	// Register routes
	rotationHandler.RegisterRoutes()
	eventHandler.RegisterRoutes()
	swapHandler.RegisterRoutes()
	calendarHandler.RegisterRoutes()
	settingsHandler.RegisterRoutes()
	webhookHandler.RegisterRoutes()
	healthHandler.RegisterRoutes()

	registerAuditListeners()

	// Start HTTP server
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Service.Port),
	}

	go func() {
		logger.Info().Int("port", cfg.Service.Port).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Context cancelled, initiating shutdown sequence")

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shut down gracefully")
	}
	logger.Info().Msg("Shutdown complete")
	return nil
}

// registerAuditListeners writes an audit log line for every calendar-affecting
// state change the services emit.
func registerAuditListeners() {
	appSignals.OnRotationCreated(func(_ context.Context, data appSignals.RotationCreatedData) {
		logger := logging.GetLogger("audit")
		logger.Info().
			Str("family_id", data.FamilyID.String()).
			Str("rotation_id", data.RotationID.String()).
			Str("pattern", data.Pattern).
			Msg("Rotation created")
	}, "audit-rotation-created")

	appSignals.OnRotationDeactivated(func(_ context.Context, data appSignals.RotationDeactivatedData) {
		logger := logging.GetLogger("audit")
		logger.Info().
			Str("family_id", data.FamilyID.String()).
			Str("rotation_id", data.RotationID.String()).
			Msg("Rotation deactivated")
	}, "audit-rotation-deactivated")

	appSignals.OnEventChanged(func(_ context.Context, data appSignals.EventChangedData) {
		logger := logging.GetLogger("audit")
		logger.Info().
			Str("family_id", data.FamilyID.String()).
			Str("event_id", data.EventID.String()).
			Str("child_id", data.ChildID.String()).
			Bool("deleted", data.Deleted).
			Msg("Visitation event changed")
	}, "audit-event-changed")

	appSignals.OnSwapResolved(func(_ context.Context, data appSignals.SwapResolvedData) {
		logger := logging.GetLogger("audit")
		logger.Info().
			Str("family_id", data.FamilyID.String()).
			Str("swap_id", data.SwapID.String()).
			Bool("approved", data.Approved).
			Msg("Swap request resolved")
	}, "audit-swap-resolved")
}
