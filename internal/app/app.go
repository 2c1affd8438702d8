package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"wcabridge/internal/config"
	apierrors "wcabridge/internal/errors"
	"wcabridge/internal/exporter"
	"wcabridge/internal/files"
	"wcabridge/internal/infrastructure"
	customMiddleware "wcabridge/internal/middleware"
	"wcabridge/internal/services"
	handlers "wcabridge/internal/transport/http"
	"wcabridge/pkg/contracts"
)

// AppName is reported at startup
const AppName = "wcabridge"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Services      *ServiceContainer
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Conversion *services.ConversionService
	Store      *services.ConversionStore
	Files      *files.Manager
	Health     *services.HealthService
	Metrics    *infrastructure.ConversionMetrics
}

// NewApplication loads configuration from configPath (empty searches the
// default locations) and wires every component.
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	return newApplication(cfg, paths, logger, otelProviders)
}

// newApplication wires an application from already loaded parts
func newApplication(cfg *config.Config, paths *config.Paths, logger *slog.Logger, otelProviders *infrastructure.OTelProviders) (*Application, error) {
	logger.Info("Ensuring required directories exist")
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.NewConversionMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create conversion metrics: %w", err)
	}

	conversion := services.NewConversionService(
		a.Config.Conversion,
		exporter.NewDatasetWriter(nil, a.Logger),
		a.Logger,
		services.WithMetrics(metrics),
		services.WithTracer(a.OTelProviders.Tracer),
		services.WithReviewExporter(exporter.NewReviewExporter(exporter.NewCSVWriter(a.Paths), a.Logger)),
	)

	a.Services = &ServiceContainer{
		Conversion: conversion,
		Store:      services.NewConversionStore(a.Config.Server.StoreCapacity),
		Files:      files.NewManager(a.Paths),
		Health:     services.NewHealthService(a.Paths, a.Logger),
		Metrics:    metrics,
	}
	return nil
}

// setupRouter configures the HTTP router with all routes and middleware
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Services.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(apierrors.RecoveryMiddleware(errorHandler))
	r.Use(customMiddleware.StripSlashes)
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(a.getCORSConfig()))

	if rl := a.Config.Server.RateLimit; rl.Enabled && rl.RPS > 0 {
		limiter := customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger, "/api/health", "/metrics")
		r.Use(limiter.Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		a.setupAPIRoutes(r, errorHandler)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API routes
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	r.Use(render.SetContentType(render.ContentTypeJSON))

	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	r.Get("/health", healthHandler.HealthCheck)
	r.Get("/health/ready", healthHandler.ReadinessCheck)
	r.Get("/health/live", healthHandler.LivenessCheck)
	r.Get("/version", healthHandler.Version)

	r.Mount("/metrics", handlers.NewMetricsHandler(a.Services.Store, a.OTelProviders.PrometheusHTTP).Routes())

	validator := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler, a.Config.Server.MaxUploadBytes)
	conversionHandler := handlers.NewConversionHandler(
		a.Services.Conversion,
		a.Services.Store,
		a.Services.Files,
		validator,
		a.Config.Conversion.DatasetFileName,
		a.Logger,
		errorHandler,
	)

	r.Route("/v1", func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout, a.Logger))
		r.Mount("/conversions", conversionHandler.Routes())
	})
}

// getCORSConfig returns the CORS configuration. Without configured origins
// only local development hosts are accepted.
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	origins := a.Config.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{
			fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
			fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
		}
	}
	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.ServerAddr(),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts the HTTP server in the background. cancel is called if the
// server stops unexpectedly.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", "http://"+a.Server.Addr))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing log file", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck verifies the working directories are writable
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	directories := map[string]string{
		"Uploads":  a.Paths.UploadsDir,
		"Datasets": a.Paths.DatasetsDir,
		"Reports":  a.Paths.ReportsDir,
		"Logs":     a.Paths.LogsDir,
	}

	var warnings []string
	for name, dir := range directories {
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
			continue
		}
		os.Remove(testFile)
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
