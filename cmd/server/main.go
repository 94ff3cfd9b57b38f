package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/lojas/internal"
	"github.com/dukerupert/lojas/internal/database"
	"github.com/dukerupert/lojas/internal/handler/api"
	"github.com/dukerupert/lojas/internal/middleware"
	"github.com/dukerupert/lojas/internal/postalcode"
	"github.com/dukerupert/lojas/internal/router"
	"github.com/dukerupert/lojas/internal/routes"
	"github.com/dukerupert/lojas/internal/service"
	"github.com/dukerupert/lojas/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	// Initialize Sentry
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	// Open the database and apply migrations
	repo, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	// Postal code providers: CEP Aberto first, ViaCEP as fallback
	cepAberto := postalcode.NewCepAberto(postalcode.CepAbertoConfig{
		BaseURL: cfg.PostalCode.CepAbertoURL,
		Token:   cfg.PostalCode.CepAbertoToken,
		Timeout: cfg.PostalCode.Timeout,
		Client:  telemetry.NewHTTPClient(cfg.PostalCode.Timeout),
	}, logger)
	viaCep := postalcode.NewViaCep(postalcode.ViaCepConfig{
		BaseURL: cfg.PostalCode.ViaCepURL,
		Timeout: cfg.PostalCode.Timeout,
		Client:  telemetry.NewHTTPClient(cfg.PostalCode.Timeout),
	}, logger)
	resolver := postalcode.NewResolver(cepAberto, viaCep, telemetry.NewLookupMetrics("lojas", nil), logger)

	// Initialize services
	storeService := service.NewStoreService(repo, resolver, logger)

	// ==========================================================================
	// Middleware and routes
	// ==========================================================================

	metrics := middleware.NewMetrics("lojas", nil)

	r := router.New(
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		middleware.Recovery,
		telemetry.SentryMiddleware(),
		metrics.Middleware,
		middleware.MaxBodySize(),
	)

	routes.RegisterAPIRoutes(r, routes.APIDeps{
		StoreHandler: api.NewStoreHandler(storeService, logger),
		Metrics:      metrics,
	})

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Leave room for a lookup that falls back to the second provider
		WriteTimeout: 2*cfg.PostalCode.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
