package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/app"
	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/repository"
	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/repository/file"
	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/repository/postgres"
	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/script"
	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/telephony"
	"github.com/aradsms/alert_call_gateway/internal/platform/config"
	"github.com/aradsms/alert_call_gateway/internal/platform/database"
	"github.com/aradsms/alert_call_gateway/internal/platform/logger"
	"github.com/aradsms/alert_call_gateway/internal/public_api_service/middleware"
	httptransport "github.com/aradsms/alert_call_gateway/internal/public_api_service/transport/http"
)

const serviceName = "call_dispatch_service"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("Failed to load .env file", "service", serviceName, "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Call dispatch service starting...", "port", cfg.HTTPPort, "directory_source", cfg.DirectorySource, "telephony_provider", cfg.TelephonyProvider)
	if cfg.BearerToken == "" {
		appLogger.Warn("HTTPD_BEARER_TOKEN is empty; call routes are not authenticated")
	}

	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	src, closeSource, err := newDirectorySource(mainCtx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to open directory source", "error", err)
		os.Exit(1)
	}
	directory, err := repository.LoadDirectory(mainCtx, src)
	closeSource()
	if err != nil {
		appLogger.Error("Failed to load contact directory", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Contact directory loaded", "contacts", directory.ContactCount(), "contact_groups", directory.GroupCount())

	templateSource, err := file.LoadTemplate(cfg.TwimlFilePath)
	if err != nil {
		appLogger.Error("Failed to read call script template", "error", err)
		os.Exit(1)
	}
	render, err := script.Compile(templateSource)
	if err != nil {
		appLogger.Error("Failed to compile call script template", "path", cfg.TwimlFilePath, "error", err)
		os.Exit(1)
	}

	var gateway telephony.Gateway
	switch cfg.TelephonyProvider {
	case config.TelephonyProviderMock:
		gateway = telephony.NewMockGateway(appLogger, 0, 50, 250)
		appLogger.Warn("Using mock telephony provider; no real calls will be placed")
	default:
		gateway = telephony.NewTwilioGateway(logger.New(cfg.TwilioLogLevel), cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	}

	dispatcher := app.NewDispatcher(directory, render, gateway, app.DispatcherConfig{
		OriginNumber:   cfg.TwilioPhoneNumber,
		DefaultTimeout: cfg.DefaultCallTimeout(),
	}, appLogger)

	limiter := middleware.NewAdmissionLimiter(cfg.RateWindow(), cfg.RateLimitCall, nil)
	router := httptransport.NewRouter(
		httptransport.NewCallHandler(dispatcher, appLogger),
		middleware.AuthMiddleware(cfg.BearerToken, appLogger),
		middleware.RateLimitMiddleware(limiter, appLogger),
		appLogger,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed", "error", err)
			return fmt.Errorf("http server on %s: %w", httpServer.Addr, err)
		}
		appLogger.Info("HTTP server stopped.")
		return nil
	})

	g.Go(func() error {
		stopSignal := make(chan os.Signal, 1)
		signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(stopSignal)
		select {
		case sig := <-stopSignal:
			appLogger.Info("Received termination signal", "signal", sig.String())
			mainCancel()
		case <-groupCtx.Done():
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Initiating graceful shutdown of HTTP server...", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("HTTP server shutdown failed", "error", err)
			return err
		}
		return nil
	})

	appLogger.Info("Service is ready and running.")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Service group encountered an error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Service shutdown complete.")
}

// newDirectorySource opens the configured directory source. The returned
// func releases its resources once the directory has been loaded.
func newDirectorySource(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) (repository.DirectorySource, func(), error) {
	switch cfg.DirectorySource {
	case config.DirectorySourcePostgres:
		dbPool, err := database.NewDBPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		appLogger.Info("Connected to PostgreSQL for contact directory")
		return postgres.NewPgxDirectoryRepository(dbPool, appLogger), dbPool.Close, nil
	default:
		return file.NewDirectorySource(cfg.ContactsFilePath, cfg.ContactGroupsFilePath, appLogger), func() {}, nil
	}
}
