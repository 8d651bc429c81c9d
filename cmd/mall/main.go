// cmd/mall/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpin "storefront/internal/adapters/in/http"
	"storefront/internal/adapters/in/http/middleware"
	"storefront/internal/infra/config"
	"storefront/internal/infra/logging"
	"storefront/internal/infra/tracing"
	"storefront/internal/platform/di"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mall: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := tracing.Init(ctx, cfg.ServiceName, cfg.OTLPEndpoint, logger)
	if err != nil {
		logger.Warn("tracing init failed; continuing without traces", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	cont, err := di.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := cont.Close(); err != nil {
			logger.Warn("container close", zap.Error(err))
		}
	}()

	deps := cont.RouterDeps()
	if deps.Verifier == nil {
		logger.Warn("RouterDeps.Verifier is nil; authenticated routes are unavailable")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.CORS(cfg.AllowedOrigins)(httpin.NewRouter(deps)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	// Graceful shutdown for Cloud Run
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}
