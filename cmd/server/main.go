// Package main runs the reports HTTP API: uploads are analyzed, summaries and
// equity curves persisted, and recent full reports served from a cache.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"trade-report-lab/internal/api"
	"trade-report-lab/internal/config"
	"trade-report-lab/internal/logging"
	"trade-report-lab/internal/observability"
	"trade-report-lab/internal/pipeline"
	"trade-report-lab/internal/storage/backend"
)

const serviceName = "trade-report-lab"

func main() {
	envFile := flag.String("env-file", ".env", "Optional .env file; existing variables win")
	addr := flag.String("addr", "", "HTTP listen address (default $HTTP_ADDR)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *useMemory {
		cfg.UseMemory = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateStorage(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Must(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("shutdown complete")
	_ = logger.Sync()
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.TracingEnabled, serviceName, os.Stderr)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	stores, err := createStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer stores.Close()

	cache, err := api.NewReportCache(cfg.CacheMaxCost, cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	defer cache.Close()

	analyzer := pipeline.NewAnalyzer(cfg.Analysis).
		WithStores(stores.Reports, stores.Curves).
		WithLogger(logger.Named("pipeline"))

	srv := api.NewServer(analyzer, stores.Reports, stores.Curves, cache, logger.Named("http"), observability.DefaultMetrics, api.Options{
		CORSOrigin:     cfg.CORSOrigin,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Analysis:       cfg.Analysis,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server",
			zap.String("addr", cfg.HTTPAddr),
			zap.Bool("use_memory", cfg.UseMemory),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// A second signal forces an immediate exit.
	go func() {
		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing exit", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-shutdownCtx.Done():
		}
	}()

	return httpServer.Shutdown(shutdownCtx)
}

// createStores opens the configured backend.
func createStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend.Stores, error) {
	if cfg.UseMemory {
		logger.Info("using in-memory storage")
		return backend.Memory(), nil
	}
	return backend.Open(ctx, cfg.PostgresDSN, cfg.ClickhouseDSN, logger)
}
