// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"coach-matching/internal/api"
	"coach-matching/internal/common/camunda"
	"coach-matching/internal/common/config"
	"coach-matching/internal/common/logger"
	"coach-matching/internal/common/observability"
	"coach-matching/internal/common/validation"
	"coach-matching/internal/geography"
	"coach-matching/internal/matching"
	"coach-matching/pkg/registry"

	rpc "coach-matching/internal/workers/catalog/refresh-provider-catalog"
	mp "coach-matching/internal/workers/matching/match-providers"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("catalogSource", cfg.Catalog.Source),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	// --- Geography & registry ---
	regions, err := geography.Load(cfg.Catalog.GeographyPath)
	if err != nil {
		zapLog.Fatal("region table load failed", zap.Error(err))
	}

	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}
	validator, err := validation.NewSchemaValidator(reg)
	if err != nil {
		zapLog.Fatal("schema compilation failed", zap.Error(err))
	}

	// --- Catalog ---
	deps, err := buildCatalog(ctx, cfg, regions, zapLog, log)
	if err != nil {
		zapLog.Fatal("catalog source setup failed", zap.Error(err))
	}
	defer deps.Close()

	// Warm the cache; a failure here is retried on the first request.
	if cat, err := deps.cached.Load(ctx); err != nil {
		zapLog.Warn("initial catalog load failed", zap.Error(err))
	} else {
		zapLog.Info("catalog ready", zap.Int("providers", len(cat.Providers)))
	}

	engine := matching.NewEngine(regions)

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Workers ---
	pool := camunda.NewWorkerPool(zeebe.GetClient(), log)

	matchCfg := mp.LoadConfig()
	wcfg := config.GetWorkerConfig(cfg, mp.TaskType)
	if wcfg.Timeout > 0 {
		matchCfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	matchHandler := mp.NewHandler(matchCfg, deps.cached, engine, validator, obs, log)
	pool.Start(mp.TaskType, wcfg, matchHandler.Handle)

	refreshCfg := rpc.LoadConfig()
	wcfg = config.GetWorkerConfig(cfg, rpc.TaskType)
	if wcfg.Timeout > 0 {
		refreshCfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	refreshHandler := rpc.NewHandler(refreshCfg, deps.cached, obs, log)
	pool.Start(rpc.TaskType, wcfg, refreshHandler.Handle)

	zapLog.Info("workers registered", zap.Strings("taskTypes", pool.TaskTypes()))

	// --- HTTP server ---
	checks := map[string]api.Check{
		"zeebe": zeebe.HealthCheck,
	}
	for name, check := range deps.checks {
		checks[name] = check
	}

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(api.Deps{
			Source:    deps.cached,
			Refresher: deps.cached,
			Engine:    engine,
			Validator: validator,
			Checks:    checks,
			Logger:    log,
		}),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// --- Graceful Shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping workers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()

		pool.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("HTTP server shutdown failed", zap.Error(err))
		}
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("worker manager exited with error", zap.Error(err))
	}
	zapLog.Info("Worker manager stopped gracefully")
}
