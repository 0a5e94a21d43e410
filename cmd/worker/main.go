// Command worker runs the background job pool, the stuck-job reaper, the
// webhook retry scheduler, and the domain-event consumer that fans events
// out to subscribed webhooks. It shares its dependency graph with
// cmd/server via internal/app.Wire.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cvenhancer/core/internal/app"
	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv), slog.String("run_mode", cfg.RunMode))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wired, err := app.Wire(ctx, cfg)
	if err != nil {
		slog.Error("dependency wiring failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer wired.Close()

	go wired.Workers.Run(ctx)
	go wired.Reaper.Run(ctx)
	go wired.Dispatch.RunRetryScheduler(ctx, 15*time.Second)
	go func() {
		if err := wired.Events.Consume(ctx, wired.Dispatch.HandleEvent); err != nil && ctx.Err() == nil {
			slog.Error("event bus consume error", slog.Any("error", err))
		}
	}()

	slog.Info("worker started successfully, waiting for shutdown signal")
	<-ctx.Done()
	slog.Info("shutdown signal received, stopping worker")
}
