// Command server starts the CV enhancement backend's HTTP API. When
// RUN_MODE is "all" it also runs the job workers and retry/webhook
// background loops in-process, for single-process deployments.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cvenhancer/core/internal/app"
	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/httpapi"
	"github.com/cvenhancer/core/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wired, err := app.Wire(ctx, cfg)
	if err != nil {
		slog.Error("dependency wiring failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer wired.Close()

	runMode := strings.ToLower(cfg.RunMode)
	if runMode == "all" {
		go wired.Workers.Run(ctx)
		go wired.Reaper.Run(ctx)
		go wired.Dispatch.RunRetryScheduler(ctx, 15*time.Second)
		go func() {
			if err := wired.Events.Consume(ctx, wired.Dispatch.HandleEvent); err != nil && ctx.Err() == nil {
				slog.Error("event bus consume error", slog.Any("error", err))
			}
		}()
		slog.Info("combined mode: workers and webhook fan-out running alongside the HTTP server")
	}

	handler := httpapi.BuildRouter(cfg, wired.Server)
	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port), slog.String("run_mode", cfg.RunMode))
		errCh <- srvHTTP.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
