package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/kirillkom/pdf-ocr-pipeline/internal/adapters/http"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/bootstrap"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/config"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/observability/logging"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("ocr-api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(cfg, app.ProcessUC, app.AsyncUC, app.BatchUC, app.StatsUC, app.History)
	router.SetMetrics(metrics.NewHTTPServerMetrics("ocr-api"), app.Metrics.Registry())

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.APIWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("api_listening", "port", cfg.APIPort, "storage_backend", cfg.StorageBackend, "ocr_engine", cfg.OCREngine)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return app.Registry.RunJanitor(gctx, cfg.TaskJanitorInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("api_shutdown_failed", "error", err)
		}
		if err := app.Pool.Shutdown(shutdownCtx); err != nil {
			slog.Warn("worker_pool_shutdown_incomplete", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("api_stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("api_stopped")
}
