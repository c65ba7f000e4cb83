package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/docuflow/review-console/internal/adapters/http"
	"github.com/docuflow/review-console/internal/bootstrap"
	"github.com/docuflow/review-console/internal/config"
	"github.com/docuflow/review-console/internal/observability/logging"
	"github.com/docuflow/review-console/internal/observability/metrics"
)

const serviceName = "review-console-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	m := metrics.NewHTTPServerMetrics(serviceName)
	router, err := httpadapter.NewRouter(
		httpadapter.RouterOptions{
			Service:         serviceName,
			RateLimitRPS:    cfg.APIRateLimitRPS,
			RateLimitBurst:  cfg.APIRateLimitBurst,
			MaxConcurrent:   cfg.APIMaxConcurrent,
			BackpressureMax: time.Duration(cfg.APIBackpressureMS) * time.Millisecond,
			BaseContext:     ctx,
			PollInterval:    time.Duration(cfg.CatalogPollInterval) * time.Second,
			ContainerWidth:  float64(cfg.OverlayContainerPx),
		},
		app.AnalyzeUC,
		app.CatalogUC,
		app.ReviewUC,
		app.Dashboard,
		app.Templates,
		app.Rasterizer,
		app.TextLayer,
		app.Resolver,
		m,
	)
	if err != nil {
		slog.Error("router error", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api shutdown error", "error", err)
	}
}
