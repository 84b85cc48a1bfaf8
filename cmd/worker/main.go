package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jagadeesh/activity-router/internal/api"
	"github.com/jagadeesh/activity-router/internal/app"
	"github.com/jagadeesh/activity-router/internal/bus/natsbus"
	"github.com/jagadeesh/activity-router/internal/config"
	"github.com/jagadeesh/activity-router/internal/db"
	"github.com/jagadeesh/activity-router/internal/retention"
	"github.com/jagadeesh/activity-router/internal/worker"
)

func main() {
	config.LoadDotenv()
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DBURL == "" {
		slog.Error("DB_URL is required")
		os.Exit(1)
	}
	d, err := db.Connect(ctx, cfg.DBURL, int32(max(10, cfg.RouterMaxConcurrency)))
	if err != nil {
		slog.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer d.Close()

	if cfg.NATSURL == "" {
		slog.Error("NATS_URL is required to run workers")
		os.Exit(1)
	}

	pipeline, err := app.Build(ctx, cfg, d, prometheus.DefaultRegisterer)
	if err != nil {
		slog.Error("pipeline setup failed", "error", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	b, err := natsbus.Connect(cfg.NATSURL, "activity-router-worker")
	if err != nil {
		slog.Error("nats connect failed", "error", err)
		os.Exit(1)
	}

	consumer := &worker.GitHubWebhookConsumer{Ingest: pipeline.Ingestor}
	if err := consumer.Subscribe(ctx, b.Conn(), cfg.NATSQueue); err != nil {
		slog.Error("subscribe failed", "error", err)
		os.Exit(1)
	}

	pruner := retention.New(pipeline.Deliveries, cfg.DeliveryRetention, time.Hour, nil)
	go func() { _ = pruner.Run(ctx) }()

	metricsServer := api.NewMetrics(prometheus.DefaultGatherer)
	if cfg.MetricsAddr != "off" {
		go func() {
			slog.Info("starting metrics server", "addr", cfg.MetricsAddr)
			if err := metricsServer.Listen(cfg.MetricsAddr); err != nil {
				slog.Error("metrics server exited", "error", err)
			}
		}()
	}

	slog.Info("worker started", "queue", cfg.NATSQueue)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("worker shutting down")

	// Drain lets handlers that are routing an event finish.
	b.Close()
	cancel()
	time.Sleep(300 * time.Millisecond)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := api.Shutdown(shutdownCtx, metricsServer); err != nil {
		slog.Warn("metrics server shutdown failed", "error", err)
	}
}
