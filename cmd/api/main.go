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
	"github.com/jagadeesh/activity-router/internal/bus"
	"github.com/jagadeesh/activity-router/internal/bus/natsbus"
	"github.com/jagadeesh/activity-router/internal/config"
	"github.com/jagadeesh/activity-router/internal/db"
	"github.com/jagadeesh/activity-router/internal/handlers"
	"github.com/jagadeesh/activity-router/internal/migrate"
	"github.com/jagadeesh/activity-router/internal/retention"
)

func main() {
	config.LoadDotenv()
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	slog.SetDefault(logger)

	var database *db.DB
	if cfg.DBURL == "" {
		if cfg.Env != "dev" {
			slog.Error("DB_URL is required in non-dev environments")
			os.Exit(1)
		}
		slog.Warn("DB_URL not set; running without database (webhooks are accepted but not routed)")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		d, err := db.Connect(ctx, cfg.DBURL, 0)
		cancel()
		if err != nil {
			slog.Error("db connect failed", "error", err)
			os.Exit(1)
		}
		database = d
		defer database.Close()

		if cfg.AutoMigrate {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			err := migrate.Up(ctx, database.Pool)
			cancel()
			if err != nil {
				slog.Error("auto-migrate failed", "error", err)
				os.Exit(1)
			}
			slog.Info("auto-migrate complete")
		}
	}

	var eventBus bus.Bus
	if cfg.NATSURL != "" {
		b, err := natsbus.Connect(cfg.NATSURL, "activity-router-api")
		if err != nil {
			slog.Error("nats connect failed", "error", err)
			os.Exit(1)
		}
		eventBus = b
		defer eventBus.Close()
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// Without NATS the API routes webhooks itself (dev convenience). In
	// production cmd/worker does the routing.
	var inline handlers.Ingester
	if eventBus == nil && database != nil {
		pipeline, err := app.Build(bgCtx, cfg, database, prometheus.DefaultRegisterer)
		if err != nil {
			slog.Error("pipeline setup failed", "error", err)
			os.Exit(1)
		}
		defer pipeline.Close()
		inline = pipeline.Ingestor

		pruner := retention.New(pipeline.Deliveries, cfg.DeliveryRetention, time.Hour, nil)
		go func() { _ = pruner.Run(bgCtx) }()
	}

	server := api.New(cfg, api.Deps{DB: database, Bus: eventBus, Ingest: inline})

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting http server", "addr", cfg.HTTPAddr)
		errCh <- server.Listen(cfg.HTTPAddr)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		// Fiber returns nil only on clean shutdown; treat any error as fatal.
		slog.Error("http server exited", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := api.Shutdown(ctx, server); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("shutdown complete")
}
