package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jagadeesh/activity-router/internal/bus"
	"github.com/jagadeesh/activity-router/internal/config"
	"github.com/jagadeesh/activity-router/internal/db"
	"github.com/jagadeesh/activity-router/internal/handlers"
)

type Deps struct {
	DB  *db.DB
	Bus bus.Bus
	// Ingest handles webhooks inline when Bus is nil.
	Ingest handlers.Ingester
	// Metrics defaults to prometheus.DefaultGatherer.
	Metrics prometheus.Gatherer
}

func New(cfg config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "activity-router",
		IdleTimeout:  60 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Baseline middleware.
	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(logger.New())

	gatherer := deps.Metrics
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	var pinger handlers.Pinger
	if deps.DB != nil && deps.DB.Pool != nil {
		pinger = deps.DB.Pool
	}

	app.Get("/health", handlers.Health())
	app.Get("/ready", handlers.Ready(pinger))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	webhooks := handlers.NewGitHubWebhooksHandler(cfg, deps.Bus, deps.Ingest)
	app.Post("/webhooks/github", webhooks.Receive())

	return app
}
