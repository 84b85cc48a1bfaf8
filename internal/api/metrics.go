package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jagadeesh/activity-router/internal/handlers"
)

// NewMetrics serves /metrics and /health for processes without the public
// API, such as the queue worker. gatherer defaults to
// prometheus.DefaultGatherer.
func NewMetrics(gatherer prometheus.Gatherer) *fiber.App {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app := fiber.New(fiber.Config{
		AppName:               "activity-router-metrics",
		DisableStartupMessage: true,
		IdleTimeout:           60 * time.Second,
		ReadTimeout:           5 * time.Second,
		WriteTimeout:          10 * time.Second,
	})
	app.Use(recover.New())
	app.Get("/health", handlers.Health())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	return app
}
