// Package statusapi serves the held readings over a small read-only HTTP API.
package statusapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwulff/nightscout-go/internal/bloodsugar"
	"github.com/jwulff/nightscout-go/internal/logger"
	"github.com/jwulff/nightscout-go/internal/pipeline"
	"github.com/jwulff/nightscout-go/internal/storage"
)

// Source is the read side of the pipeline.
type Source interface {
	Snapshot() pipeline.Snapshot
	State() pipeline.State
	Health() storage.RefreshState
}

// Options configures the API.
type Options struct {
	Formatter *bloodsugar.Formatter
	Gatherer  prometheus.Gatherer
	Logger    *logger.Logger
	Now       func() time.Time
}

// NewApp creates a fiber app with the status routes registered.
func NewApp(src Source, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "nightscout",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	if opts.Logger != nil {
		app.Use(requestLogger(opts.Logger))
	}

	RegisterRoutes(app, src, opts)
	return app
}

func requestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Debug("http request",
			logger.String("method", c.Method()),
			logger.String("path", c.Path()),
			logger.Int("status", c.Response().StatusCode()),
			logger.Duration("latency", time.Since(start)),
		)
		return err
	}
}

// metricsHandler exposes the gatherer in the Prometheus text format.
func metricsHandler(g prometheus.Gatherer) fiber.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
