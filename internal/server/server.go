// Package server exposes a seeding run's health, progress and metrics over HTTP.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"clickseed/internal/observability"
	"clickseed/internal/seed"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	promOnce       sync.Once
	promMiddleware *fiberprometheus.FiberPrometheus
)

// metricsMiddleware registers the HTTP collectors once on the default
// registry, so /metrics also serves the seeding metrics.
func metricsMiddleware() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMiddleware = fiberprometheus.NewWithRegistry(prometheus.DefaultRegisterer, "clickseed", "http", "", nil)
	})
	return promMiddleware
}

// Pinger checks the database connection behind the run.
type Pinger func(ctx context.Context) error

// ProgressSource exposes the state of the current run.
type ProgressSource interface {
	Snapshot() seed.Snapshot
}

// Server is the status HTTP server that runs alongside a seeding run.
type Server struct {
	app      *fiber.App
	ping     Pinger
	progress ProgressSource
}

// NewServer builds the status app. ping may be nil when no database is wired.
func NewServer(ping Pinger, progress ProgressSource) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "clickseed status",
			DisableStartupMessage: true,
		}),
		ping:     ping,
		progress: progress,
	}
	s.SetupRoutes()
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// SetupRoutes registers the status routes.
func (s *Server) SetupRoutes() {
	prom := metricsMiddleware()

	s.app.Use(recover.New())
	s.app.Use(prom.Middleware)

	s.app.Get("/health/live", s.LivenessCheck)
	s.app.Get("/health/ready", s.ReadinessCheck)
	s.app.Get("/progress", s.Progress)
	prom.RegisterAt(s.app, "/metrics")
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.ping == nil {
		dbStatus = "unavailable"
	} else if err := s.ping(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	status := fiber.StatusOK
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   dbStatus,
		"database": dbStatus,
	})
}

// Progress returns the current run snapshot.
func (s *Server) Progress(c *fiber.Ctx) error {
	if s.progress == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no run in progress"})
	}
	return c.JSON(s.progress.Snapshot())
}

// Start listens on addr in the background. Errors other than a clean
// shutdown are logged.
func (s *Server) Start(addr string) {
	go func() {
		if err := s.app.Listen(addr); err != nil {
			observability.Logger.Error("status server stopped", slog.String("addr", addr), slog.String("error", err.Error()))
		}
	}()
	observability.Logger.Info("status server listening", slog.String("addr", addr))
}

// Shutdown stops the server, waiting at most until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
