package hosting

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"tonearm/src/features/config"
	"tonearm/src/features/deduping"
	"tonearm/src/features/importing"
	"tonearm/src/features/jobs"
	"tonearm/src/features/library"
	"tonearm/src/features/metrics"
	"tonearm/src/features/scanning"
)

// Services bundles the feature services exposed by the server.
type Services struct {
	Library   *library.Service
	Scanning  *scanning.Service
	Importing *importing.Service
	Deduping  *deduping.Service
	Jobs      *jobs.Service
	Metrics   *metrics.Recorder
}

// Server is the HTTP server for the application.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new HTTP server and wires all feature routes.
func NewServer(cfg *config.Manager, services Services) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("Internal Server Error", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
		AppName:               "Tonearm",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
	})

	app.Use(LogAllRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	library.RegisterRoutes(app, services.Library)
	scanning.RegisterRoutes(app, services.Scanning)
	importing.RegisterRoutes(app, services.Importing)
	deduping.RegisterRoutes(app, services.Deduping)
	jobs.RegisterRoutes(app, services.Jobs)
	if services.Metrics != nil {
		metrics.RegisterRoutes(app, services.Metrics)
	}

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
