package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"building-converter/internal/common/config"
	"building-converter/internal/common/logging"
	"building-converter/internal/common/metrics"
	"building-converter/internal/common/middleware"
	"building-converter/internal/converter/handlers"
	"building-converter/internal/converter/library"
	"building-converter/internal/converter/mapper"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Converter Service
// ============================================================

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	db, err := library.OpenSQLite(cfg.LibraryDBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	m := metrics.New()
	lib := library.NewSQLite(db).WithMetrics(m)
	if err := lib.Init(context.Background()); err != nil {
		log.Fatalf("init library: %v", err)
	}

	converter := mapper.New(lib, mapper.Options{Scale: cfg.UnitScale}).WithMetrics(m)
	converterHandler := handlers.NewConverterHandler(converter, lib)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Converter Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.RequestContext(logger))
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		if err := lib.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "library unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	// ============================================================
	// Converter Routes
	// ============================================================

	app.Post("/convert", converterHandler.Convert)
	app.Post("/render", converterHandler.Render)
	app.Get("/library/materials/:name", converterHandler.Material)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Converter Service on %s (env: %s)", addr, cfg.Environment)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
