package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"

	"github.com/samirrijal/citygrid/internal/adapters/http"
	natsadapter "github.com/samirrijal/citygrid/internal/adapters/nats"
	"github.com/samirrijal/citygrid/internal/adapters/postgres"
	"github.com/samirrijal/citygrid/internal/adapters/valkey"
	"github.com/samirrijal/citygrid/internal/core/ports"
	"github.com/samirrijal/citygrid/internal/core/simulation"
	"github.com/samirrijal/citygrid/internal/core/usecases"
	"github.com/samirrijal/citygrid/internal/pkg/config"
	"github.com/samirrijal/citygrid/internal/pkg/logging"
	"github.com/samirrijal/citygrid/internal/pkg/metrics"
	"github.com/samirrijal/citygrid/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("citygrid-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache and events are optional; the API serves straight from Postgres without them.
	var (
		cacheSvc  ports.CacheService
		publisher ports.EventPublisher
	)

	cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
	if err != nil {
		slog.Warn("valkey unavailable, caching disabled", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, grid events disabled", "error", err)
		pub = nil
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Repos
	layoutRepo := postgres.NewLayoutRepo(db)
	editRepo, err := postgres.NewEditRepo(db, postgres.CityEditsTable)
	if err != nil {
		log.Fatalf("edit repo: %v", err)
	}
	draftRepo, err := postgres.NewEditRepo(db, postgres.CityDraftsTable)
	if err != nil {
		log.Fatalf("draft repo: %v", err)
	}

	deps := &http.Dependencies{
		Layouts:      usecases.NewLayoutService(layoutRepo, cacheSvc, publisher),
		Edits:        usecases.NewEditService(usecases.CityEditResource, editRepo, cacheSvc, publisher),
		Drafts:       usecases.NewEditService(usecases.CityDraftResource, draftRepo, cacheSvc, publisher),
		NewEngine:    simulation.NewDefault,
		TickInterval: cfg.Simulation.TickInterval(),
		DB:           db,
		Cache:        cache,
	}
	if pub != nil {
		deps.NATS = pub.Conn()
	}

	// Pool gauges
	sampler := cron.New()
	if _, err := sampler.AddFunc("@every 15s", func() {
		metrics.UpdateDBPoolMetrics(db.Stat())
	}); err != nil {
		log.Fatalf("schedule pool metrics: %v", err)
	}
	sampler.Start()
	defer sampler.Stop()

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    4 * 1024 * 1024, // grids can be large
		AppName:      "CityGrid API",
	})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool { return c.Path() == "/metrics" },
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		ExposeHeaders:    "Link, X-Total-Count",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "fps", cfg.Simulation.FPS)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
