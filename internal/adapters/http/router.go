package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/citygrid/internal/core/usecases"
	"github.com/samirrijal/citygrid/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// DraftsSunset is when the legacy /api/city-drafts endpoints go away.
var DraftsSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Simulation stream. Registered ahead of the HTTP-only middleware.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(SimulationStreamHandler(deps.engineFactory(), deps.TickInterval)))

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 240 requests per minute per IP; the editor autosaves.
	app.Use(limiter.New(limiter.Config{
		Max:        240,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware([]DeprecatedRoute{{
		Prefix:      "/api/city-drafts",
		SunsetDate:  DraftsSunset,
		Alternative: "/api/city-edits",
	}}))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	api := app.Group("/api")
	api.Get("/hello", HelloHandler())

	// Fixed paths go before /:id so they are not captured as ids.
	api.Get("/layouts", withTimeout(ListLayoutsHandler(deps)))
	api.Post("/layouts", withTimeout(CreateLayoutHandler(deps)))
	api.Delete("/layouts/bulk-delete", withTimeout(BulkDeleteLayoutsHandler(deps)))
	api.Get("/layouts/:id", withTimeout(GetLayoutHandler(deps)))
	api.Put("/layouts/:id", withTimeout(UpdateLayoutHandler(deps, false)))
	api.Patch("/layouts/:id", withTimeout(UpdateLayoutHandler(deps, true)))
	api.Delete("/layouts/:id", withTimeout(DeleteLayoutHandler(deps)))

	registerEditRoutes(api.Group("/city-edits"), deps.Edits)
	registerEditRoutes(api.Group("/city-drafts"), deps.Drafts)

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)
}

func registerEditRoutes(r fiber.Router, svc *usecases.EditService) {
	if svc == nil {
		return
	}
	r.Get("/", withTimeout(ListEditsHandler(svc)))
	r.Post("/", withTimeout(CreateEditHandler(svc)))
	r.Get("/latest", withTimeout(LatestEditHandler(svc)))
	r.Delete("/bulk-delete", withTimeout(BulkDeleteEditsHandler(svc)))
	r.Get("/:id", withTimeout(GetEditHandler(svc)))
	r.Put("/:id", withTimeout(UpdateEditHandler(svc)))
	r.Patch("/:id", withTimeout(UpdateEditHandler(svc)))
	r.Delete("/:id", withTimeout(DeleteEditHandler(svc)))
}

func withTimeout(h fiber.Handler) fiber.Handler {
	return timeout.NewWithContext(h, requestTimeout)
}
