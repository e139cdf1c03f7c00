package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/mashup/internal/pkg/metrics"
)

// requestTimeout bounds each lookup route, including the outbound feed fetch.
const requestTimeout = 15 * time.Second

// SetupRoutes registers the page, lookup, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	})

	app.Use(CachingMiddleware(deps.Debug))

	app.Get("/health", HealthHandler(deps))
	app.Get("/ready", ReadyHandler(deps))

	app.Get("/", IndexHandler(deps))
	app.Get("/articles", timeout.NewWithContext(ArticlesHandler(deps), requestTimeout))
	app.Get("/search", timeout.NewWithContext(SearchHandler(deps), requestTimeout))
	app.Get("/update", timeout.NewWithContext(UpdateHandler(deps), requestTimeout))

	if deps.StaticDir != "" {
		app.Static("/static", deps.StaticDir)
	}

	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), requestTimeout))

	SetupDocs(app, "api/openapi.yaml")

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}
