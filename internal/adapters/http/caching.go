package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses. In debug mode every
// response is marked uncacheable so front-end edits show up on reload.
func CachingMiddleware(debug bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if debug {
			c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
			c.Set(fiber.HeaderExpires, "0")
			c.Set(fiber.HeaderPragma, "no-cache")
			return err
		}

		if c.Method() != fiber.MethodGet || len(c.Response().Header.Peek(fiber.HeaderCacheControl)) > 0 {
			return err
		}

		// Failures are per request and must not be replayed by caches.
		if err != nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
			c.Set(fiber.HeaderCacheControl, "no-store")
			return err
		}

		path := c.Path()
		var value string
		switch {
		case strings.HasPrefix(path, "/static/"):
			value = "public, max-age=3600"
		case path == "/search":
			value = "public, max-age=300" // places never change at runtime
		case path == "/update" || path == "/articles":
			value = "no-store" // random sample, live news
		case path == "/", path == "/metrics", path == "/health", path == "/ready":
			value = "no-cache"
		}

		if value != "" {
			c.Set(fiber.HeaderCacheControl, value)
		}
		return err
	}
}
