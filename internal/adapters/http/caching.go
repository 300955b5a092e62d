package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case path == "/api/hello" || strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=3600"

		case strings.HasSuffix(strings.TrimRight(path, "/"), "/latest"):
			ttl = "no-cache" // changes on every save

		case strings.HasPrefix(path, "/api/"):
			// Editor data is mutable; revalidate with the ETag.
			ttl = "private, max-age=0, must-revalidate"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
