package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// QueryTokenAuth authenticates from the `token` query param. EventSource cannot send headers.
//
// Usage:
//
//	api.Get("/users/me/rewards/stream", middleware.QueryTokenAuth(tokens), handler)
func QueryTokenAuth(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing token in query"})
		}

		claims, err := parser.Parse(token)
		if err != nil {
			log.WithField("ip", c.IP()).Debug("[SSEAuth] ❌ invalid query token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(userIDKey, claims.Subject)
		c.Locals(addressKey, claims.Address)
		return c.Next()
	}
}
