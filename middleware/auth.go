// middleware/auth.go
package middleware

import (
	"strings"

	"clan-missions/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const (
	userIDKey  = "user_id"
	addressKey = "wallet_address"
)

// TokenParser verifies an access token and returns its claims.
type TokenParser interface {
	Parse(token string) (*services.AccessClaims, error)
}

// RequireAuth rejects requests without a valid "Authorization: Bearer <jwt>" header.
func RequireAuth(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}
		claims, err := parser.Parse(token)
		if err != nil {
			log.WithField("path", c.Path()).Debug("🚫 [AUTH] invalid access token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}
		c.Locals(userIDKey, claims.Subject)
		c.Locals(addressKey, claims.Address)
		return c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and otherwise continues anonymously.
func OptionalAuth(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := bearerToken(c); ok {
			if claims, err := parser.Parse(token); err == nil {
				c.Locals(userIDKey, claims.Subject)
				c.Locals(addressKey, claims.Address)
			}
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}

// WalletAddress returns the address carried by the access token.
func WalletAddress(c *fiber.Ctx) string {
	addr, _ := c.Locals(addressKey).(string)
	return addr
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
