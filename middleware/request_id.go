package middleware

import (
	"crypto/rand"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
)

const (
	HeaderRequestID = "X-Request-ID"
	requestIDKey    = "request_id"
	maxRequestIDLen = 128
)

// RequestID honours an incoming X-Request-ID or mints a ULID, and echoes it back.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = ulid.MustNew(ulid.Now(), rand.Reader).String()
		}
		c.Locals(requestIDKey, id)
		c.Set(HeaderRequestID, id)
		return c.Next()
	}
}

func GetRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}
