package handlers

import (
	"errors"

	"clan-missions/middleware"
	"clan-missions/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// respondError maps service errors onto HTTP statuses with a {"error": msg} body.
func respondError(c *fiber.Ctx, err error) error {
	var se *services.StatusError
	var fe *fiber.Error
	switch {
	case errors.As(err, &se):
		return c.Status(se.Status).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &fe):
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already exists"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}

	log.WithError(err).WithFields(log.Fields{
		"path":       c.Path(),
		"request_id": middleware.GetRequestID(c),
	}).Error("❌ [HTTP] unhandled error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
}

// ErrorHandler renders errors that escape a handler in the same JSON shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return respondError(c, err)
}
