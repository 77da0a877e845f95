package handlers

import (
	"clan-missions/middleware"
	"clan-missions/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUploadRoutes(api fiber.Router, uploads *services.UploadService, requireAuth fiber.Handler) {
	api.Post("/uploads", requireAuth, func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
		}
		url, err := uploads.Upload(c.UserContext(), middleware.UserID(c), fileHeader)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
	})
}
