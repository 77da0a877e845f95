package handlers

import (
	"clan-missions/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCertificateRoutes(api fiber.Router, certificates *services.CertificateService) {
	api.Get("/certificates/:id", func(c *fiber.Ctx) error {
		cert, err := certificates.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(cert)
	})

	api.Get("/certificates/:id/image", func(c *fiber.Ctx) error {
		img, err := certificates.Image(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		// same seed, same bytes
		c.Set(fiber.HeaderCacheControl, "public, max-age=86400, immutable")
		return c.Send(img)
	})
}
