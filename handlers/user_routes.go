package handlers

import (
	"clan-missions/middleware"
	"clan-missions/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(api fiber.Router, users *services.UserService, requireAuth fiber.Handler) {
	api.Get("/users/search", func(c *fiber.Ctx) error {
		res, err := users.Search(c.UserContext(), c.Query("q"), c.QueryInt("limit"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": res})
	})

	api.Patch("/users/me", requireAuth, func(c *fiber.Ctx) error {
		var req services.ProfilePatch
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
		user, err := users.UpdateProfile(c.UserContext(), middleware.UserID(c), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(user)
	})
}
