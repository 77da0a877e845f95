package handlers

import (
	"clan-missions/middleware"
	"clan-missions/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(api fiber.Router, auth *services.AuthService, requireAuth fiber.Handler, limiter *middleware.RateLimiter) {
	group := api.Group("/auth")
	if limiter != nil {
		group.Use(limiter.Handler())
	}

	group.Post("/login", func(c *fiber.Ctx) error {
		var req struct {
			Address string `json:"address"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
		if req.Address == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "address is required"})
		}

		session, user, err := auth.Login(c.UserContext(), req.Address)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"session": session, "user": user})
	})

	group.Post("/refresh", func(c *fiber.Ctx) error {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
		session, err := auth.Refresh(c.UserContext(), req.RefreshToken)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"session": session})
	})

	group.Post("/logout", requireAuth, func(c *fiber.Ctx) error {
		if err := auth.Logout(c.UserContext(), middleware.UserID(c)); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	group.Get("/me", requireAuth, func(c *fiber.Ctx) error {
		user, err := auth.Me(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(user)
	})
}
