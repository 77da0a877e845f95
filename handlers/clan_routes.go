package handlers

import (
	"clan-missions/middleware"
	"clan-missions/services"
	"clan-missions/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupClanRoutes(api fiber.Router, clans *services.ClanService, missions *services.MissionService, requireAuth fiber.Handler) {
	// 🔓 Public
	api.Get("/clans", func(c *fiber.Ctx) error {
		page, err := clans.List(c.UserContext(), utils.ParsePage(c), c.Query("search"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(page)
	})

	api.Get("/clans/:id", func(c *fiber.Ctx) error {
		clan, err := clans.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(clan)
	})

	api.Get("/clans/:id/followers", func(c *fiber.Ctx) error {
		page, err := clans.Followers(c.UserContext(), c.Params("id"), utils.ParsePage(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(page)
	})

	api.Get("/clans/:id/missions", func(c *fiber.Ctx) error {
		page, err := missions.ListForClan(c.UserContext(), c.Params("id"), utils.ParsePage(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(page)
	})

	// 🔐 Secured
	api.Post("/clans", requireAuth, func(c *fiber.Ctx) error {
		var req services.ClanInput
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
		clan, err := clans.Create(c.UserContext(), middleware.UserID(c), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(clan)
	})

	api.Patch("/clans/:id", requireAuth, func(c *fiber.Ctx) error {
		var req services.ClanPatch
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
		clan, err := clans.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(clan)
	})

	api.Delete("/clans/:id", requireAuth, func(c *fiber.Ctx) error {
		if err := clans.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	api.Post("/clans/:id/follow", requireAuth, func(c *fiber.Ctx) error {
		follow, err := clans.Follow(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(follow)
	})

	api.Delete("/clans/:id/follow", requireAuth, func(c *fiber.Ctx) error {
		if err := clans.Unfollow(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	api.Get("/users/me/clans", requireAuth, func(c *fiber.Ctx) error {
		followed, err := clans.FollowedBy(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": followed})
	})
}
