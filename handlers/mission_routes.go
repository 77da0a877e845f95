package handlers

import (
	"clan-missions/middleware"
	"clan-missions/services"
	"clan-missions/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupMissionRoutes(api fiber.Router, missions *services.MissionService, certificates *services.CertificateService, requireAuth, optionalAuth fiber.Handler) {
	// 🔓 Public (Get shows answers to the creator when a token is present)
	api.Get("/missions", func(c *fiber.Ctx) error {
		page, err := missions.List(c.UserContext(), utils.ParsePage(c), c.Query("clan_id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(page)
	})

	api.Get("/missions/:id", optionalAuth, func(c *fiber.Ctx) error {
		mission, err := missions.Get(c.UserContext(), c.Params("id"), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(mission)
	})

	// 🔐 Secured
	api.Post("/missions", requireAuth, func(c *fiber.Ctx) error {
		var req services.MissionInput
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
		mission, err := missions.Create(c.UserContext(), middleware.UserID(c), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(mission)
	})

	api.Patch("/missions/:id", requireAuth, func(c *fiber.Ctx) error {
		var req services.MissionPatch
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
		mission, err := missions.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(mission)
	})

	api.Delete("/missions/:id", requireAuth, func(c *fiber.Ctx) error {
		if err := missions.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	api.Post("/missions/:id/start", requireAuth, func(c *fiber.Ctx) error {
		participation, err := missions.Start(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(participation)
	})

	api.Post("/missions/:id/rounds/:round_id/submit", requireAuth, func(c *fiber.Ctx) error {
		var req struct {
			Answers []int `json:"answers"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
		result, err := missions.SubmitRound(c.UserContext(), middleware.UserID(c), c.Params("id"), c.Params("round_id"), req.Answers)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	})

	api.Get("/missions/:id/participation", requireAuth, func(c *fiber.Ctx) error {
		view, err := missions.Participation(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(view)
	})

	api.Post("/missions/:id/certificate", requireAuth, func(c *fiber.Ctx) error {
		cert, err := certificates.Issue(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(cert)
	})
}
