package handlers

import (
	"bufio"
	"context"

	"clan-missions/middleware"
	"clan-missions/services"

	"github.com/gofiber/fiber/v2"
)

// SetupRewardRoutes mounts token rewards and badges; every route needs a user.
// streamAuth guards the SSE feed, which carries its token in the query string.
func SetupRewardRoutes(api fiber.Router, rewards *services.RewardService, badges *services.BadgeService, requireAuth, streamAuth fiber.Handler) {
	api.Get("/users/me/rewards", requireAuth, func(c *fiber.Ctx) error {
		list, err := rewards.ListForUser(c.UserContext(), middleware.UserID(c), c.Query("status"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": list})
	})

	api.Get("/users/me/rewards/stream", streamAuth, func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no") // nginx

		// c is recycled once the handler returns; grab the shutdown channel now
		done := c.Context().Done()
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				select {
				case <-done:
					cancel()
				case <-ctx.Done():
				}
			}()
			rewards.StreamRewards(ctx, userID, w, services.RewardStreamInterval)
		})
		return nil
	})

	api.Post("/rewards/:id/claim", requireAuth, func(c *fiber.Ctx) error {
		reward, err := rewards.Claim(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(reward)
	})

	api.Get("/users/me/badges", requireAuth, func(c *fiber.Ctx) error {
		list, err := badges.List(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": list})
	})

	api.Post("/badges/:id/mint", requireAuth, func(c *fiber.Ctx) error {
		badge, err := badges.Mint(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(badge)
	})
}
