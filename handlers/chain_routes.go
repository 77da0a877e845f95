package handlers

import (
	"clan-missions/middleware"
	"clan-missions/workers"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupChainRoutes exposes live balances from the fullnode and the locally mirrored copy.
func SetupChainRoutes(api fiber.Router, chain workers.BalanceFetcher, db *gorm.DB, requireAuth fiber.Handler) {
	api.Get("/chain/balance", requireAuth, func(c *fiber.Ctx) error {
		balance, err := chain.GetBalance(c.UserContext(), middleware.WalletAddress(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(balance)
	})

	api.Get("/chain/balance/:address", func(c *fiber.Ctx) error {
		balance, err := chain.GetBalance(c.UserContext(), c.Params("address"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(balance)
	})

	api.Get("/users/me/balances", requireAuth, func(c *fiber.Ctx) error {
		balances, err := workers.BalancesForUser(db.WithContext(c.UserContext()), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": balances})
	})
}
