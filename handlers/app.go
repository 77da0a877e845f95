package handlers

import (
	"clan-missions/middleware"
	"clan-missions/services"
	"clan-missions/utils"
	"clan-missions/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs. Limiter may be nil.
type Deps struct {
	DB           *gorm.DB
	Tokens       middleware.TokenParser
	Limiter      *middleware.RateLimiter
	Auth         *services.AuthService
	Clans        *services.ClanService
	Missions     *services.MissionService
	Rewards      *services.RewardService
	Badges       *services.BadgeService
	Certificates *services.CertificateService
	Uploads      *services.UploadService
	Users        *services.UserService
	Chain        workers.BalanceFetcher
}

// NewApp builds the fiber app with the global middleware chain and every route mounted.
func NewApp(allowedOrigins string, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		// multipart overhead on top of the largest accepted image
		BodyLimit:    utils.MaxImageUploadSize + 1024*1024,
		ErrorHandler: ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.Metrics())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		ExposeHeaders: "Content-Length, Content-Type, X-Request-ID",
		MaxAge:        86400,
	}))

	SetupHealthRoutes(app, deps.DB)

	requireAuth := middleware.RequireAuth(deps.Tokens)
	optionalAuth := middleware.OptionalAuth(deps.Tokens)

	api := app.Group("/api/v1")
	SetupAuthRoutes(api, deps.Auth, requireAuth, deps.Limiter)
	SetupClanRoutes(api, deps.Clans, deps.Missions, requireAuth)
	SetupMissionRoutes(api, deps.Missions, deps.Certificates, requireAuth, optionalAuth)
	SetupRewardRoutes(api, deps.Rewards, deps.Badges, requireAuth, middleware.QueryTokenAuth(deps.Tokens))
	SetupCertificateRoutes(api, deps.Certificates)
	SetupChainRoutes(api, deps.Chain, deps.DB, requireAuth)
	SetupUploadRoutes(api, deps.Uploads, requireAuth)
	SetupUserRoutes(api, deps.Users, requireAuth)

	return app
}
