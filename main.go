package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clan-missions/certificate"
	"clan-missions/config"
	"clan-missions/handlers"
	"clan-missions/middleware"
	"clan-missions/models"
	"clan-missions/services"
	"clan-missions/sui"
	"clan-missions/utils"
	"clan-missions/workers"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const certificateCacheSize = 256

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("⚠️  No .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := models.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	// --- Chain ---
	signer, err := sui.ParsePrivateKey(cfg.Sui.PrivateKey)
	if err != nil {
		log.WithError(err).Fatal("failed to parse SUI_PRIVATE_KEY")
	}
	suiClient, err := sui.NewClient(sui.ClientConfig{RPCURL: cfg.Sui.RPCURL, Timeout: 30 * time.Second})
	if err != nil {
		log.WithError(err).Fatal("failed to create sui client")
	}
	suiService := services.NewSuiService(suiClient, signer, cfg.Sui)

	// --- Storage & rendering ---
	store, err := utils.NewObjectStore(ctx, cfg.R2)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize R2 client")
	}
	renderer, err := certificate.NewRenderer(certificateCacheSize)
	if err != nil {
		log.WithError(err).Fatal("failed to create certificate renderer")
	}

	// --- Services ---
	tokens := services.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTokenTTL)
	badgeService := services.NewBadgeService(db, suiService)
	if err := badgeService.SeedCatalog(ctx); err != nil {
		log.WithError(err).Fatal("failed to seed badge catalog")
	}
	missionService := services.NewMissionService(db, badgeService)

	limiter, err := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	if err != nil {
		log.WithError(err).Fatal("failed to create rate limiter")
	}

	app := handlers.NewApp(cfg.AllowedOrigins, handlers.Deps{
		DB:           db,
		Tokens:       tokens,
		Limiter:      limiter,
		Auth:         services.NewAuthService(db, tokens, cfg.RefreshTokenTTL),
		Clans:        services.NewClanService(db, badgeService),
		Missions:     missionService,
		Rewards:      services.NewRewardService(db, suiService),
		Badges:       badgeService,
		Certificates: services.NewCertificateService(db, renderer, store, suiService),
		Uploads:      services.NewUploadService(store),
		Users:        services.NewUserService(db),
		Chain:        suiService,
	})

	// --- Background jobs ---
	scheduler, err := services.NewScheduler(db)
	if err != nil {
		log.WithError(err).Fatal("failed to create scheduler")
	}
	if err := scheduler.Start(); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}
	balanceSync := workers.NewBalanceSyncWorker(db, suiService, cfg.BalanceSyncInterval)
	go balanceSync.Run(ctx)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("server error")
			stop()
		}
	}()

	log.WithFields(log.Fields{
		"port":    cfg.Port,
		"origins": cfg.AllowedOrigins,
		"signer":  signer.Address(),
	}).Info("✅ Server running")

	<-ctx.Done()
	log.Info("Shutting down server...")

	if err := scheduler.Stop(); err != nil {
		log.WithError(err).Warn("scheduler shutdown")
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
