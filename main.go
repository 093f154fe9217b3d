package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hpp-app/config"
	"github.com/yeremiapane/hpp-app/middlewares"
	"github.com/yeremiapane/hpp-app/models"
	"github.com/yeremiapane/hpp-app/notify"
	"github.com/yeremiapane/hpp-app/router"
	"github.com/yeremiapane/hpp-app/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	utils.InitLogger(cfg.LogLevel)
	utils.InitJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Set gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize DB
	db, err := config.InitDB(cfg.Database)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	utils.StartBlacklistCleanup(ctx, 10*time.Minute)
	rateLimiter := middlewares.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	rateLimiter.StartCleanup(ctx, time.Minute)

	hub := notify.NewHub()
	r := router.SetupRouter(ctx, db, hub, router.Options{
		CORSOrigins:   cfg.Server.CORSOrigins,
		InvitationTTL: cfg.Auth.InvitationTTL,
		RateLimiter:   rateLimiter,
	})

	// Set trusted proxies
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		utils.ErrorLogger.Printf("Failed to set trusted proxies: %v", err)
	}

	// Run server
	utils.InfoLogger.Printf("Listening on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}
