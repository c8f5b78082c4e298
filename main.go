package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"bar-order-api/auth"
	"bar-order-api/cache"
	"bar-order-api/config"
	"bar-order-api/handlers"
	"bar-order-api/logger"
	"bar-order-api/media"
	"bar-order-api/middleware"
	"bar-order-api/routes"
	"bar-order-api/service"
	"bar-order-api/store"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "json")
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	gin.SetMode(cfg.GinMode)

	// Initialize database
	if err := config.InitDB(cfg); err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to initialize database")
	}
	log.Info().Str("driver", cfg.DBDriver).Msg("database connected and migrated")

	// Product list cache is optional
	var productCache cache.ProductCache
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, product cache disabled")
		} else {
			defer client.Close()
			productCache = cache.NewRedisProductCache(client, "bar-order", cfg.ProductCacheTTL)
		}
	}

	if err := os.MkdirAll(cfg.MediaRoot, 0o755); err != nil {
		log.Fatal().Err(err).Str("media_root", cfg.MediaRoot).Msg("failed to create media root")
	}
	storage := media.NewStorage(cfg.MediaRoot, cfg.MediaURL)
	tokens := auth.NewTokenMaker(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	authSvc := service.NewAuthService(store.NewUserRepo(config.DB), tokens, log)
	api := &handlers.API{
		Products: service.NewProductService(store.NewProductRepo(config.DB), productCache, storage, log),
		Orders:   service.NewOrderService(store.NewOrderRepo(config.DB), log),
		Auth:     authSvc,
		QR:       service.NewQRService(cfg.QRBaseURL),
	}

	if _, err := authSvc.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin account")
	}

	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(log), middleware.CORS())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the Bar Order API",
			"docs":    "/api/state-machine",
			"health":  "/health",
		})
	})

	// Register all routes
	routes.SetupRoutes(r, api, tokens, storage.Root(), cfg.MediaURL)

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
