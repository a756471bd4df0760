package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kasuwa/kasuwa-backend/config"
	"github.com/kasuwa/kasuwa-backend/internal/app/controller"
	"github.com/kasuwa/kasuwa-backend/internal/app/repository"
	"github.com/kasuwa/kasuwa-backend/internal/app/service"
	"github.com/kasuwa/kasuwa-backend/internal/db"
	"github.com/kasuwa/kasuwa-backend/internal/middleware"
	"github.com/kasuwa/kasuwa-backend/internal/router"
	"github.com/kasuwa/kasuwa-backend/internal/scheduler"
	"github.com/kasuwa/kasuwa-backend/internal/storage"
	"github.com/kasuwa/kasuwa-backend/internal/websocket"
	"github.com/kasuwa/kasuwa-backend/pkg/logger"
	"github.com/kasuwa/kasuwa-backend/pkg/payment/momo"
	"github.com/kasuwa/kasuwa-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Log.Level
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Log.Format,
		EnableColor: true,
	})

	logger.Info("Starting KASUWA Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize Redis (session registry and token blacklist)
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to initialize Redis", err)
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	// Initialize object storage
	s3Storage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Endpoint,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Initialize payment client
	momoClient, err := momo.NewClient(momo.Config{
		BaseURL:         cfg.Payment.MoMo.BaseURL,
		SubscriptionKey: cfg.Payment.MoMo.SubscriptionKey,
		APIUser:         cfg.Payment.MoMo.APIUser,
		APIKey:          cfg.Payment.MoMo.APIKey,
		TargetEnv:       cfg.Payment.MoMo.TargetEnv,
		CallbackURL:     cfg.Payment.MoMo.CallbackURL,
	})
	if err != nil {
		logger.Fatal("Failed to initialize payment client", err)
	}

	tokenScheduler := scheduler.NewPaymentTokenScheduler(momoClient)
	if err := tokenScheduler.Start(); err != nil {
		logger.Fatal("Failed to start payment token scheduler", err)
	}
	defer tokenScheduler.Stop()

	// Initialize websocket hub for seller notifications
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	listingRepo := repository.NewListingRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())
	wishlistRepo := repository.NewWishlistRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	productService := service.NewProductService(productRepo, listingRepo, db.GetDB())
	listingService := service.NewListingService(listingRepo)
	cartService := service.NewCartService(cartRepo, listingRepo, db.GetDB())
	wishlistService := service.NewWishlistService(wishlistRepo, listingRepo, db.GetDB())
	orderService := service.NewOrderService(orderRepo, cartRepo, db.GetDB())
	paymentService := service.NewPaymentService(orderRepo, momoClient, hub, db.GetDB())

	// Initialize controllers
	authController := controller.NewAuthController(authService, cartService, wishlistService, cfg.JWT.RefreshTokenExpiry)
	productController := controller.NewProductController(productService, authService)
	listingController := controller.NewListingController(listingService)
	cartController := controller.NewCartController(cartService)
	wishlistController := controller.NewWishlistController(wishlistService)
	linkController := controller.NewLinkController(cartService, wishlistService)
	orderController := controller.NewOrderController(orderService)
	paymentController := controller.NewPaymentController(paymentService)
	uploadController := controller.NewUploadController(s3Storage)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		listingController,
		cartController,
		wishlistController,
		linkController,
		orderController,
		paymentController,
		uploadController,
		authMiddleware,
		hub,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
