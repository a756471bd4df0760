package router

import (
	"github.com/gin-gonic/gin"

	"github.com/kasuwa/kasuwa-backend/config"
	"github.com/kasuwa/kasuwa-backend/internal/app/controller"
	"github.com/kasuwa/kasuwa-backend/internal/middleware"
	"github.com/kasuwa/kasuwa-backend/internal/websocket"
)

type Router struct {
	authController     *controller.AuthController
	productController  *controller.ProductController
	listingController  *controller.ListingController
	cartController     *controller.CartController
	wishlistController *controller.WishlistController
	linkController     *controller.LinkController
	orderController    *controller.OrderController
	paymentController  *controller.PaymentController
	uploadController   *controller.UploadController
	authMiddleware     *middleware.AuthMiddleware
	hub                *websocket.Hub
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	listingController *controller.ListingController,
	cartController *controller.CartController,
	wishlistController *controller.WishlistController,
	linkController *controller.LinkController,
	orderController *controller.OrderController,
	paymentController *controller.PaymentController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	hub *websocket.Hub,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		productController:  productController,
		listingController:  listingController,
		cartController:     cartController,
		wishlistController: wishlistController,
		linkController:     linkController,
		orderController:    orderController,
		paymentController:  paymentController,
		uploadController:   uploadController,
		authMiddleware:     authMiddleware,
		hub:                hub,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.Session())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "KASUWA API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
			auth.PUT("/me", r.authMiddleware.Authenticate(), r.authController.UpdateMe)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/:id", r.productController.GetProduct)
			products.POST("",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("seller", "admin"),
				r.productController.Publish,
			)
		}

		listings := v1.Group("/listings")
		{
			listings.GET("/:id", r.listingController.GetListing)

			seller := listings.Group("")
			seller.Use(
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("seller", "admin"),
			)
			{
				seller.GET("/mine", r.listingController.MyListings)
				seller.GET("/export", r.listingController.ExportListings)
				seller.PUT("/:id", r.listingController.UpdateListing)
				seller.DELETE("/:id", r.listingController.DeleteListing)
			}
		}

		// Cart and wishlist accept both guests and signed-in users; the
		// optional auth lets RequestIdentity prefer the user when present.
		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.OptionalAuthenticate())
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("", r.cartController.AddToCart)
			cart.POST("/merge", r.cartController.MergeCart)
			cart.PUT("/:action", r.cartController.UpdateCartItem)
			cart.DELETE("/item", r.cartController.RemoveFromCart)
			cart.DELETE("", r.cartController.ClearCart)
		}

		wishlist := v1.Group("/wishlist")
		wishlist.Use(r.authMiddleware.OptionalAuthenticate())
		{
			wishlist.GET("", r.wishlistController.GetWishlist)
			wishlist.POST("", r.wishlistController.AddToWishlist)
			wishlist.POST("/merge", r.wishlistController.MergeWishlist)
			wishlist.DELETE("/item", r.wishlistController.RemoveFromWishlist)
		}

		v1.POST("/link-session",
			r.authMiddleware.Authenticate(),
			r.linkController.LinkSession,
		)

		orders := v1.Group("/orders")
		orders.Use(r.authMiddleware.Authenticate())
		{
			orders.GET("", r.orderController.GetOrders)
			orders.GET("/:id", r.orderController.GetOrder)
			orders.POST("", r.orderController.CreateOrder)
			orders.PUT("/:id/status", r.authMiddleware.RequireRole("admin"), r.orderController.UpdateOrderStatus)
			orders.PUT("/:id/payment", r.authMiddleware.RequireRole("admin"), r.orderController.UpdatePaymentStatus)
		}

		payments := v1.Group("/payments")
		payments.Use(r.authMiddleware.Authenticate())
		{
			payments.POST("", r.paymentController.InitiatePayment)
			payments.GET("/:reference/status", r.paymentController.GetPaymentStatus)
		}

		upload := v1.Group("/upload")
		upload.Use(r.authMiddleware.Authenticate())
		{
			upload.POST("/presigned-url", r.uploadController.GeneratePresignedURL)
		}

		v1.GET("/ws", r.authMiddleware.Authenticate(), r.hub.ServeWS)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Session-Id, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Session-Id, X-Session-New")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
