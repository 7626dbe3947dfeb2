package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kalhuss/property-manage/internal/auth"
	"github.com/kalhuss/property-manage/internal/config"
	"github.com/kalhuss/property-manage/internal/database"
	"github.com/kalhuss/property-manage/internal/handlers"
	"github.com/kalhuss/property-manage/internal/jobs"
	"github.com/kalhuss/property-manage/internal/payments"
	"github.com/kalhuss/property-manage/internal/repository"
	"github.com/kalhuss/property-manage/internal/services"
	"github.com/kalhuss/property-manage/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repository
	repo := repository.NewRepository(database.GetDB())

	// Initialize gateways
	storageClient := storage.NewClient(cfg.Storage.URL, cfg.Storage.APIKey, cfg.Storage.Bucket)
	paymentsClient := payments.NewClient(
		cfg.Stripe.SecretKey,
		cfg.Stripe.Currency,
		cfg.Stripe.SuccessURL,
		cfg.Stripe.CancelURL,
	)

	// Initialize services
	authService := services.NewAuthService(repo)
	propertyService := services.NewPropertyService(repo, storageClient)
	offerService := services.NewOfferService(repo, storageClient, cfg.App.OfferExpiryInterval)
	contractService := services.NewContractService(repo, storageClient)
	settlementService := services.NewSettlementService(repo, paymentsClient, cfg.Stripe.Currency)
	bankService := services.NewBankService(repo, paymentsClient, cfg.App.FrontendURL)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	propertyHandler := handlers.NewPropertyHandler(propertyService)
	offerHandler := handlers.NewOfferHandler(offerService)
	contractHandler := handlers.NewContractHandler(contractService)
	settlementHandler := handlers.NewSettlementHandler(settlementService)
	bankHandler := handlers.NewBankHandler(bankService)

	// Start offer expiry job when an interval is configured
	if cfg.App.OfferExpiryInterval > 0 {
		expiryJob := jobs.NewOfferExpiryJob(offerService)
		expiryJob.Start(cfg.App.OfferExpiryInterval)
		log.Printf("Offer expiry job started, interval %s", cfg.App.OfferExpiryInterval)
	}

	// Set up Gin router
	router := gin.Default()
	router.HandleMethodNotAllowed = true

	// CORS middleware
	allowedOrigins := []string{
		cfg.App.FrontendURL,
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/api/auth")
	{
		authRoutes.POST("/signup", authHandler.SignUp)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Public listing routes
	router.GET("/api/properties", propertyHandler.GetListings)

	// Payment confirmation callback (called by the payment processor)
	router.POST("/api/settlement/confirm", settlementHandler.ConfirmPayment)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// User endpoints
		api.GET("/auth/me", authHandler.GetProfile)
		userRoutes := api.Group("/user")
		{
			userRoutes.GET("/profile", authHandler.GetProfile)
			userRoutes.PUT("/profile", authHandler.UpdateProfile)
		}

		// Listing endpoints
		api.POST("/properties", propertyHandler.CreateListing)
		api.GET("/properties/mine", propertyHandler.GetMyListings)
		api.GET("/properties/:id", propertyHandler.GetListing)
		api.PUT("/properties/:id", propertyHandler.UpdateListing)
		api.DELETE("/properties/:id", propertyHandler.DeleteListing)
		api.GET("/properties/:id/offers", offerHandler.GetOffersForProperty)

		// Offer endpoints
		api.POST("/offers", offerHandler.CreateOffer)
		api.GET("/offers/mine", offerHandler.GetMyOffers)
		api.POST("/offers/accept", offerHandler.AcceptOffer)
		api.POST("/offers/cancel", offerHandler.CancelOffer)

		// Contract endpoints
		api.POST("/contracts", contractHandler.CreateContract)
		api.POST("/contracts/sign", contractHandler.SignContract)
		api.GET("/contracts/:id", contractHandler.GetContract)
		api.GET("/contracts/:id/document", contractHandler.GetDocument)

		// Settlement endpoints
		api.POST("/settlement/checkout", settlementHandler.Checkout)
		api.POST("/settlement/payout", settlementHandler.Payout)
		api.GET("/settlement/:id", settlementHandler.GetSettlement)

		// Bank and verification endpoints
		api.POST("/bank", bankHandler.AddBankDetails)
		api.GET("/bank", bankHandler.GetBankDetails)
		api.POST("/verification/session", bankHandler.CreateVerificationSession)
		api.POST("/verification/check", bankHandler.CheckVerification)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
