package router

import (
	"log"

	"github.com/chamadopro/backend/internal/handlers"
	"github.com/chamadopro/backend/internal/middleware"
	"github.com/chamadopro/backend/internal/models"
	"github.com/chamadopro/backend/internal/moderation"
	"github.com/chamadopro/backend/internal/notify"
	"github.com/chamadopro/backend/internal/payments"
	"github.com/chamadopro/backend/internal/realtime"
	"github.com/chamadopro/backend/internal/repositories"
	"github.com/chamadopro/backend/pkg/config"
	"github.com/chamadopro/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *config.DB, firebaseApp *firebase.App) {
	// AutoMigrate PostgreSQL models
	err := db.Postgres.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Budget{},
		&models.Negotiation{},
		&models.Contract{},
		&models.Review{},
		&models.Payment{},
		&models.Dispute{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	postRepo := repositories.NewPostgresPostRepository(db.Postgres)
	budgetRepo := repositories.NewPostgresBudgetRepository(db.Postgres)
	contractRepo := repositories.NewPostgresContractRepository(db.Postgres)
	paymentRepo := repositories.NewPostgresPaymentRepository(db.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)
	messageRepo := repositories.NewMongoMessageRepository(db.Mongo.Database("chamadopro"))

	// --- Initialize shared services ---
	hub := realtime.NewHub()
	notifier := notify.NewNotifier(notificationRepo, userRepo, hub, firebaseApp)
	filter := moderation.NewFilter(cfg.ModerationBlocklist)
	gateway, err := payments.NewMercadoPagoGateway(cfg.MercadoPagoAccessToken)
	if err != nil {
		log.Fatalf("Failed to initialize payment gateway: %v", err)
	}

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Unprotected payment gateway webhook ---
	paymentHandler := handlers.NewPaymentHandler(paymentRepo, contractRepo, gateway, notifier, hub)
	webhookGroup := e.Group("/api/v1")
	paymentHandler.RegisterWebhookRoutes(webhookGroup)
	log.Println("Payment webhook route configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo, contractRepo)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	// Post routes
	postHandler := handlers.NewPostHandler(postRepo, userRepo)
	postHandler.RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	// Budget routes
	budgetHandler := handlers.NewBudgetHandler(budgetRepo, postRepo, notifier, hub, cfg.PlatformFeeRate, cfg.BudgetTTL)
	budgetHandler.RegisterBudgetRoutes(api)
	log.Println("Budget routes configured.")

	// Contract routes
	contractHandler := handlers.NewContractHandler(contractRepo, notifier, hub)
	contractHandler.RegisterContractRoutes(api)
	log.Println("Contract routes configured.")

	// Payment routes
	paymentHandler.RegisterPaymentRoutes(api)
	log.Println("Payment routes configured.")

	// Chat and websocket routes
	messageHandler := handlers.NewMessageHandler(messageRepo, contractRepo, filter, notifier, hub)
	messageHandler.RegisterMessageRoutes(api)
	log.Println("Message routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	// Admin routes
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AdminGuard)
	adminHandler := handlers.NewAdminHandler(db.Postgres, userRepo, contractRepo, messageRepo, notifier, hub)
	adminHandler.RegisterAdminRoutes(adminGroup)
	log.Println("Admin routes configured.")

	log.Println("All routes configured.")
}
