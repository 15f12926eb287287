package main

import (
	"context"
	"log"

	"github.com/chamadopro/backend/internal/router"
	"github.com/chamadopro/backend/pkg/config"
	"github.com/chamadopro/backend/pkg/firebase"
	"github.com/chamadopro/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase for push notifications. Push is optional; the
	// server still runs without credentials, notifications stay in-app only.
	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Printf("Firebase unavailable, push notifications disabled: %v", err)
		firebaseApp = nil
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, cfg, db, firebaseApp)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
