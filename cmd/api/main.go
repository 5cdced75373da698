package main

import (
	"fmt"
	"net/http"
	"os"

	"marketledger/internal/config"
	"marketledger/internal/database"
	"marketledger/internal/handlers"
	"marketledger/internal/logger"
	"marketledger/internal/middleware"
	"marketledger/internal/services"
	"marketledger/internal/validator"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom binding validators
	validator.Register()

	// Initialize services and handlers
	marketService := services.NewMarketService(dbManager.DB())
	securityHandler := handlers.NewSecurityHandler(marketService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group: read-only query endpoints for the dashboard
	v1 := router.Group("/api/v1")

	securities := v1.Group("/securities")
	securities.GET("", securityHandler.ListSecurities)
	securities.GET("/:code/records", securityHandler.ListDailyRecords)

	log.Infof("Starting market ledger query API on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
