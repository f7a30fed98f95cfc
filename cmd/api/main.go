package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"tessera/internal/clock"
	"tessera/internal/config"
	"tessera/internal/database"
	"tessera/internal/handlers"
	"tessera/internal/logger"
	"tessera/internal/middleware"
	"tessera/internal/services"
	"tessera/internal/validator"

	_ "tessera/internal/docs" // Import swagger docs
)

// @title           Tessera API
// @version         1.0
// @description     Tessera is a digital-experience marketplace backend: collectible registry, rental, lending, auction, and sale markets, token staking, and on-platform governance.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

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

	// Seed the singleton economy rows
	db := dbManager.DB()
	if err := services.SeedEconomy(db); err != nil {
		return fmt.Errorf("failed to seed economy: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	clk := clock.System{}
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, clk, eventService)
	assetService := services.NewAssetService(db, clk, eventService)
	rentalService := services.NewRentalService(db, clk, eventService)
	lendingService := services.NewLendingService(db, clk, eventService)
	auctionService := services.NewAuctionService(db, clk, eventService)
	saleService := services.NewSaleService(db, clk, eventService)
	stakingService := services.NewStakingService(db, clk, eventService)
	treasuryService := services.NewTreasuryService(db, eventService)
	governanceService := services.NewGovernanceService(db, clk, stakingService, eventService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	assetHandler := handlers.NewAssetHandler(assetService)
	rentalHandler := handlers.NewRentalHandler(rentalService)
	lendingHandler := handlers.NewLendingHandler(lendingService)
	auctionHandler := handlers.NewAuctionHandler(auctionService)
	saleHandler := handlers.NewSaleHandler(saleService)
	stakingHandler := handlers.NewStakingHandler(stakingService)
	treasuryHandler := handlers.NewTreasuryHandler(treasuryService)
	governanceHandler := handlers.NewGovernanceHandler(governanceService)
	eventHandler := handlers.NewEventHandler(eventService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile and wallet
	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/wallet/deposit", authHandler.Deposit)

	// Asset registry routes
	assets := protected.Group("/assets")
	assets.POST("", assetHandler.MintWhole)
	assets.POST("/fractions", assetHandler.MintFraction)
	assets.GET("", assetHandler.GetMyAssets)
	assets.GET("/:id", assetHandler.GetAsset)
	assets.POST("/:id/transfer", assetHandler.Transfer)

	// Rental market routes
	rentals := protected.Group("/rentals")
	rentals.POST("", rentalHandler.CreateListing)
	rentals.GET("", rentalHandler.GetOpenListings)
	rentals.GET("/:id", rentalHandler.GetListing)
	rentals.POST("/:id/rent", rentalHandler.Rent)
	rentals.POST("/:id/reclaim", rentalHandler.Reclaim)
	rentals.DELETE("/:id", rentalHandler.Cancel)

	// Lending market routes
	loans := protected.Group("/loans")
	loans.POST("", lendingHandler.CreateLoan)
	loans.GET("", lendingHandler.GetOpenLoans)
	loans.GET("/:id", lendingHandler.GetLoan)
	loans.POST("/:id/fund", lendingHandler.Fund)
	loans.POST("/:id/repay", lendingHandler.Repay)
	loans.POST("/:id/liquidate", lendingHandler.Liquidate)
	loans.DELETE("/:id", lendingHandler.Cancel)

	// Auction house routes
	auctions := protected.Group("/auctions")
	auctions.POST("", auctionHandler.CreateAuction)
	auctions.GET("", auctionHandler.GetOpenAuctions)
	auctions.GET("/:id", auctionHandler.GetAuction)
	auctions.POST("/:id/bid", auctionHandler.Bid)
	auctions.POST("/:id/settle", auctionHandler.Settle)
	auctions.DELETE("/:id", auctionHandler.Cancel)

	// Fixed-price sale routes
	sales := protected.Group("/sales")
	sales.POST("", saleHandler.CreateListing)
	sales.GET("", saleHandler.GetOpenListings)
	sales.GET("/:id", saleHandler.GetListing)
	sales.POST("/:id/buy", saleHandler.Buy)
	sales.DELETE("/:id", saleHandler.Cancel)

	// Staking routes
	staking := protected.Group("/staking")
	staking.POST("/stake", stakingHandler.Stake)
	staking.POST("/unstake", stakingHandler.Unstake)
	staking.POST("/claim", stakingHandler.Claim)
	staking.GET("/pending", stakingHandler.GetPending)
	staking.POST("/fund", stakingHandler.FundRewards)
	staking.PUT("/emission-rate", stakingHandler.SetEmissionRate)
	staking.GET("/pool", stakingHandler.GetPool)

	// Treasury routes
	treasury := protected.Group("/treasury")
	treasury.POST("/deposit", treasuryHandler.Deposit)
	treasury.GET("", treasuryHandler.GetTreasury)
	treasury.GET("/burned", treasuryHandler.GetBurnSink)

	// Governance routes
	governance := protected.Group("/governance")
	governance.POST("/proposals", governanceHandler.CreateProposal)
	governance.GET("/proposals", governanceHandler.GetProposals)
	governance.GET("/proposals/:id", governanceHandler.GetProposal)
	governance.POST("/proposals/:id/vote", governanceHandler.Vote)
	governance.POST("/proposals/:id/execute", governanceHandler.Execute)
	governance.GET("/params", governanceHandler.GetParams)

	// Event history routes
	events := protected.Group("/events")
	events.GET("/:entity_type/:id", eventHandler.GetEntityEvents)

	log.Infof("Starting Tessera backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
