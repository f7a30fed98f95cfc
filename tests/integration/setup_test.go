// Package integration contains end-to-end API tests that exercise the full
// stack: router, middleware, handlers, services, and an isolated in-memory
// database per test. Time is driven by a fake clock shared by every service.
package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tessera/internal/clock"
	"tessera/internal/handlers"
	"tessera/internal/logger"
	"tessera/internal/middleware"
	"tessera/internal/models"
	"tessera/internal/services"
	"tessera/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// testApp bundles everything an integration test needs.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Clock  *clock.Fake
}

// dbCounter gives each test an isolated in-memory database.
var dbCounter atomic.Int64

func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Asset{},
		&models.RentalListing{},
		&models.Loan{},
		&models.Auction{},
		&models.SaleListing{},
		&models.StakePool{},
		&models.StakePosition{},
		&models.Treasury{},
		&models.BurnSink{},
		&models.GovParams{},
		&models.Proposal{},
		&models.Vote{},
		&models.Event{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// setupApp wires the full application stack against an isolated database.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	if err := services.SeedEconomy(db); err != nil {
		t.Fatalf("failed to seed economy: %v", err)
	}

	clk := clock.NewFake(time.UnixMilli(1_700_000_000_000))

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

	router := gin.New()
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/wallet/deposit", authHandler.Deposit)

	assets := protected.Group("/assets")
	assets.POST("", assetHandler.MintWhole)
	assets.POST("/fractions", assetHandler.MintFraction)
	assets.GET("", assetHandler.GetMyAssets)
	assets.GET("/:id", assetHandler.GetAsset)
	assets.POST("/:id/transfer", assetHandler.Transfer)

	rentals := protected.Group("/rentals")
	rentals.POST("", rentalHandler.CreateListing)
	rentals.GET("", rentalHandler.GetOpenListings)
	rentals.GET("/:id", rentalHandler.GetListing)
	rentals.POST("/:id/rent", rentalHandler.Rent)
	rentals.POST("/:id/reclaim", rentalHandler.Reclaim)
	rentals.DELETE("/:id", rentalHandler.Cancel)

	loans := protected.Group("/loans")
	loans.POST("", lendingHandler.CreateLoan)
	loans.GET("", lendingHandler.GetOpenLoans)
	loans.GET("/:id", lendingHandler.GetLoan)
	loans.POST("/:id/fund", lendingHandler.Fund)
	loans.POST("/:id/repay", lendingHandler.Repay)
	loans.POST("/:id/liquidate", lendingHandler.Liquidate)
	loans.DELETE("/:id", lendingHandler.Cancel)

	auctions := protected.Group("/auctions")
	auctions.POST("", auctionHandler.CreateAuction)
	auctions.GET("", auctionHandler.GetOpenAuctions)
	auctions.GET("/:id", auctionHandler.GetAuction)
	auctions.POST("/:id/bid", auctionHandler.Bid)
	auctions.POST("/:id/settle", auctionHandler.Settle)
	auctions.DELETE("/:id", auctionHandler.Cancel)

	sales := protected.Group("/sales")
	sales.POST("", saleHandler.CreateListing)
	sales.GET("", saleHandler.GetOpenListings)
	sales.GET("/:id", saleHandler.GetListing)
	sales.POST("/:id/buy", saleHandler.Buy)
	sales.DELETE("/:id", saleHandler.Cancel)

	staking := protected.Group("/staking")
	staking.POST("/stake", stakingHandler.Stake)
	staking.POST("/unstake", stakingHandler.Unstake)
	staking.POST("/claim", stakingHandler.Claim)
	staking.GET("/pending", stakingHandler.GetPending)
	staking.POST("/fund", stakingHandler.FundRewards)
	staking.PUT("/emission-rate", stakingHandler.SetEmissionRate)
	staking.GET("/pool", stakingHandler.GetPool)

	treasury := protected.Group("/treasury")
	treasury.POST("/deposit", treasuryHandler.Deposit)
	treasury.GET("", treasuryHandler.GetTreasury)
	treasury.GET("/burned", treasuryHandler.GetBurnSink)

	governance := protected.Group("/governance")
	governance.POST("/proposals", governanceHandler.CreateProposal)
	governance.GET("/proposals", governanceHandler.GetProposals)
	governance.GET("/proposals/:id", governanceHandler.GetProposal)
	governance.POST("/proposals/:id/vote", governanceHandler.Vote)
	governance.POST("/proposals/:id/execute", governanceHandler.Execute)
	governance.GET("/params", governanceHandler.GetParams)

	events := protected.Group("/events")
	events.GET("/:entity_type/:id", eventHandler.GetEntityEvents)

	return &testApp{DB: db, Router: router, Clock: clk}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token and user ID.
func (app *testApp) registerUser(t *testing.T, email string) (accessToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"password123","display_name":"Test User"}`, email)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), user["id"].(string)
}

// deposit credits a user's wallet through the API.
func (app *testApp) deposit(t *testing.T, token, currency string, amount int64) {
	t.Helper()
	body := fmt.Sprintf(`{"currency":%q,"amount":%d}`, currency, amount)
	rec := app.request("POST", "/api/v1/wallet/deposit", body, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit failed: %d %s", rec.Code, rec.Body.String())
	}
}

// mintAsset mints a whole collectible and returns its ID.
func (app *testApp) mintAsset(t *testing.T, token, name string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q}`, name)
	rec := app.request("POST", "/api/v1/assets", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("mint failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	asset := result["asset"].(map[string]interface{})
	return asset["id"].(string)
}

// coinBalance reads a user's coin balance through the profile endpoint.
func (app *testApp) coinBalance(t *testing.T, token string) int64 {
	t.Helper()
	rec := app.request("GET", "/api/v1/profile", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return int64(user["coin_balance"].(float64))
}

// errorCode extracts the error code from an error response.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	result := parseJSON(t, rec)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error response, got: %s", rec.Body.String())
	}
	return errObj["code"].(string)
}
