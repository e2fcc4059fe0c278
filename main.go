package main

import (
	"fmt"
	"log"

	"stocksim/config"
	"stocksim/database"
	"stocksim/handlers"
	"stocksim/ledger"
	"stocksim/middleware"
	"stocksim/quotes"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; config.yaml plus SIM_* env vars are the source of truth
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	startingCash, err := cfg.StartingCash()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("get database instance: %v", err)
	}
	defer sqlDB.Close()

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	rdb, err := database.InitRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("init redis: %v", err)
	}
	defer rdb.Close()

	var provider quotes.Provider = quotes.NewAlphaVantage(cfg.Quotes.APIKey, cfg.Quotes.BaseURL)
	provider = quotes.NewCache(provider, rdb, cfg.QuoteCacheTTL())

	store := ledger.NewStore(db)
	engine := ledger.NewEngine(store, provider)

	authHandler := handlers.NewAuthHandler(store, rdb, cfg.JWT.Secret, cfg.JWT.ExpireHours, startingCash)
	tradeHandler := handlers.NewTradeHandler(engine)
	quoteHandler := handlers.NewQuoteHandler(provider)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.Default()

	// Public routes
	router.POST("/signup", authHandler.Signup)
	router.POST("/login", authHandler.Login)

	// Protected routes
	auth := router.Group("/")
	auth.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/password", authHandler.ChangePassword)
		auth.GET("/quote/:symbol", quoteHandler.GetQuote)
		auth.POST("/buy", tradeHandler.Buy)
		auth.POST("/sell", tradeHandler.Sell)
		auth.GET("/portfolio", tradeHandler.GetPortfolio)
		auth.GET("/history", tradeHandler.GetHistory)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
