package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skinvault-api/internal/cache"
	"skinvault-api/internal/config"
	"skinvault-api/internal/handler"
	"skinvault-api/internal/httpx"
	"skinvault-api/internal/marketplace"
	"skinvault-api/internal/marketplace/csfloat"
	"skinvault-api/internal/marketplace/ratelimit"
	"skinvault-api/internal/marketplace/skinport"
	"skinvault-api/internal/marketplace/steam"
	"skinvault-api/internal/middleware"
	"skinvault-api/internal/model"
	"skinvault-api/internal/repository"
	"skinvault-api/internal/router"
	"skinvault-api/internal/service"
	"skinvault-api/internal/steamapi"
	"skinvault-api/pkg/clock"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting SkinVault API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	clk := clock.Real()

	// Initialize inventory repository based on config
	var inventoryRepo repository.InventoryRepository
	switch cfg.InventoryDB.Type {
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresInventoryRepository(cfg.InventoryDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		defer pgRepo.Close()
		inventoryRepo = pgRepo
		log.Println("PostgreSQL inventory repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteInventoryRepository(cfg.InventoryDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		defer sqliteRepo.Close()
		inventoryRepo = sqliteRepo
		log.Println("SQLite inventory repository initialized")
	}

	// Initialize MySQL connection for users and sync audit (optional)
	var err error
	var mysqlDB *sql.DB
	var userRepo repository.UserRepository
	var auditRepo repository.SyncAuditRepository

	mysqlDSN := cfg.Database.DSN()
	mysqlDB, err = sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Printf("Warning: MySQL connection failed: %v", err)
	} else {
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)

		if err := mysqlDB.Ping(); err != nil {
			log.Printf("Warning: MySQL ping failed: %v", err)
			mysqlDB.Close()
			mysqlDB = nil
		} else {
			userRepo = repository.NewMySQLUserRepository(mysqlDB)
			auditRepo = repository.NewMySQLSyncAuditRepository(mysqlDB)
			log.Println("MySQL repositories initialized")
		}
	}
	if mysqlDB != nil {
		defer mysqlDB.Close()
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddress(),
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		redisClient = nil
	} else {
		log.Println("Redis client initialized")
	}
	cancel()

	// Initialize price cache based on config
	var priceCache cache.PriceCache
	if cfg.Cache.Type == "redis" && redisClient != nil {
		priceCache = cache.NewRedisPriceCache(redisClient, "skinvault:prices:", clk)
		log.Println("Redis price cache initialized")
	} else {
		priceCache = cache.NewMemoryPriceCache(clk)
		log.Println("In-memory price cache initialized")
	}

	// Initialize marketplace adapters, each behind a per-marketplace
	// minimum-interval gate sharing one upstream quota.
	priceHTTP := httpx.New(cfg.Prices.RequestTimeout)

	adapters := []marketplace.Adapter{
		&ratelimit.MinInterval{
			Adapter: steam.New(steam.Config{
				Endpoint: cfg.Prices.SteamEndpoint,
			}, priceHTTP, clk),
			Interval: cfg.Prices.MinInterval,
		},
		&ratelimit.MinInterval{
			Adapter: csfloat.New(csfloat.Config{
				Endpoint: cfg.Prices.CSFloatEndpoint,
				APIKey:   cfg.Prices.CSFloatAPIKey,
			}, priceHTTP, clk),
			Interval: cfg.Prices.MinInterval,
		},
		&ratelimit.MinInterval{
			Adapter: skinport.New(skinport.Config{
				Endpoint: cfg.Prices.SkinportEndpoint,
			}, priceHTTP, clk),
			Interval: cfg.Prices.MinInterval,
		},
	}

	fees := marketplace.FeeTable{
		model.MarketplaceSteam:    cfg.Prices.SteamFeePercent,
		model.MarketplaceCSFloat:  cfg.Prices.CSFloatFeePercent,
		model.MarketplaceSkinport: cfg.Prices.SkinportFeePercent,
	}

	// Initialize services
	priceService := service.NewPriceService(adapters, priceCache, fees, cfg.Prices.TTL, clk)

	inventoryClient := steamapi.New(steamapi.Config{
		Endpoint: cfg.Sync.Endpoint,
	}, httpx.New(cfg.Sync.RequestTimeout))

	syncService := service.NewSyncService(inventoryClient, inventoryRepo, userRepo, auditRepo, service.SyncOptions{
		PageSize:            cfg.Sync.PageSize,
		PageDelay:           cfg.Sync.PageDelay,
		UserDelay:           cfg.Sync.UserDelay,
		RateLimitCooldown:   cfg.Sync.RateLimitCooldown,
		MaxRateLimitRetries: cfg.Sync.MaxRateLimitRetries,
	}, clk)

	refreshDriver := service.NewRefreshDriver(userRepo, syncService, service.RefreshOptions{
		ActivityWindow:  cfg.Refresh.ActivityWindow,
		StalenessWindow: cfg.Refresh.StalenessWindow,
		UserDelay:       cfg.Refresh.UserDelay,
	}, clk)

	var sessionService *service.SessionService
	if redisClient != nil {
		sessionService = service.NewSessionService(redisClient)
	}

	// Optional in-process refresh scheduler
	var refreshScheduler *service.RefreshScheduler
	if cfg.Refresh.Interval > 0 {
		refreshScheduler = service.NewRefreshScheduler(refreshDriver, cfg.Refresh.Interval)
		refreshScheduler.Start()
		log.Printf("Refresh scheduler started (interval %s)", cfg.Refresh.Interval)
	}

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	priceHandler := handler.NewPriceHandler(priceService)
	inventoryHandler := handler.NewInventoryHandler(syncService, inventoryRepo, userRepo)
	refreshHandler := handler.NewRefreshHandler(refreshDriver, auditRepo, cfg.App.CronSecret)

	var authHandler *handler.AuthHandler
	if sessionService != nil && userRepo != nil {
		authHandler = handler.NewAuthHandler(sessionService, userRepo)
	}

	// Create auth middleware with injected dependencies (NO GLOBALS!)
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		Sessions: sessionService,
	})

	// Create router
	r := router.New(router.Config{
		Handler:          healthHandler,
		PriceHandler:     priceHandler,
		InventoryHandler: inventoryHandler,
		AuthHandler:      authHandler,
		RefreshHandler:   refreshHandler,
		AuthMiddleware:   authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if refreshScheduler != nil {
		refreshScheduler.Stop()
	}

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
