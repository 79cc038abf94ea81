package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mark/internal/config"
	"mark/internal/domain/bridge"
	"mark/internal/infrastructure/blockchain"
	"mark/internal/infrastructure/cache"
	"mark/internal/infrastructure/chain"
	"mark/internal/infrastructure/everclear"
	"mark/internal/infrastructure/repositories"
	"mark/internal/interfaces/http/handlers"
	"mark/internal/interfaces/http/middleware"
	"mark/internal/usecases"
	"mark/pkg/logger"
	"mark/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt:    false,
			TranslateError: true,
		})
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dsn := cfg.Database.URL()
	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("connected to PostgreSQL via GORM")
	}

	// Repositories
	chainRepo := repositories.NewChainRepository(db)
	assetRepo := repositories.NewAssetConfigRepository(db)
	earmarkRepo := repositories.NewEarmarkRepository(db)
	rebalanceRepo := repositories.NewRebalanceOperationRepository(db)
	swapRepo := repositories.NewSwapOperationRepository(db)
	routeRepo := repositories.NewRouteConfigRepository(db)

	// On-chain access and bridge/CEX adapters. No concrete adapter ships in
	// this engine (out of scope), so the registry is wired empty; a
	// deployment installs its adapters via bridges.Register before serving.
	clientFactory := blockchain.NewClientFactory()
	chainSvc := chain.NewService(clientFactory, chainRepo)
	bridges := bridge.NewRegistry()

	hubClient := everclear.NewClient(cfg.Everclear.HubBaseURL, cfg.Everclear.HubAPIKey)

	redisClient := redis.GetClient()
	purchaseCache := cache.NewPurchaseCache(redisClient)
	pauseFlags := cache.NewPauseFlags(redisClient)

	// Usecases
	balances := usecases.NewBalanceAccounting(chainRepo, assetRepo, earmarkRepo, rebalanceRepo, chainSvc)
	planner := usecases.NewPlanner(routeRepo, assetRepo, balances, bridges)
	executor := usecases.NewExecutor(earmarkRepo, rebalanceRepo, swapRepo, chainRepo, chainSvc, bridges, nil)

	eventProcessor := usecases.NewEventProcessor(
		hubClient,
		chainRepo,
		assetRepo,
		earmarkRepo,
		balances,
		planner,
		executor,
		purchaseCache,
		pauseFlags,
		nil, // no in-repo PurchaseSplitter implementation; see DESIGN.md
		cfg.Rebalance.MaxInvoiceAge,
	)
	queue := usecases.NewQueue(eventProcessor)

	callbackLoop := usecases.NewCallbackLoop(rebalanceRepo, earmarkRepo, chainSvc, bridges, cfg.Rebalance.CallbackPollPeriod)
	swapMachine := usecases.NewSwapStateMachine(swapRepo, rebalanceRepo, earmarkRepo, bridges, cfg.Rebalance.CallbackPollPeriod)
	expiryTicker := usecases.NewExpiryTicker(rebalanceRepo, cfg.Rebalance.CallbackPollPeriod, cfg.Rebalance.EarmarkTTL)

	webhookHandler := handlers.NewWebhookHandler(queue, cfg.Everclear.WebhookSecret, 0)
	rebalanceOperationsHandler := handlers.NewRebalanceOperationsHandler(rebalanceRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go callbackLoop.Run(ctx)
	go swapMachine.Run(ctx)
	go expiryTicker.Run(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		webhookHandler:             webhookHandler,
		rebalanceOperationsHandler: rebalanceOperationsHandler,
	})

	log.Println("registered routes:")
	for _, route := range r.Routes() {
		log.Printf("   %s %s", route.Method, route.Path)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("shutting down server...")
		cancel()
	}()

	log.Printf("mark starting on port %s", cfg.Server.Port)
	log.Printf("webhook: http://localhost:%s/api/v1/webhook", cfg.Server.Port)
	log.Printf("health: http://localhost:%s/health", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
