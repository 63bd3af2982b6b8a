// Package main provides the main entry point for the Mekankolik campaign platform
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/mekankolik/mekankolik-api/app/handlers"
	"github.com/mekankolik/mekankolik-api/app/middleware"
	"github.com/mekankolik/mekankolik-api/app/router"
	"github.com/mekankolik/mekankolik-api/app/services"
	businessflow "github.com/mekankolik/mekankolik-api/business_flow"
	"github.com/mekankolik/mekankolik-api/config"
	"github.com/mekankolik/mekankolik-api/repository"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router *router.FiberRouter
	config *config.ProductionConfig
	server *fiber.App
}

func main() {
	log.Println("Starting Mekankolik application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging routes the standard logger to stdout, a rotated file, or both
func setupLogging(cfg config.LoggingConfig) {
	if cfg.Output == "stdout" || cfg.FilePath == "" {
		return
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	switch cfg.Output {
	case "file":
		log.SetOutput(fileWriter)
	default:
		log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	assignmentRepo := repository.NewCampaignAssignmentRepository(db)
	progressRepo := repository.NewCampaignProgressRepository(db)
	evaluationLogRepo := repository.NewRuleEvaluationLogRepository(db)
	usageRepo := repository.NewCampaignUsageRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Initialize token service
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Initialize flows
	ruleEngineFlow := businessflow.NewRuleEngineFlow(
		userRepo,
		campaignRepo,
		assignmentRepo,
		progressRepo,
		commentRepo,
		reservationRepo,
		evaluationLogRepo,
		db,
	)

	assignmentFlow := businessflow.NewAssignmentFlow(
		userRepo,
		campaignRepo,
		assignmentRepo,
		progressRepo,
		ruleEngineFlow,
		db,
		rc,
		&cfg.Cache,
	)

	progressFlow := businessflow.NewProgressFlow(
		userRepo,
		assignmentRepo,
		progressRepo,
		reservationRepo,
		activityRepo,
		assignmentFlow,
		db,
	)

	redemptionFlow := businessflow.NewRedemptionFlow(
		campaignRepo,
		assignmentRepo,
		businessRepo,
		usageRepo,
		db,
	)

	catalogFlow := businessflow.NewCampaignCatalogFlow(
		campaignRepo,
		businessRepo,
		assignmentRepo,
		progressRepo,
		db,
	)

	reservationFlow := businessflow.NewReservationFlow(
		userRepo,
		businessRepo,
		reservationRepo,
		progressFlow,
		db,
	)

	commentFlow := businessflow.NewCommentFlow(
		userRepo,
		businessRepo,
		commentRepo,
		progressFlow,
		db,
	)

	adminReportFlow := businessflow.NewAdminReportFlow(
		usageRepo,
		campaignRepo,
	)

	// Initialize handlers
	campaignHandler := handlers.NewCampaignHandler(catalogFlow)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentFlow)
	redemptionHandler := handlers.NewRedemptionHandler(redemptionFlow)
	purchaseHandler := handlers.NewPurchaseHandler(progressFlow)
	reservationHandler := handlers.NewReservationHandler(reservationFlow)
	commentHandler := handlers.NewCommentHandler(commentFlow)
	adminReportHandler := handlers.NewAdminReportHandler(adminReportFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(
		cfg,
		db,
		rc,
		authMiddleware,
		campaignHandler,
		assignmentHandler,
		redemptionHandler,
		purchaseHandler,
		reservationHandler,
		commentHandler,
		adminReportHandler,
	)

	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router: fiberRouter,
		config: cfg,
		server: fiberRouter.GetApp(),
	}

	return application, nil
}
