// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/mekankolik/mekankolik-api/app/dto"
	"github.com/mekankolik/mekankolik-api/app/handlers"
	"github.com/mekankolik/mekankolik-api/app/middleware"
	"github.com/mekankolik/mekankolik-api/config"
	"github.com/mekankolik/mekankolik-api/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app                *fiber.App
	cfg                *config.ProductionConfig
	db                 *gorm.DB
	rc                 *redis.Client
	authMiddleware     *middleware.AuthMiddleware
	campaignHandler    handlers.CampaignHandlerInterface
	assignmentHandler  handlers.AssignmentHandlerInterface
	redemptionHandler  handlers.RedemptionHandlerInterface
	purchaseHandler    handlers.PurchaseHandlerInterface
	reservationHandler handlers.ReservationHandlerInterface
	commentHandler     handlers.CommentHandlerInterface
	adminReportHandler handlers.AdminReportHandlerInterface
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	cfg *config.ProductionConfig,
	db *gorm.DB,
	rc *redis.Client,
	authMiddleware *middleware.AuthMiddleware,
	campaignHandler handlers.CampaignHandlerInterface,
	assignmentHandler handlers.AssignmentHandlerInterface,
	redemptionHandler handlers.RedemptionHandlerInterface,
	purchaseHandler handlers.PurchaseHandlerInterface,
	reservationHandler handlers.ReservationHandlerInterface,
	commentHandler handlers.CommentHandlerInterface,
	adminReportHandler handlers.AdminReportHandlerInterface,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Mekankolik API",
		ServerHeader: "Mekankolik",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:                app,
		cfg:                cfg,
		db:                 db,
		rc:                 rc,
		authMiddleware:     authMiddleware,
		campaignHandler:    campaignHandler,
		assignmentHandler:  assignmentHandler,
		redemptionHandler:  redemptionHandler,
		purchaseHandler:    purchaseHandler,
		reservationHandler: reservationHandler,
		commentHandler:     commentHandler,
		adminReportHandler: adminReportHandler,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// Prometheus metrics endpoint
	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// API routes
	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	// General rate limiting for all API routes
	api.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.GlobalRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	auth := r.authMiddleware.Authenticate()
	adminAuth := r.authMiddleware.AdminAuthenticate()

	// Campaign catalog
	campaigns := api.Group("/campaigns")
	campaigns.Get("/:uuid", r.campaignHandler.GetActiveCampaign, auth)

	// User-facing resources
	my := api.Group("/my", auth)
	my.Get("/campaigns", r.campaignHandler.ListMyCampaigns)
	my.Get("/reservations", r.reservationHandler.ListMyReservations)

	// Redemption tokens
	tokens := api.Group("/tokens")
	tokens.Post("/request", r.redemptionHandler.RequestToken, auth)
	tokens.Post("/consume", r.redemptionHandler.ConsumeToken, auth)

	// Progress event sources
	api.Post("/reservations", r.reservationHandler.CreateReservation, auth)
	api.Delete("/reservations/:id", r.reservationHandler.CancelReservation, auth)
	api.Post("/comments", r.commentHandler.CreateComment, auth)
	api.Post("/purchases", r.purchaseHandler.RecordPurchase, auth)

	// Admin surface
	admin := api.Group("/admin", adminAuth)
	admin.Post("/campaigns", r.campaignHandler.CreateCampaign)
	admin.Get("/campaigns", r.campaignHandler.ListCampaigns)
	admin.Patch("/campaigns/:uuid/active", r.campaignHandler.SetCampaignActive)
	admin.Post("/assignments", r.assignmentHandler.ManualAssign)
	admin.Post("/sweep", r.assignmentHandler.TriggerSweep)
	admin.Get("/evaluations", r.assignmentHandler.PreviewEligibility)
	admin.Get("/usage", r.adminReportHandler.ListUsage)
	admin.Get("/usage/export", r.adminReportHandler.DownloadUsageExcel)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware, must run first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		XDNSPrefetchControl:   "off",
		XDownloadOptions:      "noopen",
		XPermittedCrossDomain: "none",
	}))

	// CORS with production settings
	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     r.cfg.Security.AllowedHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	// Compression
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Structured request logging
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	// Prometheus HTTP metrics
	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	// Recovery with panic logging
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// healthCheck reports service health including database and cache connectivity
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	components := fiber.Map{}
	healthy := true

	if sqlDB, err := r.db.DB(); err != nil {
		components["database"] = "error"
		healthy = false
	} else if err := sqlDB.PingContext(ctx); err != nil {
		components["database"] = "unreachable"
		healthy = false
	} else {
		components["database"] = "ok"
	}

	if r.rc == nil {
		components["cache"] = "disabled"
	} else if err := r.rc.Ping(ctx).Err(); err != nil {
		components["cache"] = "unreachable"
		healthy = false
	} else {
		components["cache"] = "ok"
	}

	status := fiber.StatusOK
	message := "Service is healthy"
	if !healthy {
		status = fiber.StatusServiceUnavailable
		message = "Service is degraded"
	}

	return c.Status(status).JSON(dto.APIResponse{
		Success: healthy,
		Message: message,
		Data: fiber.Map{
			"status":     components,
			"timestamp":  utils.UTCNow().Unix(),
			"service":    "mekankolik-api",
			"version":    "1.0.0",
			"request_id": c.Locals("requestid"),
		},
	})
}

// notFoundHandler handles unmatched routes
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// errorHandler is the global Fiber error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
