package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpulse/database"
	"github.com/sahilchouksey/learnpulse/handlers"
	activity_handlers "github.com/sahilchouksey/learnpulse/handlers/activity"
	admin_handlers "github.com/sahilchouksey/learnpulse/handlers/admin"
	"github.com/sahilchouksey/learnpulse/services"
	"github.com/sahilchouksey/learnpulse/services/realtime"
	"github.com/sahilchouksey/learnpulse/utils"
	"github.com/sahilchouksey/learnpulse/utils/auth"
	"github.com/sahilchouksey/learnpulse/utils/cache"
	"github.com/sahilchouksey/learnpulse/utils/middleware"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage, hub *realtime.Hub, redisCache *cache.RedisCache) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "learnpulse-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret: jwtSecret,
		Expiry: 24 * time.Hour, // Access token expires in 24 hours
		Issuer: jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Initialize services
	activityService := services.NewActivityService(db, hub)
	sessionService := services.NewSessionService(db)
	analyticsService := services.NewAnalyticsService(db)

	// Initialize handlers
	activityHandler := activity_handlers.NewActivityHandler(db, activityService, analyticsService, hub)
	adminActivityHandler := admin_handlers.NewActivityHandler(db, activityService, sessionService, analyticsService, redisCache)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Activity routes (protected)
	activity := api.Group("/activity", authMiddleware.Required())
	activity.Post("/track", activityHandler.Track)              // Record a single event
	activity.Post("/batch", activityHandler.TrackBatch)         // Record a batch of events atomically
	activity.Get("/my-journey", activityHandler.GetMyJourney)   // Caller's own timeline
	activity.Get("/my-stats", activityHandler.GetMyStats)       // Caller's own aggregates
	activity.Get("/stream", activityHandler.StreamUserActivity) // Live per-user activity (SSE)

	// Admin activity routes
	admin := api.Group("/admin", authMiddleware.RequireAdmin())
	admin.Get("/activity", adminActivityHandler.GetActivityFeed)           // Platform-wide feed with filters
	admin.Get("/activity/stream", activityHandler.StreamPlatformAnalytics) // Live platform channel (SSE)
	admin.Get("/users", adminActivityHandler.GetUsersActivityList)         // Per-user roster
	admin.Get("/users/:id", adminActivityHandler.GetUserActivityDetail)    // Single user deep-dive
	admin.Get("/users/:id/sessions", adminActivityHandler.GetUserSessions) // Reconstructed sessions
	admin.Get("/analytics", adminActivityHandler.GetPlatformAnalytics)     // Platform snapshot
}
