package http

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/nutrisnap/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := RegisterValidators(); err != nil {
		log.Printf("[HTTP] Failed to register validators: %v", err)
	}

	if cfg.Server.MaxUploadMB > 0 {
		handler.SetMaxUploadBytes(cfg.Server.MaxUploadMB << 20)
	}

	router := gin.New()
	router.MaxMultipartMemory = handler.maxUploadBytes

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes, all scoped to the token owner
	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(cfg.Auth.JWTSecret))
	{
		classify := v1.Group("/classify")
		{
			classify.POST("", handler.Classify)
			classify.POST("/camera", handler.ClassifyCamera)
		}

		nutrition := v1.Group("/nutrition")
		{
			nutrition.POST("/resolve", handler.ResolveNutrition)
		}

		tracker := v1.Group("/tracker")
		{
			tracker.GET("", handler.Dashboard)
			tracker.POST("/entries", handler.AddTrackerEntry)
			tracker.DELETE("/entries/:id", handler.DeleteTrackerEntry)
		}
	}

	return router
}
