// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"hutsync/internal/hrs"
	"hutsync/internal/quotas"
	"hutsync/internal/shared/config"
	"hutsync/internal/shared/database"
	"hutsync/pkg/cache"
	"hutsync/pkg/retry"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	hrsClient *hrs.Client
	publisher quotas.EventPublisher
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, hrsClient *hrs.Client, publisher quotas.EventPublisher) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		hrsClient: hrsClient,
		publisher: publisher,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupQuotaRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "hutsync",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "hutsync",
			"logged_in": r.hrsClient.IsLoggedIn(),
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}

// setupQuotaRoutes configures quota reconciliation and mirror routes
func (r *Router) setupQuotaRoutes(rg *gin.RouterGroup) {
	quotaRepo := quotas.NewRepository(r.db.GetMySQL())
	quotaService := quotas.NewService(r.hrsClient, quotaRepo, r.config.HRS.SafetyMarginDays)

	// Redis-backed concerns are optional; without Redis every run logs in
	// fresh and mirror reads skip the cache
	if rdb := r.db.GetRedis(); rdb != nil {
		cacheService := cache.NewService(rdb)
		quotaService.SetCacheService(cacheService)
		r.hrsClient.SetSessionStore(hrs.NewRedisSessionStore(cacheService, r.config.HRS.HutID, r.config.Redis.SessionTTL))
	}

	r.hrsClient.SetRetryPolicy(retry.Policy{
		MaxAttempts: r.config.HRS.RetryMaxAttempts,
		Backoff:     retry.ExponentialBackoff(r.config.HRS.RetryBackoff, 10*time.Second),
	})

	if r.publisher != nil {
		quotaService.SetEventPublisher(r.publisher)
	}

	quotaController := quotas.NewController(quotaService)
	quotas.SetupQuotaRoutes(rg, quotaController)
}
