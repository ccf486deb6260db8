// Package server exposes the service's minimal operational HTTP
// surface: health, version and job counters. The daemon's real work
// happens in the job monitor and worker pool; nothing here is on the
// persistence path.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/yungbote/persistsvc/internal/config"
	"github.com/yungbote/persistsvc/internal/jobs"
	"github.com/yungbote/persistsvc/internal/observability"
	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/version"
)

type RouterConfig struct {
	Log     *logger.Logger
	DB      *gorm.DB
	Env     string
	Stats   func() jobs.Stats
	Metrics *observability.Metrics
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(config.ServiceName))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: false,
	}))

	router.GET("/healthz", healthHandler(cfg))
	router.GET("/version", versionHandler(cfg))
	router.GET("/stats", statsHandler(cfg))
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	return router
}

// healthHandler pings the store; an instance that cannot reach the
// store cannot claim or persist anything and reports unhealthy.
func healthHandler(cfg RouterConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.DB != nil {
			sqlDB, err := cfg.DB.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				if cfg.Log != nil {
					cfg.Log.Warn("Health check failed", "error", err)
				}
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func versionHandler(cfg RouterConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": config.ServiceName,
			"env":     cfg.Env,
			"version": version.Version,
			"build":   version.Build,
		})
	}
}

func statsHandler(cfg RouterConfig) gin.HandlerFunc {
	started := time.Now().UTC()
	return func(c *gin.Context) {
		var stats jobs.Stats
		if cfg.Stats != nil {
			stats = cfg.Stats()
		}
		c.JSON(http.StatusOK, gin.H{
			"service": config.ServiceName,
			"started": started,
			"jobs":    stats,
		})
	}
}
