package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/notion-mdx-sync/internal/config"
	"github.com/notion-mdx-sync/internal/service"
)

// ServiceName is reported by the health endpoint
const ServiceName = "notion-mdx-sync"

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	syncHandler := NewSyncHandler(services, cfg, log)

	router.GET("/health", healthCheck)
	router.GET("/metrics", metricsHandler(services))

	v1 := router.Group("/v1")
	{
		syncs := v1.Group("/syncs")
		{
			syncs.POST("", syncHandler.CreateSync)
			syncs.GET("", syncHandler.ListSyncs)
			syncs.GET("/:run_id", syncHandler.GetSyncStatus)
			syncs.GET("/:run_id/files", syncHandler.GetSyncFiles)
		}
	}

	return router
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   ServiceName,
	})
}

// metricsHandler reports the counters of the most recent run
func metricsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		runs, err := services.Run.ListRuns(c.Request.Context(), 1)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read run ledger"})
			return
		}

		last := gin.H{}
		if len(runs) > 0 {
			r := runs[0]
			last = gin.H{
				"run_id":    r.ID,
				"status":    r.Status,
				"total":     r.Total,
				"created":   r.Created,
				"updated":   r.Updated,
				"unchanged": r.Unchanged,
				"skipped":   r.Skipped,
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"last_run":  last,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		statusCode := c.Writer.Status()
		event := log.Info()
		switch {
		case statusCode >= 500:
			event = log.Error()
		case statusCode >= 400:
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Idempotency-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
