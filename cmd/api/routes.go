package main

import (
	"database/sql"
	"net/http"
	"time"

	"caller-agent/internal/agent"
	"caller-agent/internal/auth"
	"caller-agent/internal/callrecords"
	"caller-agent/internal/httpapi"
	"caller-agent/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type routeDeps struct {
	Auth    *auth.Manager
	Records *callrecords.Service
	Actions *agent.Router
	DB      *sql.DB
	Redis   *redis.Client
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), deps.DB, 2*time.Second); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		if err := deps.Redis.Ping(c.Request.Context()).Err(); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Agent platform invocations (public).
	// NOTE: in production this endpoint sits behind the platform's private
	// integration; protect it with network policy or a shared secret there.
	r.POST("/agent/actions", agent.InvokeHandler(deps.Actions))

	// owner API
	h := httpapi.Handlers{
		Auth:    deps.Auth,
		Records: deps.Records,
	}

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/token", h.IssueToken)

		protected := v1.Group("")
		protected.Use(auth.RequireAccessToken(deps.Auth))
		{
			protected.GET("/records", h.ListRecords)
		}
	}
}
