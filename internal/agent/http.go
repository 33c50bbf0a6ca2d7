package agent

import (
	"net/http"

	"caller-agent/pkg/logger"

	"github.com/gin-gonic/gin"
)

// InvokeHandler adapts the router to HTTP transport.
//
// No business logic here: parse the envelope, delegate, write the reply.
// Routed and unknown actions answer HTTP 200 with the fixed envelope;
// infrastructure failures answer HTTP 500 so the platform records an
// invocation failure instead of feeding an error envelope to the agent.
func InvokeHandler(router *Router) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromGin(c)

		var inv Invocation
		if err := c.ShouldBindJSON(&inv); err != nil {
			log.Warn("invocation envelope parse failed", "err", err)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid envelope"})
			return
		}

		resp, err := router.Dispatch(c.Request.Context(), inv)
		if err != nil {
			log.Error("action dispatch failed",
				"api_path", inv.APIPath,
				"http_method", inv.HTTPMethod,
				"err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
