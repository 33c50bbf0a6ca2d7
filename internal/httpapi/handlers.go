package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"caller-agent/internal/auth"
	"caller-agent/internal/callrecords"
	"caller-agent/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth    *auth.Manager
	Records *callrecords.Service
}

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

// IssueToken exchanges the owner API key for a JWT access token.
func (h Handlers) IssueToken(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.APIKey == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "api_key required"})
		return
	}

	tok, err := h.Auth.ExchangeAPIKey(time.Now(), req.APIKey)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": tok, "token_type": "Bearer"})
}

// ListRecords returns recent call records, optionally filtered by caller
// phone (served by the phone+timestamp index).
func (h Handlers) ListRecords(c *gin.Context) {
	if h.Records == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "records not configured"})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	phone := strings.TrimSpace(c.Query("phone"))

	var (
		recs []callrecords.CallRecord
		err  error
	)
	if phone != "" {
		recs, err = h.Records.ListByPhone(c.Request.Context(), phone, limit)
	} else {
		recs, err = h.Records.ListRecent(c.Request.Context(), limit)
	}
	if err != nil {
		logger.FromGin(c).Error("record listing failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "record listing failed"})
		return
	}
	if recs == nil {
		recs = []callrecords.CallRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"records": recs, "count": len(recs)})
}
