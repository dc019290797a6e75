package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/smartlens_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Version is the API version reported by /health and /api.
const Version = "1.0.0"

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// getHealth godoc
// @Summary Health check
// @Description Reports whether the server and its store are reachable.
// @Tags root
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func getHealth(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker != nil {
			if err := checker.Ping(c.Request.Context()); err != nil {
				middleware.GetLoggerFromCtx(c.Request.Context()).Error("Health check failed", slog.String("error", err.Error()))
				c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Version: Version})
				return
			}
		}
		c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: Version})
	}
}

// getAPIInfo godoc
// @Summary API information
// @Description Lists the service name, version and main endpoints.
// @Tags root
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api [get]
func getAPIInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "SmartLensOCR Backend API",
		"version":     Version,
		"description": "AI-powered OCR with region detection and a credit ledger",
		"endpoints": gin.H{
			"health":           "/health",
			"users":            "/api/users",
			"detect_regions":   "/api/detect-regions",
			"extract_text":     "/api/extract-text",
			"process_document": "/api/process-document",
			"docs":             "/swagger/index.html",
		},
	})
}
