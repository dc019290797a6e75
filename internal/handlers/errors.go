package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/SscSPs/smartlens_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError maps err to its status and writes an ErrorResponse. Internal
// failures are logged with the cause and answered with a generic message.
func respondError(c *gin.Context, err error, msg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	status := apperrors.HTTPStatus(err)

	switch {
	case status == http.StatusInternalServerError:
		logger.Error(msg, slog.String("error", err.Error()))
		c.JSON(status, ErrorResponse{Error: msg, Code: apperrors.Kind(err)})
		return
	case status >= 500:
		logger.Error(msg, slog.String("error", err.Error()))
	default:
		logger.Warn(msg, slog.String("error", err.Error()))
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: apperrors.Kind(err)})
}

// respondBindError answers a request that failed binding or validation.
func respondBindError(c *gin.Context, err error) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Invalid request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: "Invalid request format: " + err.Error(),
		Code:  apperrors.Kind(apperrors.ErrValidation),
	})
}
