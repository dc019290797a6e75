package middleware

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/SscSPs/smartlens_backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// AdminTokenHeader carries the operator token for admin routes.
const AdminTokenHeader = "X-Admin-Token"

// AdminAuthMiddleware admits requests whose admin token matches the bcrypt hash.
// With an empty hash every admin request is refused.
func AdminAuthMiddleware(tokenHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())
		if tokenHash == "" {
			logger.Warn("Admin route called but no admin token is configured")
			abortWithError(c, http.StatusForbidden, "Admin access is disabled", apperrors.ErrForbidden)
			return
		}

		token := c.GetHeader(AdminTokenHeader)
		if token == "" {
			if bearer, ok := bearerToken(c); ok {
				token = bearer
			}
		}
		if !utils.CheckSecretHash(token, tokenHash) {
			logger.Warn("Invalid admin token", slog.String("ip", c.ClientIP()))
			abortWithError(c, http.StatusUnauthorized, "Invalid admin token", apperrors.ErrUnauthorized)
			return
		}

		c.Set(string(authMethodKey), AuthMethodAdmin)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), logger.With(slog.Bool("admin", true))))
		c.Next()
	}
}
