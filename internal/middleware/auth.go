package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/SscSPs/smartlens_backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware creates a Gin middleware handler that validates JWT tokens.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Retrieve logger from the standard context
		logger := GetLoggerFromCtx(c.Request.Context())
		// if auth is already done, skip this middleware
		if authMethod, exists := c.Get(string(authMethodKey)); exists {
			logger.Debug("Auth already done", "authMethod", authMethod)
			c.Next()
			return
		}

		tokenString, ok := bearerToken(c)
		if !ok {
			logger.Warn("Authorization header missing or malformed")
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}", apperrors.ErrUnauthorized)
			return
		}

		// Parse and validate the token
		claims, err := utils.ParseAccessToken(tokenString, jwtSecret)
		if err != nil {
			logger.Warn("Invalid token", slog.String("error", err.Error()))
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token has expired"
			} else if errors.Is(err, jwt.ErrTokenNotValidYet) {
				msg = "Token not valid yet"
			}
			abortWithError(c, http.StatusUnauthorized, msg, apperrors.ErrUnauthorized)
			return
		}

		userID := claims.Subject

		// Store the user ID in the context (using standard context)
		ctxWithUser := context.WithValue(c.Request.Context(), userIDKey, userID)

		// Add user ID to the logger
		enrichedLogger := logger.With(slog.String("user_id", userID))

		// Store the *enriched* logger back into the standard context
		ctxWithLoggerAndUser := context.WithValue(ctxWithUser, loggerCtxKey, enrichedLogger)

		// Update the request context
		c.Request = c.Request.WithContext(ctxWithLoggerAndUser)
		c.Set(string(userIDKey), userID)
		c.Set(string(authMethodKey), AuthMethodBearer)

		c.Next() // Proceed to the next handler
	}
}

// RequireSelf rejects requests whose bearer subject differs from the :param path segment.
// It must run after AuthMiddleware.
func RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserIDFromContext(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "Authentication required", apperrors.ErrUnauthorized)
			return
		}
		if c.Param(param) != userID {
			GetLoggerFromCtx(c.Request.Context()).Warn("Access to another account denied",
				slog.String("requested_id", c.Param(param)))
			abortWithError(c, http.StatusForbidden, "You may only access your own account", apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// abortWithError writes the API error body {"error", "code"} and stops the chain.
func abortWithError(c *gin.Context, status int, msg string, kind error) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": apperrors.Kind(kind)})
}
