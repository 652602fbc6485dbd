package middleware

import (
	"net/http"
	"strings"

	"github.com/Maderside/PropertyManagementSystem/internal/model"
	"github.com/Maderside/PropertyManagementSystem/pkg/jwtutil"
	"github.com/Maderside/PropertyManagementSystem/pkg/logger"
	"github.com/Maderside/PropertyManagementSystem/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CurrentUserKey is the context key the auth middleware stores the loaded
// user row under
const CurrentUserKey = "current_user"

// Auth validates the JWT token from the Authorization header and loads the
// user row it names. Role checks downstream always read the row, never the
// token claims, so a stale or tampered role claim has no effect.
func Auth(db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			// Get the Authorization header
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Error("Missing Authorization header")
				prometheus.RecordError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			// Check if it's a Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Error("Invalid Authorization header format")
				prometheus.RecordError("invalid_auth_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			// Validate the token
			claims, err := jwtutil.ValidateToken(parts[1])
			if err != nil {
				log.Error("Invalid JWT token", zap.Error(err))
				prometheus.RecordError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			// Re-load the user row; the token only identifies the subject
			var user model.User
			if err := db.Where("email = ?", claims.Email).First(&user).Error; err != nil {
				log.Error("Token subject not found", zap.String("email", claims.Email))
				prometheus.RecordError("user_not_found")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
			}

			// Store user info in context for later use
			c.Set(CurrentUserKey, user)
			c.Set("user_id", user.ID)
			c.Set("email", user.Email)
			c.Set("user_role", string(user.Role))

			return next(c)
		}
	}
}
