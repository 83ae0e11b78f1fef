package middleware

import (
	"net/http"
	"strings"

	"github.com/jordanlanch/salescrm/pkg/auth"
	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo context key holding the authenticated owner id.
const UserIDKey = "user_id"

// JWTMiddleware creates a JWT authentication middleware
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "missing_token",
					Message: "Authorization header is required",
				})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token_format",
					Message: "Authorization header must be 'Bearer {token}'",
				})
			}

			claims, err := auth.ValidateJWT(parts[1], secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token",
					Message: err.Error(),
				})
			}

			c.Set(UserIDKey, claims.UserID)
			c.Set("user_email", claims.Email)

			return next(c)
		}
	}
}

// UserID returns the authenticated owner id, or "" when the request was not
// authenticated.
func UserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}
