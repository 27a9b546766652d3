package middleware

import (
	"errors"
	"net/http"
	"strings"

	"rentadvance-backend/pkg/jwt"

	"github.com/labstack/echo/v4"
)

// ClaimsKey holds the verified *jwt.Claims in the echo context.
const ClaimsKey = "auth.claims"

// RequireRole verifies the bearer token and admits only the listed roles.
func RequireRole(secret string, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid authorization header format"})
			}

			claims, err := jwt.ValidateAccessToken(strings.TrimSpace(parts[1]), secret)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "token has expired"
				}
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": msg})
			}
			if !allowed[claims.Role] {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient role"})
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom returns the claims set by RequireRole.
func ClaimsFrom(c echo.Context) (*jwt.Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(*jwt.Claims)
	return claims, ok && claims != nil
}
