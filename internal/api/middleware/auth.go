package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/genosentinel/auth-gateway/internal/api/metrics"
	"github.com/genosentinel/auth-gateway/internal/core/ports"
)

// TokenContextKey is where BearerAuth stores the raw validated token.
const TokenContextKey = "bearer_token"

const bearerPrefix = "Bearer "

// BearerAuth extracts the bearer token and validates it against live account
// state on every request. The prefix check runs before any signature work,
// and validation failures never reach the forwarding path.
func BearerAuth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				metrics.AuthRejectionsTotal.WithLabelValues("missing_header").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or missing token")
			}

			if !strings.HasPrefix(authHeader, bearerPrefix) {
				metrics.AuthRejectionsTotal.WithLabelValues("bad_scheme").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or missing token")
			}

			token := authHeader[len(bearerPrefix):]
			if !auth.ValidateToken(c.Request().Context(), token) {
				metrics.AuthRejectionsTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or missing token")
			}

			c.Set(TokenContextKey, token)
			return next(c)
		}
	}
}
