package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/genosentinel/auth-gateway/internal/api/middleware"
)

// ctxToken returns the raw bearer token injected by the BearerAuth
// middleware. Its presence proves the middleware ran; a protected handler
// reached without it fails closed.
func ctxToken(c echo.Context) (string, error) {
	token, _ := c.Get(middleware.TokenContextKey).(string)
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid or missing token")
	}
	return token, nil
}
