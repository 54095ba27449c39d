package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/genosentinel/auth-gateway/internal/api/handler"
	"github.com/genosentinel/auth-gateway/internal/api/middleware"
	"github.com/genosentinel/auth-gateway/internal/core/ports"
)

// forwardMethods are the methods the gateway relays. The route table is
// explicit: no reflection, no annotation scanning.
var forwardMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// Dependencies carries the collaborators the router wires into handlers.
// Everything is injected so tests can substitute doubles.
type Dependencies struct {
	AuthService ports.AuthService
	Forwarder   ports.Forwarder
	Mongo       *mongo.Database
	Backends    []string
	Log         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("gateway"))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/validate", authHandler.Validate)
	e.POST("/auth/register", authHandler.Register)

	// --- Forwarding routes ---
	gatewayHandler := handler.NewGatewayHandler(deps.Forwarder, deps.Log)
	bearerAuth := middleware.BearerAuth(deps.AuthService)
	e.Match(forwardMethods, "/gateway/:backend", gatewayHandler.Forward, bearerAuth)
	e.Match(forwardMethods, "/gateway/:backend/*", gatewayHandler.Forward, bearerAuth)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness)          // liveness  – is the process alive?
	e.GET("/health/status", healthHandler.Status)     // static service descriptor
	if deps.Mongo != nil {
		readiness := handler.NewReadinessHandler(deps.Mongo, deps.Forwarder, deps.Backends)
		e.GET("/health/ready", readiness.Readiness) // readiness – are dependencies up?
	}

	// --- Metrics ---
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
