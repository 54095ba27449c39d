package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/genosentinel/auth-gateway/internal/core/domain"
	"github.com/genosentinel/auth-gateway/internal/core/ports"
)

const serviceVersion = "1.0.0"

// HealthHandler serves the unauthenticated liveness and status probes.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Liveness handles GET /health — returns immediately; confirms the process
// is alive.
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "UP",
		"service":   "auth-gateway",
		"timestamp": time.Now().UTC(),
	})
}

// Status handles GET /health/status — a static service descriptor.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service":   "GenoSentinel Auth Gateway",
		"version":   serviceVersion,
		"status":    "running",
		"timestamp": time.Now().UTC(),
	})
}

// ReadinessHandler handles GET /health/ready — checks the user directory and
// each configured backend before declaring the gateway ready.
type ReadinessHandler struct {
	mongo     *mongo.Database
	forwarder ports.Forwarder
	backends  []string
}

func NewReadinessHandler(db *mongo.Database, forwarder ports.Forwarder, backends []string) *ReadinessHandler {
	return &ReadinessHandler{mongo: db, forwarder: forwarder, backends: backends}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true

	if err := h.mongo.Client().Ping(ctx, nil); err != nil {
		deps["mongodb"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		healthy = false
	} else {
		deps["mongodb"] = dependencyStatus{Status: "ok"}
	}

	for _, name := range h.backends {
		resp, err := h.forwarder.Forward(ctx, domain.ForwardRequest{
			Backend: name,
			Path:    "/health",
			Method:  http.MethodGet,
			Headers: http.Header{},
		})
		switch {
		case err != nil:
			deps[name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
		case resp.Status != http.StatusOK:
			deps[name] = dependencyStatus{Status: "unhealthy", Error: http.StatusText(resp.Status)}
			healthy = false
		default:
			deps[name] = dependencyStatus{Status: "ok"}
		}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{Status: status, Dependencies: deps})
}
