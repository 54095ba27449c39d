package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/genosentinel/auth-gateway/internal/core/domain"
	"github.com/genosentinel/auth-gateway/internal/core/ports"
)

// GatewayHandler relays authenticated requests to a named backend. The
// BearerAuth middleware has already run by the time Forward executes, so the
// handler only routes, copies and relays.
type GatewayHandler struct {
	forwarder ports.Forwarder
	log       zerolog.Logger
}

func NewGatewayHandler(forwarder ports.Forwarder, log zerolog.Logger) *GatewayHandler {
	return &GatewayHandler{forwarder: forwarder, log: log}
}

// Forward handles /gateway/:backend/* for all supported methods.
//
// The inbound path suffix and query are forwarded verbatim; the full inbound
// header multiset is copied, Authorization included; the downstream status,
// headers and body are relayed unchanged.
func (h *GatewayHandler) Forward(c echo.Context) error {
	if _, err := ctxToken(c); err != nil {
		return err
	}

	backend := c.Param("backend")
	path := "/" + c.Param("*")
	if q := c.Request().URL.RawQuery; q != "" {
		path += "?" + q
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable request body")
	}

	req := domain.ForwardRequest{
		Backend: backend,
		Path:    path,
		Method:  c.Request().Method,
		Headers: c.Request().Header.Clone(),
	}
	if len(body) > 0 {
		req.Body = body
	}

	resp, err := h.forwarder.Forward(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownBackend) {
			return echo.NewHTTPError(http.StatusNotFound, "unknown backend: "+backend)
		}
		h.log.Error().Err(err).
			Str("backend", backend).
			Str("method", req.Method).
			Str("path", path).
			Msg("forwarding failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Error forwarding request: "+err.Error())
	}

	return relay(c, resp)
}

// relay writes the downstream exchange back to the caller byte-for-byte.
// Content-Length is recomputed by the response writer; everything else is
// copied with multi-value semantics preserved.
func relay(c echo.Context, resp *domain.ForwardResponse) error {
	out := c.Response()
	for key, values := range resp.Headers {
		if strings.EqualFold(key, "Content-Length") {
			continue
		}
		for _, v := range values {
			out.Header().Add(key, v)
		}
	}
	out.WriteHeader(resp.Status)
	_, err := out.Write(resp.Body)
	return err
}
