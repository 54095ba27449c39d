package ports

import (
	"context"

	"github.com/genosentinel/auth-gateway/internal/core/domain"
)

// Forwarder executes one outbound HTTP exchange against a configured
// backend. At most one attempt per call; no retries.
type Forwarder interface {
	Forward(ctx context.Context, req domain.ForwardRequest) (*domain.ForwardResponse, error)
}
