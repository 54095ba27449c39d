package ports

import (
	"context"

	"github.com/genosentinel/auth-gateway/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *domain.Account, error)
	ValidateToken(ctx context.Context, token string) bool
	Provision(ctx context.Context, username, password, fullName, email string) (*domain.Account, error)
}
