package ports

import (
	"context"

	"github.com/genosentinel/auth-gateway/internal/core/domain"
)

// AccountRepository defines the interface for user directory persistence.
type AccountRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, account *domain.Account) (*domain.Account, error)
	Count(ctx context.Context) (int64, error)
}
