package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/genosentinel/auth-gateway/internal/core/domain"
	"github.com/genosentinel/auth-gateway/internal/core/ports"
)

// AuthService orchestrates login, token validation and account provisioning
// against the user directory.
type AuthService struct {
	repo   ports.AccountRepository
	tokens ports.TokenEngine
	log    zerolog.Logger
}

func NewAuthService(repo ports.AccountRepository, tokens ports.TokenEngine, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, log: log}
}

// Login checks credentials and mints a token for the account. Unknown user,
// inactive account and wrong password all collapse to ErrInvalidCredentials:
// an unauthenticated caller must not learn which condition failed.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.Account, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			s.log.Error().Err(err).Str("username", username).Msg("account lookup failed")
		}
		return "", nil, domain.ErrInvalidCredentials
	}

	if !account.Active {
		return "", nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(account.Username, account.Role)
	if err != nil {
		return "", nil, err
	}

	return token, account, nil
}

// ValidateToken reports whether the token is currently acceptable. Token
// validity alone is insufficient: the subject's account must still exist and
// be active, re-checked on every call so that deactivation takes effect
// without a restart. Any unexpected failure fails closed.
func (s *AuthService) ValidateToken(ctx context.Context, token string) bool {
	subject, err := s.tokens.ExtractSubject(token)
	if err != nil {
		return false
	}

	account, err := s.repo.FindByUsername(ctx, subject)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			s.log.Error().Err(err).Str("subject", subject).Msg("account re-check failed")
		}
		return false
	}
	if !account.Active {
		return false
	}

	return s.tokens.Verify(token, subject)
}

// Provision creates a new active account with the default role, hashing the
// password before persistence.
func (s *AuthService) Provision(ctx context.Context, username, password, fullName, email string) (*domain.Account, error) {
	if taken, err := s.repo.ExistsByUsername(ctx, username); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrUsernameTaken
	}

	if taken, err := s.repo.ExistsByEmail(ctx, email); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     fullName,
		Email:        email,
		Role:         domain.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return s.repo.Save(ctx, account)
}

// Seed provisions the default administrator account when the directory is
// empty, so a fresh deployment is immediately usable.
func (s *AuthService) Seed(ctx context.Context) error {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	if _, err := s.Provision(ctx, "admin", "admin123", "Administrator", "admin@genosentinel.com"); err != nil {
		return err
	}

	s.log.Warn().
		Str("username", "admin").
		Msg("default account created; change its password before exposing the gateway")
	return nil
}
