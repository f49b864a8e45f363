package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkpad-app/inkpad/internal/shared"
)

// bcryptCost is fixed; changing it only affects newly stored hashes.
const bcryptCost = 10

// Service wraps credential business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register hashes the password and stores a new account. Plaintext never
// reaches the repository or the logs.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.CreateUser(ctx, email, string(hash))
}

// VerifyLogin validates email/password credentials. Unknown email and wrong
// password both yield shared.ErrInvalidCredentials so callers cannot tell
// which half of the pair failed.
func (s *Service) VerifyLogin(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// GetByID fetches a user account.
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// GetByEmail fetches a user account by email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, email)
}

// DeleteByEmail removes an account.
func (s *Service) DeleteByEmail(ctx context.Context, email string) error {
	return s.repo.DeleteByEmail(ctx, email)
}
