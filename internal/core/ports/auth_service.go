package ports

import (
	"context"
	"time"

	"github.com/canteenx/canteen-system/internal/core/domain"
)

// TokenIssuer creates and verifies signed session tokens.
type TokenIssuer interface {
	Issue(subjectID string, role domain.Role, ttl time.Duration) (string, error)
	Verify(token string) (domain.Principal, error)
}

// RegisterInput carries the registration form. Role may be empty.
type RegisterInput struct {
	Name       string
	Email      string
	CollegeID  string
	Password   string
	Phone      string
	Department string
	Role       string
}

// AuthResult is returned by successful registration and login.
type AuthResult struct {
	Token string
	User  domain.UserView
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, identifier, password string) (*AuthResult, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}
