package ports

import (
	"context"

	"github.com/canteenx/canteen-system/internal/core/domain"
)

// UserRepository is the credential store.
type UserRepository interface {
	// FindByEmailOrCollegeID returns the first user whose email equals email OR whose
	// college id equals collegeID, in a single lookup. Empty arguments never match.
	FindByEmailOrCollegeID(ctx context.Context, email, collegeID string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Create inserts user and returns it with its assigned ID. A uniqueness violation
	// is reported as domain.ErrDuplicateUser.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

// PasswordHasher is a slow, salted one-way function for password secrets.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil only when password matches hash.
	Compare(hash, password string) error
}
