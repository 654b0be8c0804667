package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/canteenx/canteen-system/internal/core/domain"
	"github.com/canteenx/canteen-system/internal/core/ports"
)

// AuthService implements registration, login and token authentication.
type AuthService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	ttl    time.Duration
	log    zerolog.Logger

	// dummyHash is compared against when the user does not exist so both login
	// failure paths cost one hash comparison.
	dummyHash string
}

func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	dummy, _ := hasher.Hash("canteenx-dummy-password")
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		ttl:       tokenTTL,
		log:       log,
		dummyHash: dummy,
	}
}

// Register validates the form, rejects duplicates, stores the user with a hashed
// password and returns a fresh session token.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.CollegeID = strings.TrimSpace(in.CollegeID)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Department = strings.TrimSpace(in.Department)

	if err := requireFields(in); err != nil {
		return nil, err
	}
	if len(in.Password) > domain.MaxPasswordBytes {
		return nil, domain.ErrPasswordTooLong
	}

	role := domain.RoleStudent
	if in.Role != "" {
		role = domain.Role(in.Role)
		if !role.Valid() {
			return nil, domain.ErrInvalidRole
		}
	}

	existing, err := s.repo.FindByEmailOrCollegeID(ctx, in.Email, in.CollegeID)
	switch {
	case err == nil && existing != nil:
		return nil, domain.ErrDuplicateUser
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: lookup: %w: %w", domain.ErrInternal, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w: %w", domain.ErrInternal, err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		CollegeID:    in.CollegeID,
		Phone:        in.Phone,
		Department:   in.Department,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUser) {
			return nil, domain.ErrDuplicateUser
		}
		return nil, fmt.Errorf("register: insert: %w: %w", domain.ErrInternal, err)
	}

	res, err := s.issue(created)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	return res, nil
}

// Login authenticates by email or college id. Unknown users and wrong passwords
// produce the same error.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*ports.AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, domain.ErrMissingCredential
	}

	user, err := s.repo.FindByEmailOrCollegeID(ctx, normalizeEmail(identifier), identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = s.hasher.Compare(s.dummyHash, password)
			s.log.Debug().Msg("login rejected: unknown identifier")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: lookup: %w: %w", domain.ErrInternal, err)
	}

	if s.hasher.Compare(user.PasswordHash, password) != nil {
		s.log.Debug().Str("user_id", user.ID).Msg("login rejected: password mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(user)
}

// Authenticate verifies token and loads the user it names.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	principal, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("authenticate: %w: %w", domain.ErrInternal, err)
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*ports.AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Role, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w: %w", domain.ErrInternal, err)
	}
	return &ports.AuthResult{Token: token, User: user.View()}, nil
}

// requireFields reports the first missing registration field.
func requireFields(in ports.RegisterInput) error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", in.Name},
		{"email", in.Email},
		{"collegeId", in.CollegeID},
		{"password", in.Password},
		{"phone", in.Phone},
		{"department", in.Department},
	}
	for _, f := range fields {
		if f.value == "" {
			return domain.MissingField(f.name)
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
