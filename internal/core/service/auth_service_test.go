package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/canteenx/canteen-system/internal/core/domain"
	"github.com/canteenx/canteen-system/internal/core/ports"
	"github.com/canteenx/canteen-system/internal/infrastructure/password"
)

type stubUserRepo struct {
	users     map[string]*domain.User
	nextID    int
	findErr   error
	createErr error
	lookups   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.users {
		if u.Email == user.Email || u.CollegeID == user.CollegeID {
			return nil, domain.ErrDuplicateUser
		}
	}
	r.nextID++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[copy.ID] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByEmailOrCollegeID(_ context.Context, email, collegeID string) (*domain.User, error) {
	r.lookups++
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if (email != "" && u.Email == email) || (collegeID != "" && u.CollegeID == collegeID) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// fixedClock is the shared issuance instant for auth tests.
var fixedClock = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestAuthService(repo *stubUserRepo) (*AuthService, *TokenIssuer) {
	issuer := NewTokenIssuer(TokenConfig{
		Secret: "test-secret-test-secret-test-secret",
		Issuer: "canteenx-test",
		TTL:    time.Hour,
		Now:    func() time.Time { return fixedClock },
	})
	svc := NewAuthService(repo, password.NewBcryptHasher(bcrypt.MinCost), issuer, time.Hour, zerolog.Nop())
	return svc, issuer
}

func validRegistration() ports.RegisterInput {
	return ports.RegisterInput{
		Name: "A", Email: "a@x.com", CollegeID: "C1", Password: "pw", Phone: "111", Department: "CS",
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, issuer := newTestAuthService(repo)

	res, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token")
	}
	if res.User.Role != domain.RoleStudent {
		t.Fatalf("expected default role student, got %s", res.User.Role)
	}

	stored := repo.users[res.User.ID]
	if stored.PasswordHash == "pw" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	p, err := issuer.Verify(res.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if p.UserID != res.User.ID || p.Role != domain.RoleStudent {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestAuthService_Register_NormalizesEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)

	in := validRegistration()
	in.Email = "  A@X.Com "
	res, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.User.Email != "a@x.com" {
		t.Fatalf("expected normalized email, got %q", res.User.Email)
	}
}

func TestAuthService_Register_ExplicitRole(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)

	in := validRegistration()
	in.Role = string(domain.RoleCanteenStaff)
	res, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.User.Role != domain.RoleCanteenStaff {
		t.Fatalf("unexpected role: %s", res.User.Role)
	}
}

func TestAuthService_Register_MissingFieldReportsFirst(t *testing.T) {
	svc, _ := newTestAuthService(newStubUserRepo())

	cases := []struct {
		mutate func(*ports.RegisterInput)
		field  string
	}{
		{func(f *ports.RegisterInput) { f.Name = "" }, "name"},
		{func(f *ports.RegisterInput) { f.Email = ""; f.Phone = "" }, "email"},
		{func(f *ports.RegisterInput) { f.CollegeID = "   " }, "collegeId"},
		{func(f *ports.RegisterInput) { f.Password = ""; f.Department = "" }, "password"},
		{func(f *ports.RegisterInput) { f.Phone = "" }, "phone"},
		{func(f *ports.RegisterInput) { f.Department = "" }, "department"},
	}
	for _, tc := range cases {
		in := validRegistration()
		tc.mutate(&in)

		_, err := svc.Register(context.Background(), in)
		if !errors.Is(err, domain.ErrMissingField) {
			t.Fatalf("expected ErrMissingField, got %v", err)
		}
		var de *domain.Error
		if !errors.As(err, &de) || de.Field != tc.field {
			t.Fatalf("expected field %q, got %+v", tc.field, de)
		}
	}
}

func TestAuthService_Register_InvalidRole(t *testing.T) {
	svc, _ := newTestAuthService(newStubUserRepo())

	in := validRegistration()
	in.Role = "superuser"
	if _, err := svc.Register(context.Background(), in); err != domain.ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestAuthService_Register_PasswordTooLong(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)

	in := validRegistration()
	in.Password = strings.Repeat("p", 80)
	_, err := svc.Register(context.Background(), in)
	if err != domain.ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if !errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if len(repo.users) != 0 {
		t.Fatalf("no user may be stored")
	}

	in.Password = strings.Repeat("p", domain.MaxPasswordBytes)
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("72-byte password rejected: %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)

	if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	sameEmail := validRegistration()
	sameEmail.CollegeID = "C2"
	if _, err := svc.Register(context.Background(), sameEmail); err != domain.ErrDuplicateUser {
		t.Fatalf("expected ErrDuplicateUser for same email, got %v", err)
	}

	sameCollege := validRegistration()
	sameCollege.Email = "b@x.com"
	if _, err := svc.Register(context.Background(), sameCollege); err != domain.ErrDuplicateUser {
		t.Fatalf("expected ErrDuplicateUser for same college id, got %v", err)
	}
	if !errors.Is(domain.ErrDuplicateUser, domain.ErrConflict) {
		t.Fatalf("duplicate user must be a conflict error")
	}
}

func TestAuthService_Register_RaceOnInsert(t *testing.T) {
	repo := newStubUserRepo()
	repo.createErr = domain.ErrDuplicateUser
	svc, _ := newTestAuthService(repo)

	if _, err := svc.Register(context.Background(), validRegistration()); err != domain.ErrDuplicateUser {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func TestAuthService_Register_StoreFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.createErr = errors.New("connection reset")
	svc, _ := newTestAuthService(repo)

	res, err := svc.Register(context.Background(), validRegistration())
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if res != nil {
		t.Fatalf("no token may be issued when the write fails")
	}
}

func TestAuthService_Login_ByCollegeID(t *testing.T) {
	repo := newStubUserRepo()
	svc, issuer := newTestAuthService(repo)

	reg, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := svc.Login(context.Background(), "C1", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	p, err := issuer.Verify(res.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if p.UserID != reg.User.ID || p.Role != domain.RoleStudent {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestAuthService_Login_ByEmailCaseInsensitive(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)
	_, _ = svc.Register(context.Background(), validRegistration())

	if _, err := svc.Login(context.Background(), "A@x.com", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
}

func TestAuthService_Login_MissingCredential(t *testing.T) {
	svc, _ := newTestAuthService(newStubUserRepo())

	if _, err := svc.Login(context.Background(), "", ""); err != domain.ErrMissingCredential {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "C1", ""); err != domain.ErrMissingCredential {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)
	_, _ = svc.Register(context.Background(), validRegistration())

	_, wrongPass := svc.Login(context.Background(), "a@x.com", "nope")
	_, unknown := svc.Login(context.Background(), "ghost@x.com", "pw")

	if wrongPass != domain.ErrInvalidCredentials || unknown != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials twice, got %v / %v", wrongPass, unknown)
	}
	if wrongPass.Error() != unknown.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPass.Error(), unknown.Error())
	}
}

func TestAuthService_Login_StoreFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("timeout")
	svc, _ := newTestAuthService(repo)

	if _, err := svc.Login(context.Background(), "a@x.com", "pw"); !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if repo.lookups != 1 {
		t.Fatalf("expected exactly one lookup, got %d", repo.lookups)
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	repo := newStubUserRepo()
	svc, issuer := newTestAuthService(repo)
	reg, _ := svc.Register(context.Background(), validRegistration())

	user, err := svc.Authenticate(context.Background(), reg.Token)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if user.ID != reg.User.ID {
		t.Fatalf("unexpected user %s", user.ID)
	}

	if _, err := svc.Authenticate(context.Background(), "garbage"); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	orphan, _ := issuer.Issue("user-404", domain.RoleStudent, time.Hour)
	if _, err := svc.Authenticate(context.Background(), orphan); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
