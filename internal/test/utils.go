package test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Stewz00/academic-auth/internal/interfaces"
	"github.com/Stewz00/academic-auth/internal/model"
	"github.com/Stewz00/academic-auth/internal/repository"
	"github.com/Stewz00/academic-auth/internal/token"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
)

const (
	JwtSecret = "test-secret"

	StudentEmail    = "aluno1@universidade.edu.br"
	StudentPassword = "123456"
	AdminEmail      = "admin@universidade.edu.br"
	AdminPassword   = "admin123"
)

// Epoch is the start time of every fake clock handed out here.
var Epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// NewClock returns a fake clock set to Epoch.
func NewClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(Epoch)
}

// NewUserRepository returns a store holding the default seed hashed at the
// minimum bcrypt cost.
func NewUserRepository(t testing.TB) *repository.UserRepositoryImpl {
	t.Helper()
	repo, err := repository.NewSeededUserRepository(repository.DefaultSeed(), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to seed repository: %v", err)
	}
	return repo
}

// NewTokenRegistry returns a registry signing with JwtSecret on clock.
func NewTokenRegistry(clock clockwork.Clock) *token.Registry {
	return token.NewRegistry(JwtSecret, token.WithClock(clock))
}

// ErrStoreDown is returned by FailingUserRepository.
var ErrStoreDown = errors.New("store unavailable")

// FailingUserRepository fails every call with ErrStoreDown.
type FailingUserRepository struct{}

var _ interfaces.UserRepository = FailingUserRepository{}

func (FailingUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, ErrStoreDown
}

func (FailingUserRepository) UpdateUser(ctx context.Context, email string, fn func(u *model.User) error) error {
	return ErrStoreDown
}

func (FailingUserRepository) ListUsers(ctx context.Context) ([]*model.User, error) {
	return nil, ErrStoreDown
}

// ErrSigning is returned by FailingTokenRegistry.
var ErrSigning = errors.New("signing key unavailable")

// FailingTokenRegistry fails every call with ErrSigning.
type FailingTokenRegistry struct{}

var _ interfaces.TokenRegistry = FailingTokenRegistry{}

func (FailingTokenRegistry) Issue(ctx context.Context, id token.Identity) (string, error) {
	return "", ErrSigning
}

func (FailingTokenRegistry) Verify(ctx context.Context, tokenString string) (*token.Claims, error) {
	return nil, ErrSigning
}

func (FailingTokenRegistry) Revoke(ctx context.Context, tokenString string) error {
	return ErrSigning
}
