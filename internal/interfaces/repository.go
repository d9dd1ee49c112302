package interfaces

import (
	"context"

	"github.com/Stewz00/academic-auth/internal/model"
	"github.com/Stewz00/academic-auth/internal/token"
)

// UserRepository defines the credential store operations.
type UserRepository interface {
	// GetUserByEmail returns a copy of the record.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateUser runs fn on the live record while holding that record's lock.
	// Attempts against other emails are not blocked.
	UpdateUser(ctx context.Context, email string, fn func(u *model.User) error) error
	// ListUsers returns copies of all records ordered by id.
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// TokenRegistry issues session tokens and owns the active-token set.
type TokenRegistry interface {
	Issue(ctx context.Context, id token.Identity) (string, error)
	Verify(ctx context.Context, tokenString string) (*token.Claims, error)
	Revoke(ctx context.Context, tokenString string) error
}
