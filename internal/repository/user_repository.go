package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Stewz00/academic-auth/internal/interfaces"
	"github.com/Stewz00/academic-auth/internal/model"
)

// Common errors that can be returned by the repository
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// entry guards one user record.
type entry struct {
	mu   sync.Mutex
	user *model.User
}

// UserRepositoryImpl is an in-memory credential store. The set of records is
// fixed at construction, so the index is read without locking and each record
// has its own mutex.
type UserRepositoryImpl struct {
	byEmail map[string]*entry
	order   []*entry
}

// Verify that UserRepositoryImpl implements UserRepository interface
var _ interfaces.UserRepository = (*UserRepositoryImpl)(nil)

// NewUserRepository creates a store holding copies of users. Emails are
// matched case-sensitively.
func NewUserRepository(users []*model.User) (*UserRepositoryImpl, error) {
	r := &UserRepositoryImpl{
		byEmail: make(map[string]*entry, len(users)),
		order:   make([]*entry, 0, len(users)),
	}
	ids := make(map[int64]struct{}, len(users))
	for _, u := range users {
		if _, ok := r.byEmail[u.Email]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, u.Email)
		}
		if _, ok := ids[u.ID]; ok {
			return nil, fmt.Errorf("duplicate user id %d", u.ID)
		}
		ids[u.ID] = struct{}{}
		e := &entry{user: u.Clone()}
		r.byEmail[u.Email] = e
		r.order = append(r.order, e)
	}
	sort.Slice(r.order, func(i, j int) bool {
		return r.order[i].user.ID < r.order[j].user.ID
	})
	return r, nil
}

// GetUserByEmail retrieves a copy of the user with the given email
func (r *UserRepositoryImpl) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.user.Clone(), nil
}

// UpdateUser applies fn to the stored record under its lock. Changes made by
// fn are kept even when fn returns an error.
func (r *UserRepositoryImpl) UpdateUser(ctx context.Context, email string, fn func(u *model.User) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e, ok := r.byEmail[email]
	if !ok {
		return ErrUserNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.user)
}

// ListUsers returns copies of every record ordered by id
func (r *UserRepositoryImpl) ListUsers(ctx context.Context) ([]*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	users := make([]*model.User, 0, len(r.order))
	for _, e := range r.order {
		e.mu.Lock()
		users = append(users, e.user.Clone())
		e.mu.Unlock()
	}
	return users, nil
}
