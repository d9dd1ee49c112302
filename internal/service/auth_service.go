package service

import (
	"context"
	"errors"

	"github.com/Stewz00/academic-auth/internal/interfaces"
	"github.com/Stewz00/academic-auth/internal/lockout"
	"github.com/Stewz00/academic-auth/internal/model"
	"github.com/Stewz00/academic-auth/internal/repository"
	"github.com/Stewz00/academic-auth/internal/token"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo interfaces.UserRepository
	tokens   interfaces.TokenRegistry
	policy   lockout.Policy
	clock    clockwork.Clock
	logger   *zap.Logger
}

// Option configures an AuthService.
type Option func(*AuthService)

func WithPolicy(p lockout.Policy) Option {
	return func(s *AuthService) { s.policy = p }
}

func WithClock(c clockwork.Clock) Option {
	return func(s *AuthService) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *AuthService) {
		if l != nil {
			s.logger = l
		}
	}
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string
	User  model.PublicUser
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo interfaces.UserRepository, tokens interfaces.TokenRegistry, opts ...Option) *AuthService {
	s := &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		policy:   lockout.New(),
		clock:    clockwork.NewRealClock(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login checks the credentials against the lockout policy and issues a
// session token on success. Expected failures are returned as *LoginError.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var (
		decision    lockout.Decision
		user        *model.User
		tokenString string
	)

	err := s.userRepo.UpdateUser(ctx, email, func(u *model.User) error {
		now := s.clock.Now()
		wasBlocked := u.Security.IsBlocked

		d, ok := s.policy.Check(&u.Security, now)
		if !ok {
			decision = d
			return nil
		}
		if wasBlocked {
			s.logger.Info("lockout window elapsed, account unblocked", zap.String("email", u.Email))
		}

		match, err := verifyPassword(ctx, u.Password, password)
		if err != nil {
			return err
		}

		if match {
			// Issue before resetting so a signing failure leaves the counters as they were.
			tokenString, err = s.tokens.Issue(ctx, token.Identity{
				UserID: u.ID,
				Email:  u.Email,
				Role:   u.Profile.Role,
			})
			if err != nil {
				return err
			}
			decision = s.policy.RecordSuccess(&u.Security)
			user = u.Clone()
			return nil
		}

		decision = s.policy.RecordFailure(&u.Security, now)
		if decision.Outcome == lockout.Blocked {
			s.logger.Warn("account blocked after failed login attempts",
				zap.String("email", u.Email),
				zap.Int("failedAttempts", u.Security.FailedAttempts),
				zap.Timep("blockedUntil", decision.BlockedUntil),
			)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, &LoginError{Err: ErrInvalidCredentials}
		}
		return nil, s.internal("login", err)
	}

	switch decision.Outcome {
	case lockout.Blocked:
		return nil, &LoginError{Err: ErrAccountBlocked, BlockedUntil: decision.BlockedUntil}
	case lockout.Invalid:
		left := decision.AttemptsLeft
		return nil, &LoginError{Err: ErrInvalidCredentials, AttemptsLeft: &left}
	}

	s.logger.Info("login succeeded", zap.Int64("userId", user.ID), zap.String("email", user.Email))
	return &LoginResult{Token: tokenString, User: user.Public()}, nil
}

// Logout removes the token from the active set.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	if err := s.tokens.Revoke(ctx, tokenString); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return err
		}
		return s.internal("logout", err)
	}
	s.logger.Info("logout succeeded")
	return nil
}

// VerifyToken returns the claims of an active, unexpired token.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (*token.Claims, error) {
	claims, err := s.tokens.Verify(ctx, tokenString)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil, err
		}
		return nil, s.internal("verify token", err)
	}
	return claims, nil
}

// RememberPassword acknowledges a password reminder for a known email. No
// message is actually sent.
func (s *AuthService) RememberPassword(ctx context.Context, email string) error {
	if _, err := s.userRepo.GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrEmailNotFound
		}
		return s.internal("remember password", err)
	}
	s.logger.Info("password reminder requested", zap.String("email", email))
	return nil
}

// GetAccountStatus reports the security state of an account as of now,
// treating an elapsed lockout window as unblocked.
func (s *AuthService) GetAccountStatus(ctx context.Context, email string) (*model.AccountStatus, error) {
	u, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.internal("account status", err)
	}
	status := s.policy.Status(u.Email, u.Security, s.clock.Now())
	return &status, nil
}

// GetAllUsers lists every account without its verifier.
func (s *AuthService) GetAllUsers(ctx context.Context) ([]model.UserSummary, error) {
	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, s.internal("list users", err)
	}
	now := s.clock.Now()
	out := make([]model.UserSummary, 0, len(users))
	for _, u := range users {
		s.policy.Refresh(&u.Security, now)
		out = append(out, u.Summary())
	}
	return out, nil
}

// internal logs err in full and hides it behind ErrInternal.
func (s *AuthService) internal(op string, err error) error {
	s.logger.Error("internal failure", zap.String("op", op), zap.Error(err))
	return ErrInternal
}

// verifyPassword runs the bcrypt comparison off the caller's goroutine so a
// cancelled context stops the wait.
func verifyPassword(ctx context.Context, hash, password string) (bool, error) {
	done := make(chan error, 1)
	go func() {
		done <- bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-done:
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}
}
