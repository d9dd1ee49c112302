package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Stewz00/academic-auth/internal/token"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountBlocked     = errors.New("account is blocked after too many failed login attempts")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailNotFound      = fmt.Errorf("email not found: %w", ErrUserNotFound)
	ErrInvalidToken       = token.ErrInvalidToken
	ErrTokenExpired       = token.ErrTokenExpired
	ErrInternal           = errors.New("internal server error")
)

// Wire codes for the failure kinds.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountBlocked     = "ACCOUNT_BLOCKED"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeEmailNotFound      = "EMAIL_NOT_FOUND"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInternal           = "INTERNAL_ERROR"
)

// LoginError is a failed login. AttemptsLeft is set only for a wrong password
// on a known account; BlockedUntil only when the account is blocked.
type LoginError struct {
	Err          error
	AttemptsLeft *int
	BlockedUntil *time.Time
}

func (e *LoginError) Error() string {
	switch {
	case e.BlockedUntil != nil:
		return fmt.Sprintf("%v until %s", e.Err, e.BlockedUntil.Format(time.RFC3339))
	case e.AttemptsLeft != nil:
		return fmt.Sprintf("%v, attempts left: %d", e.Err, *e.AttemptsLeft)
	}
	return e.Err.Error()
}

func (e *LoginError) Unwrap() error { return e.Err }

// Code returns the wire code for err, or CodeInternal for anything unknown.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrAccountBlocked):
		return CodeAccountBlocked
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, ErrEmailNotFound):
		return CodeEmailNotFound
	case errors.Is(err, ErrUserNotFound):
		return CodeUserNotFound
	case errors.Is(err, ErrInvalidToken):
		return CodeInvalidToken
	}
	return CodeInternal
}
