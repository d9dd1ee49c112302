package model

import "time"

// Role is the account type of a user.
type Role string

const (
	RoleStudent   Role = "aluno"
	RoleProfessor Role = "professor"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known account types.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleProfessor, RoleAdmin:
		return true
	}
	return false
}

// Profile holds the descriptive part of a user record. The optional
// academic attributes are nil when the user has none.
type Profile struct {
	Name         string  `json:"name"`
	Role         Role    `json:"type"`
	Department   *string `json:"department,omitempty"`
	Course       *string `json:"course,omitempty"`
	Registration *string `json:"registration,omitempty"`
}

// Security holds the lockout counters of a user record.
type Security struct {
	FailedAttempts int        `json:"failedAttempts"`
	IsBlocked      bool       `json:"isBlocked"`
	BlockedUntil   *time.Time `json:"blockedUntil"`
}

type User struct {
	ID       int64
	Email    string
	Password string // hashed
	Profile  Profile
	Security Security
}

// Clone returns a deep copy of u so callers can read it outside the store lock.
func (u *User) Clone() *User {
	c := *u
	c.Profile.Department = cloneString(u.Profile.Department)
	c.Profile.Course = cloneString(u.Profile.Course)
	c.Profile.Registration = cloneString(u.Profile.Registration)
	if u.Security.BlockedUntil != nil {
		t := *u.Security.BlockedUntil
		c.Security.BlockedUntil = &t
	}
	return &c
}

// Public returns the sanitized profile sent to clients after login.
func (u *User) Public() PublicUser {
	c := u.Clone()
	return PublicUser{
		ID:      c.ID,
		Email:   c.Email,
		Profile: c.Profile,
	}
}

// Summary returns the redacted administrative view of u.
func (u *User) Summary() UserSummary {
	c := u.Clone()
	return UserSummary{
		PublicUser: PublicUser{ID: c.ID, Email: c.Email, Profile: c.Profile},
		Security:   c.Security,
	}
}

// PublicUser is a user record without its verifier or counters.
type PublicUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Profile
}

// UserSummary is a user record without its verifier.
type UserSummary struct {
	PublicUser
	Security
}

// AccountStatus is the read-only projection returned by a status query.
type AccountStatus struct {
	Email          string     `json:"email"`
	IsBlocked      bool       `json:"isBlocked"`
	FailedAttempts int        `json:"failedAttempts"`
	BlockedUntil   *time.Time `json:"blockedUntil"`
	AttemptsLeft   int        `json:"attemptsLeft"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
