// Package lockout decides the outcome of login attempts against a user's
// security counters. It holds no state of its own; callers pass the record
// and the current time and persist the mutated counters.
package lockout

import (
	"time"

	"github.com/Stewz00/academic-auth/internal/model"
)

const (
	// DefaultMaxAttempts is the number of consecutive failures that blocks an account.
	DefaultMaxAttempts = 3

	// DefaultWindow is how long an account stays blocked.
	DefaultWindow = 5 * time.Minute
)

// Outcome is the signal produced by a single evaluated attempt.
type Outcome int

const (
	// Allowed means the credential matched and counters were reset.
	Allowed Outcome = iota
	// Invalid means the credential did not match and attempts remain.
	Invalid
	// Blocked means the account is, or has just become, locked.
	Blocked
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case Invalid:
		return "invalid"
	case Blocked:
		return "blocked"
	}
	return "unknown"
}

// Decision describes the result of an attempt.
type Decision struct {
	Outcome      Outcome
	AttemptsLeft int
	BlockedUntil *time.Time
}

// Policy is the lockout state machine.
type Policy struct {
	maxAttempts int
	window      time.Duration
}

// Option configures a Policy.
type Option func(*Policy)

// WithMaxAttempts sets the failure threshold. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithWindow sets the lockout window. Non-positive values are ignored.
func WithWindow(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.window = d
		}
	}
}

// New returns a Policy with a 3-attempt threshold and a 5-minute window
// unless overridden.
func New(opts ...Option) Policy {
	p := Policy{
		maxAttempts: DefaultMaxAttempts,
		window:      DefaultWindow,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func (p Policy) MaxAttempts() int { return p.maxAttempts }

func (p Policy) Window() time.Duration { return p.window }

// Refresh applies the lazy unblock to sec. It reports whether the account is
// still blocked at now and whether the counters were cleared.
//
// The boundary is inclusive: at now == BlockedUntil the account is unblocked.
func (p Policy) Refresh(sec *model.Security, now time.Time) (blocked, unblocked bool) {
	if !sec.IsBlocked {
		return false, false
	}
	if sec.BlockedUntil != nil && now.Before(*sec.BlockedUntil) {
		return true, false
	}
	p.Reset(sec)
	return false, true
}

// Check is the pre-credential gate. A blocked account yields a Blocked
// decision and the credential must not be evaluated.
func (p Policy) Check(sec *model.Security, now time.Time) (Decision, bool) {
	blocked, _ := p.Refresh(sec, now)
	if blocked {
		return Decision{Outcome: Blocked, BlockedUntil: copyTime(sec.BlockedUntil)}, false
	}
	return Decision{Outcome: Allowed, AttemptsLeft: p.AttemptsLeft(*sec)}, true
}

// RecordSuccess resets the counters after a matching credential.
func (p Policy) RecordSuccess(sec *model.Security) Decision {
	p.Reset(sec)
	return Decision{Outcome: Allowed, AttemptsLeft: p.maxAttempts}
}

// RecordFailure counts a non-matching credential. The failure that reaches
// the threshold blocks the account until now+window and yields Blocked.
func (p Policy) RecordFailure(sec *model.Security, now time.Time) Decision {
	sec.FailedAttempts++
	if sec.FailedAttempts >= p.maxAttempts {
		sec.FailedAttempts = p.maxAttempts
		until := now.Add(p.window)
		sec.IsBlocked = true
		sec.BlockedUntil = &until
		return Decision{Outcome: Blocked, BlockedUntil: copyTime(&until)}
	}
	return Decision{Outcome: Invalid, AttemptsLeft: p.maxAttempts - sec.FailedAttempts}
}

// Reset clears block state and zeroes the failure counter.
func (p Policy) Reset(sec *model.Security) {
	sec.FailedAttempts = 0
	sec.IsBlocked = false
	sec.BlockedUntil = nil
}

// AttemptsLeft is zero while blocked, otherwise max minus failures.
func (p Policy) AttemptsLeft(sec model.Security) int {
	if sec.IsBlocked {
		return 0
	}
	left := p.maxAttempts - sec.FailedAttempts
	if left < 0 {
		return 0
	}
	return left
}

// Status projects sec as seen at now without mutating it.
func (p Policy) Status(email string, sec model.Security, now time.Time) model.AccountStatus {
	p.Refresh(&sec, now)
	return model.AccountStatus{
		Email:          email,
		IsBlocked:      sec.IsBlocked,
		FailedAttempts: sec.FailedAttempts,
		BlockedUntil:   copyTime(sec.BlockedUntil),
		AttemptsLeft:   p.AttemptsLeft(sec),
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
