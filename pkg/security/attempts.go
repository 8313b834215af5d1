package security

import (
	"sync"
	"time"
)

// Default lockout policy, matching the account security rules of the
// production backend this client simulates.
const (
	DefaultMaxAttempts     = 5
	DefaultLockoutDuration = 15 * time.Minute
)

// ReasonAccountLocked is reported on a Decision while a lockout is active.
const ReasonAccountLocked = "account_locked"

// Decision is the outcome of a pre-authentication rate-limit check.
type Decision struct {
	Allowed           bool
	Reason            string
	AttemptsRemaining int
	RetryAfter        time.Duration
}

type attemptRecord struct {
	count       int
	lastAttempt time.Time
	lockedUntil time.Time
}

// LoginLimiter counts failed authentication attempts per identifier and
// enforces a time-boxed lockout once the limit is reached. State is in-memory
// and scoped to the running service instance.
type LoginLimiter struct {
	maxAttempts     int
	lockoutDuration time.Duration

	mu       sync.Mutex
	attempts map[string]*attemptRecord
	now      func() time.Time
}

// NewLoginLimiter creates a limiter with the given policy. Non-positive
// values fall back to the defaults.
func NewLoginLimiter(maxAttempts int, lockoutDuration time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if lockoutDuration <= 0 {
		lockoutDuration = DefaultLockoutDuration
	}
	return &LoginLimiter{
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
		attempts:        make(map[string]*attemptRecord),
		now:             time.Now,
	}
}

// Check reports whether an authentication attempt for the identifier may
// proceed. An active lockout rejects the attempt with the remaining lock
// time. A failure window older than the lockout duration is treated as clear.
func (l *LoginLimiter) Check(identifier string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec, ok := l.attempts[identifier]
	if !ok {
		return Decision{Allowed: true, AttemptsRemaining: l.maxAttempts}
	}

	if rec.lockedUntil.After(now) {
		return Decision{
			Allowed:    false,
			Reason:     ReasonAccountLocked,
			RetryAfter: rec.lockedUntil.Sub(now),
		}
	}

	// Stale failure window: reset the counter before evaluating.
	if now.Sub(rec.lastAttempt) > l.lockoutDuration {
		rec.count = 0
	}

	return Decision{
		Allowed:           rec.count < l.maxAttempts,
		AttemptsRemaining: l.maxAttempts - rec.count,
	}
}

// Record stamps the outcome of an authentication attempt. Success clears the
// identifier's record entirely; failure increments the counter and, once the
// limit is reached, starts the lockout window.
func (l *LoginLimiter) Record(identifier string, success bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if success {
		delete(l.attempts, identifier)
		return
	}

	now := l.now()
	rec, ok := l.attempts[identifier]
	if !ok {
		rec = &attemptRecord{}
		l.attempts[identifier] = rec
	}

	rec.count++
	rec.lastAttempt = now
	if rec.count >= l.maxAttempts {
		rec.lockedUntil = now.Add(l.lockoutDuration)
	}
}

// Clear wipes all attempt state. Called on service teardown.
func (l *LoginLimiter) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = make(map[string]*attemptRecord)
}
