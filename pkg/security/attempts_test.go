package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(start time.Time) (*LoginLimiter, *time.Time) {
	now := start
	l := NewLoginLimiter(DefaultMaxAttempts, DefaultLockoutDuration)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLoginLimiterAllowsUnknownIdentifier(t *testing.T) {
	l, _ := newTestLimiter(time.Now())

	decision := l.Check("john.doe@example.com")

	assert.True(t, decision.Allowed)
	assert.Equal(t, DefaultMaxAttempts, decision.AttemptsRemaining)
}

func TestLoginLimiterLocksAfterMaxFailures(t *testing.T) {
	l, now := newTestLimiter(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	const email = "john.doe@example.com"

	for i := 0; i < DefaultMaxAttempts; i++ {
		decision := l.Check(email)
		assert.True(t, decision.Allowed, "attempt %d should be allowed", i+1)
		assert.Equal(t, DefaultMaxAttempts-i, decision.AttemptsRemaining)
		l.Record(email, false)
	}

	decision := l.Check(email)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonAccountLocked, decision.Reason)
	assert.Equal(t, DefaultLockoutDuration, decision.RetryAfter)

	// Correct credentials do not matter while locked; the caller must not
	// even attempt authentication. Partway through, the remaining time
	// shrinks.
	*now = now.Add(5 * time.Minute)
	decision = l.Check(email)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 10*time.Minute, decision.RetryAfter)

	// After the lockout window the identifier is clear again.
	*now = now.Add(10*time.Minute + time.Second)
	decision = l.Check(email)
	assert.True(t, decision.Allowed)
	assert.Equal(t, DefaultMaxAttempts, decision.AttemptsRemaining)
}

func TestLoginLimiterSuccessClearsRecord(t *testing.T) {
	l, _ := newTestLimiter(time.Now())
	const email = "john.doe@example.com"

	for i := 0; i < 3; i++ {
		l.Record(email, false)
	}
	assert.Equal(t, 2, l.Check(email).AttemptsRemaining)

	l.Record(email, true)

	decision := l.Check(email)
	assert.True(t, decision.Allowed)
	assert.Equal(t, DefaultMaxAttempts, decision.AttemptsRemaining)
}

func TestLoginLimiterStaleWindowResets(t *testing.T) {
	l, now := newTestLimiter(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	const email = "john.doe@example.com"

	for i := 0; i < 4; i++ {
		l.Record(email, false)
	}
	assert.Equal(t, 1, l.Check(email).AttemptsRemaining)

	// More than the lockout duration since the last failure: the counter is
	// treated as zero again.
	*now = now.Add(DefaultLockoutDuration + time.Minute)
	decision := l.Check(email)
	assert.True(t, decision.Allowed)
	assert.Equal(t, DefaultMaxAttempts, decision.AttemptsRemaining)
}

func TestLoginLimiterTracksIdentifiersIndependently(t *testing.T) {
	l, _ := newTestLimiter(time.Now())

	for i := 0; i < DefaultMaxAttempts; i++ {
		l.Record("locked@example.com", false)
	}

	assert.False(t, l.Check("locked@example.com").Allowed)
	assert.True(t, l.Check("other@example.com").Allowed)
}

func TestLoginLimiterClear(t *testing.T) {
	l, _ := newTestLimiter(time.Now())
	for i := 0; i < DefaultMaxAttempts; i++ {
		l.Record("locked@example.com", false)
	}

	l.Clear()

	assert.True(t, l.Check("locked@example.com").Allowed)
}
