package security

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default session policy.
const (
	DefaultSessionTimeout  = 30 * time.Minute
	DefaultMonitorInterval = 60 * time.Second
)

// Expiry reasons delivered on the expired channel.
const (
	ExpiryReasonTimeout    = "timeout"
	ExpiryReasonInactivity = "inactivity"
)

// SessionManager issues and validates signed session tokens and watches the
// active session with two independent expiry paths: the token's own embedded
// expiry, and an inactivity clock advanced by reported user interactions.
// At most one session is active at a time; beginning a new session supersedes
// the previous one.
//
// Expiry is an asynchronous signal, not a call-time error: the orchestrating
// layer consumes Expired() and must force a logout when a reason arrives.
type SessionManager struct {
	signingKey      []byte
	timeout         time.Duration
	monitorInterval time.Duration

	mu           sync.Mutex
	activeToken  string
	lastActivity time.Time
	signalled    bool
	expired      chan string
	done         chan struct{}
	stopOnce     *sync.Once
	wg           sync.WaitGroup

	now func() time.Time
}

// Option configures a SessionManager.
type Option func(*SessionManager)

// WithClock overrides the manager's time source. Intended for tests, which
// must not depend on real elapsed time.
func WithClock(now func() time.Time) Option {
	return func(m *SessionManager) { m.now = now }
}

// NewSessionManager creates a stopped manager. Non-positive durations fall
// back to the defaults.
func NewSessionManager(signingKey []byte, timeout, monitorInterval time.Duration, opts ...Option) *SessionManager {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	if monitorInterval <= 0 {
		monitorInterval = DefaultMonitorInterval
	}
	m := &SessionManager{
		signingKey:      signingKey,
		timeout:         timeout,
		monitorInterval: monitorInterval,
		expired:         make(chan string, 1),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue mints a signed token embedding the issue time, a random nonce and an
// expiry of issue time plus the session timeout. The token's validity is
// fixed at issuance; user activity never extends it.
func (m *SessionManager) Issue() (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// Validate reports whether a token is well-formed, correctly signed and not
// yet expired. A token is already invalid at the instant of its expiry.
func (m *SessionManager) Validate(token string) bool {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) { return m.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	return err == nil && parsed.Valid
}

// Expired delivers at most one expiry reason per session.
func (m *SessionManager) Expired() <-chan string {
	return m.expired
}

// Begin issues a token for a new session, records it as the active session
// and starts the liveness monitor. Any previous session is stopped first.
func (m *SessionManager) Begin() (string, error) {
	m.Stop()

	// Drop any signal left over from the superseded session.
	select {
	case <-m.expired:
	default:
	}

	token, err := m.Issue()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.activeToken = token
	m.lastActivity = m.now()
	m.signalled = false
	m.done = make(chan struct{})
	m.stopOnce = &sync.Once{}
	done := m.done
	m.mu.Unlock()

	m.wg.Add(1)
	go m.monitor(done)

	return token, nil
}

// Touch records a user interaction, resetting the inactivity clock. It does
// not extend the active token's own expiry.
func (m *SessionManager) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = m.now()
}

// Stop cancels the liveness monitor and discards the active session. It is
// idempotent and safe to call on a manager that was never started. When Stop
// returns the monitor goroutine has exited and no further expiry signal will
// be sent.
func (m *SessionManager) Stop() {
	m.mu.Lock()
	once := m.stopOnce
	done := m.done
	m.activeToken = ""
	m.mu.Unlock()

	if once == nil {
		return
	}
	once.Do(func() { close(done) })
	m.wg.Wait()
}

func (m *SessionManager) monitor(done <-chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.checkExpiry(done)
		}
	}
}

// checkExpiry evaluates both expiry paths under the session lock. It signals
// at most once per session, and never once the session's done channel is
// closed, so a tick in flight during Stop cannot deliver.
func (m *SessionManager) checkExpiry(done <-chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-done:
		return
	default:
	}

	if m.activeToken == "" || m.signalled {
		return
	}

	var reason string
	switch {
	case !m.Validate(m.activeToken):
		reason = ExpiryReasonTimeout
	case m.now().Sub(m.lastActivity) > m.timeout:
		reason = ExpiryReasonInactivity
	default:
		return
	}

	m.signalled = true
	select {
	case m.expired <- reason:
	default:
	}
}
