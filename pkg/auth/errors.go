package auth

import (
	"errors"
	"fmt"
	"time"
)

// ErrAuthenticationFailed is returned on a credential mismatch. It is
// deliberately identical for unknown emails and wrong passwords.
var ErrAuthenticationFailed = errors.New("invalid email or password")

// ErrNotAuthenticated is returned when an operation requires an active
// session and none exists.
var ErrNotAuthenticated = errors.New("not authenticated")

// AccountLockedError rejects an authentication attempt while a lockout is
// active. RetryAfter is the remaining lock time.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	minutes := int((e.RetryAfter + time.Minute - 1) / time.Minute)
	return fmt.Sprintf("account locked, try again in %d minute(s)", minutes)
}

// ValidationError reports malformed input. It is local to the caller and
// never mutates any state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
