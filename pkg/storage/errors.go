package storage

import "errors"

// ErrIdentityNotFound is returned when no identity exists for an email.
var ErrIdentityNotFound = errors.New("identity not found")

// ErrDuplicateIdentity is returned when registering an email that is already taken.
var ErrDuplicateIdentity = errors.New("identity already exists")
