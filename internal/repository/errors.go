// Package repository defines the persistence layer and the error values
// shared across repositories.  Handlers use errors.Is on these sentinels to
// pick a status code; anything else is a storage failure.
package repository

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidation is returned when input is malformed or too short.  The
// concrete reason is wrapped around it; handlers respond with 400.
var ErrValidation = errors.New("validation failed")

// ErrConflict is returned when a username is already taken.  Handlers
// respond with 400.
var ErrConflict = errors.New("conflict")

// ErrAuth is returned when a username/password pair does not match a user.
var ErrAuth = errors.New("invalid credentials")

// ErrNotFound is returned when a referenced user does not exist.
var ErrNotFound = errors.New("not found")

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// toMicros normalizes timestamps into microsecond precision for storage.
func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

// fromMicros restores a stored timestamp in UTC.
func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}
