package usecase

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUserNotFound is returned when a user cannot be found by email or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when attempting to create a user with an email that already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned when authentication fails.
	// A wrong email and a wrong password are deliberately indistinguishable
	// to prevent account enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidOrExpiredToken is returned for any unusable reset token.
	// Malformed, tampered, wrong-signature and expired tokens all map here.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")

	// ErrTransientStorage is returned when a state change could not be
	// committed. The caller may retry the whole operation.
	ErrTransientStorage = errors.New("temporary storage failure")

	// ErrValidation is the base error for malformed user input.
	// Concrete validation failures wrap it with a specific message.
	ErrValidation = errors.New("validation failed")
)

// AccountLockedError is returned while an account is in the locked state.
// It carries the remaining lock duration so callers can tell the user when
// to retry. Indefinite is set for manual locks that have no expiry.
type AccountLockedError struct {
	RetryAfter time.Duration
	Indefinite bool
}

// Error implements the error interface.
func (e *AccountLockedError) Error() string {
	if e.Indefinite {
		return "account is locked"
	}
	return fmt.Sprintf("account is locked, retry after %d minute(s)", e.RetryAfterMinutes())
}

// RetryAfterMinutes returns the remaining lock time rounded up to whole
// minutes, so a still-locked account is never reported as "0 minutes".
func (e *AccountLockedError) RetryAfterMinutes() int {
	if e.Indefinite || e.RetryAfter <= 0 {
		return 0
	}
	return int((e.RetryAfter + time.Minute - 1) / time.Minute)
}
