// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// User represents a registered user in the system.
// It contains authentication credentials and the account-security counters
// driving the progressive lockout logic.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"primaryKey"`

	// Email is the user's email address used for authentication.
	// It must be unique across all users. Matching is exact as stored;
	// no case normalization is applied anywhere.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This never stores a plaintext or reversibly encoded password.
	PasswordHash string `gorm:"size:255;not null"`

	// FailedLoginAttempts counts consecutive wrong-password attempts.
	// It only increases on failure and resets to 0 on success or unlock.
	FailedLoginAttempts int `gorm:"not null;default:0"`

	// IsLocked reports whether the account is in the locked state.
	// Whether the lock is still in effect is decided by comparing
	// LockedUntil against the current time, not by this flag alone.
	IsLocked bool `gorm:"not null;default:false"`

	// LockedUntil is the instant the lock expires.
	// A nil value while IsLocked is true means an indefinite (manual) lock.
	LockedUntil *time.Time

	// LastLogin is the timestamp of the most recent successful login.
	LastLogin *time.Time

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time
}

// LockExpired reports whether the account is locked but the lock window has
// already passed. Both sides are normalized to UTC before comparing: drivers
// can hand back stored timestamps without offset information, and a naive
// comparison against a zoned "now" is wrong.
func (u *User) LockExpired(now time.Time) bool {
	if !u.IsLocked || u.LockedUntil == nil {
		return false
	}
	return !u.LockedUntil.UTC().After(now.UTC())
}

// LockRemaining returns the time left until the lock expires.
// It returns 0 for unlocked accounts and for indefinite locks.
func (u *User) LockRemaining(now time.Time) time.Duration {
	if !u.IsLocked || u.LockedUntil == nil {
		return 0
	}
	d := u.LockedUntil.UTC().Sub(now.UTC())
	if d < 0 {
		return 0
	}
	return d
}
