package entity

import "time"

// AuditLog is an immutable record of one login attempt's outcome.
// Rows are only ever appended; the core never updates or deletes them.
type AuditLog struct {
	// ID is the unique identifier for the audit row.
	ID uint `gorm:"primaryKey"`

	// UserID references the user the attempt was made against.
	UserID uint `gorm:"index;not null"`

	// Timestamp is the instant the attempt was evaluated (UTC).
	Timestamp time.Time `gorm:"not null"`

	// IPAddress is the textual client address (IPv4 or IPv6), if known.
	IPAddress string `gorm:"size:45"`

	// WasSuccessful records whether the attempt authenticated.
	WasSuccessful bool `gorm:"not null"`
}
