// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account record. LoginSession holds the current session marker;
// the empty string means the account has no active session.
type User struct {
	ID           int64
	UserName     string
	Email        string
	PasswordHash string
	LoginSession string
	CreatedAt    time.Time
	ModifiedAt   time.Time
}

// LoginHistoryEntry is an append-only audit record of a successful login or signup.
type LoginHistoryEntry struct {
	ID             int64
	UserID         int64
	LoginTimestamp time.Time
}
