package cryptox

import "github.com/google/uuid"

// NewSessionMarker returns a fresh random (v4) UUID string. It is never empty,
// so it can never equal the "no active session" sentinel.
func NewSessionMarker() string {
	return uuid.NewString()
}
