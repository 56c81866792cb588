package rooms

import "errors"

var (
	// ErrNotConfigured is returned when the provider API key is missing.
	ErrNotConfigured = errors.New("room provider not configured")

	// ErrRoomNotFound is returned when a room does not exist or has expired.
	ErrRoomNotFound = errors.New("room not found")
)
