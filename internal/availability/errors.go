package availability

import "errors"

var (
	// ErrWindowNotFound is returned when an availability window does not exist.
	ErrWindowNotFound = errors.New("availability window not found")

	// ErrInvalidDay is returned when day_of_week is outside 0..6.
	ErrInvalidDay = errors.New("day of week must be between 0 (Sunday) and 6 (Saturday)")

	// ErrInvalidTimeRange is returned when a window does not end after it starts.
	ErrInvalidTimeRange = errors.New("end time must be after start time")

	// ErrInvalidClock is returned when a time is not a valid HH:MM clock string.
	ErrInvalidClock = errors.New("time must be an HH:MM clock value")
)
