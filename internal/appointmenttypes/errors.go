package appointmenttypes

import "errors"

var (
	// ErrTypeNotFound is returned when an appointment type does not exist
	// or belongs to another coach.
	ErrTypeNotFound = errors.New("appointment type not found")

	// ErrReasonNotFound is returned when a reason does not exist.
	ErrReasonNotFound = errors.New("appointment reason not found")

	// ErrMissingName is returned when the type name is empty.
	ErrMissingName = errors.New("name is required")

	// ErrMissingLabel is returned when the reason label is empty.
	ErrMissingLabel = errors.New("label is required")

	// ErrInvalidDuration is returned when the default duration is not positive.
	ErrInvalidDuration = errors.New("default duration must be positive")
)
