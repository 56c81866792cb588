package appointments

import "errors"

var (
	// ErrNotFound means no appointment matches the given id and coach.
	ErrNotFound = errors.New("appointment not found")

	// ErrSlotTaken means another scheduled appointment already holds the slot.
	ErrSlotTaken = errors.New("time slot already booked")

	// ErrInvalidTransition means the requested status change is not allowed
	// from the appointment's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNoRoom means the appointment has no meeting room to join.
	ErrNoRoom = errors.New("appointment has no meeting room")
)
