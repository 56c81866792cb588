package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Window is one recurring weekly availability block for a coach.
// Times are clock strings ("09:00") in the coach's working timezone; the
// platform does single-timezone slot math.
type Window struct {
	ID        uuid.UUID `json:"id"`
	CoachID   uuid.UUID `json:"coach_id"`
	DayOfWeek int       `json:"day_of_week"` // 0=Sunday .. 6=Saturday
	StartTime string    `json:"start_time"`  // "09:00"
	EndTime   string    `json:"end_time"`    // "12:00"
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateWindowParams is the request body for adding an availability window.
type CreateWindowParams struct {
	CoachID   uuid.UUID `json:"-"`
	DayOfWeek int       `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

// Validate checks day range, clock format and time ordering, and normalizes
// the clocks to zero-padded HH:MM. Storage compares and orders clocks as
// text, so "9:00" must never reach the database.
func (p *CreateWindowParams) Validate() error {
	if p.DayOfWeek < 0 || p.DayOfWeek > 6 {
		return ErrInvalidDay
	}
	start, err := parseClock(p.StartTime)
	if err != nil {
		return err
	}
	end, err := parseClock(p.EndTime)
	if err != nil {
		return err
	}
	if start >= end {
		return ErrInvalidTimeRange
	}
	p.StartTime = formatClock(start)
	p.EndTime = formatClock(end)
	return nil
}

// UpdateWindowParams carries partial updates to a window.
type UpdateWindowParams struct {
	DayOfWeek *int    `json:"day_of_week,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Active    *bool   `json:"is_active,omitempty"`
}

// apply merges the update into an existing window and re-validates.
func (p *UpdateWindowParams) apply(w *Window) error {
	if p.DayOfWeek != nil {
		w.DayOfWeek = *p.DayOfWeek
	}
	if p.StartTime != nil {
		w.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		w.EndTime = *p.EndTime
	}
	if p.Active != nil {
		w.Active = *p.Active
	}
	check := CreateWindowParams{DayOfWeek: w.DayOfWeek, StartTime: w.StartTime, EndTime: w.EndTime}
	if err := check.Validate(); err != nil {
		return err
	}
	w.StartTime = check.StartTime
	w.EndTime = check.EndTime
	return nil
}

// parseClock converts "HH:MM" (seconds tolerated) to minutes from midnight.
func parseClock(clock string) (int, error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	return hour*60 + minute, nil
}

// formatClock renders minutes from midnight as a zero-padded "HH:MM".
func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
