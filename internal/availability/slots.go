package availability

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/coachdesk/coaching-platform/pkg/logging"
)

// TimeSlot is a candidate bookable interval. Derived on every query, never
// persisted or cached: availability and bookings can change between calls.
type TimeSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// BusyInterval is an occupied stretch of a coach's calendar.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// WindowSource reads a coach's recurring availability.
type WindowSource interface {
	ActiveForDay(ctx context.Context, coachID uuid.UUID, dayOfWeek int) ([]Window, error)
}

// AppointmentSource reads booked intervals. Only appointments in the
// scheduled state block slots; terminal appointments free theirs.
type AppointmentSource interface {
	ScheduledIntervals(ctx context.Context, coachID uuid.UUID, from, to time.Time) ([]BusyInterval, error)
}

// Calculator turns recurring windows plus existing bookings into slots.
type Calculator struct {
	windows      WindowSource
	appointments AppointmentSource
	now          func() time.Time
	logger       *logging.Logger
}

// NewCalculator wires a slot calculator over the given sources.
func NewCalculator(windows WindowSource, appointments AppointmentSource, logger *logging.Logger) *Calculator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Calculator{
		windows:      windows,
		appointments: appointments,
		now:          time.Now,
		logger:       logger,
	}
}

// WithClock overrides the calculator's notion of "now". Used by tests and by
// callers that need reproducible output.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	c.now = now
	return c
}

// Slots computes the full chronological slot list for one date. Slots step by
// exactly the requested duration, so they never overlap each other. Slots that
// collide with a scheduled appointment, or start in the past, are kept in the
// list but marked unavailable so callers can grey them out.
func (c *Calculator) Slots(ctx context.Context, coachID uuid.UUID, date time.Time, duration time.Duration) ([]TimeSlot, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	windows, err := c.windows.ActiveForDay(ctx, coachID, int(day.Weekday()))
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return []TimeSlot{}, nil
	}

	busy, err := c.appointments.ScheduledIntervals(ctx, coachID, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	now := c.now()
	var slots []TimeSlot
	for _, window := range mergeWindows(windows) {
		windowStart := day.Add(time.Duration(window.start) * time.Minute)
		windowEnd := day.Add(time.Duration(window.end) * time.Minute)

		for start := windowStart; !start.Add(duration).After(windowEnd); start = start.Add(duration) {
			end := start.Add(duration)
			slots = append(slots, TimeSlot{
				Start:     start,
				End:       end,
				Available: !start.Before(now) && !overlapsAny(start, end, busy),
			})
		}
	}

	if slots == nil {
		return []TimeSlot{}, nil
	}
	return slots, nil
}

// DaySlots groups the available slots of one date.
type DaySlots struct {
	Date  string     `json:"date"` // YYYY-MM-DD
	Slots []TimeSlot `json:"slots"`
}

// SlotsForRange computes available slots for each date in [from, to],
// skipping dates with none. Used by week/month pickers.
func (c *Calculator) SlotsForRange(ctx context.Context, coachID uuid.UUID, from, to time.Time, duration time.Duration) ([]DaySlots, error) {
	var out []DaySlots
	for day := from; !day.After(to); day = day.Add(24 * time.Hour) {
		slots, err := c.Slots(ctx, coachID, day, duration)
		if err != nil {
			return nil, err
		}
		available := slots[:0:0]
		for _, slot := range slots {
			if slot.Available {
				available = append(available, slot)
			}
		}
		if len(available) > 0 {
			out = append(out, DaySlots{Date: day.Format("2006-01-02"), Slots: available})
		}
	}
	return out, nil
}

// mergedWindow is a normalized window in minutes from midnight.
type mergedWindow struct {
	start int
	end   int
}

// mergeWindows sorts windows by start and coalesces overlapping or adjacent
// ones. Storage does not guarantee either ordering or disjointness. Windows
// with unparseable clocks are skipped rather than failing slot computation.
func mergeWindows(windows []Window) []mergedWindow {
	raw := make([]mergedWindow, 0, len(windows))
	for _, w := range windows {
		start, err := parseClock(w.StartTime)
		if err != nil {
			continue
		}
		end, err := parseClock(w.EndTime)
		if err != nil || end <= start {
			continue
		}
		raw = append(raw, mergedWindow{start: start, end: end})
	}
	if len(raw) == 0 {
		return nil
	}

	sort.Slice(raw, func(i, j int) bool { return raw[i].start < raw[j].start })

	merged := []mergedWindow{raw[0]}
	for _, w := range raw[1:] {
		last := &merged[len(merged)-1]
		if w.start <= last.end {
			if w.end > last.end {
				last.end = w.end
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

// overlapsAny reports whether [start, end) intersects any busy interval.
func overlapsAny(start, end time.Time, busy []BusyInterval) bool {
	for _, b := range busy {
		if start.Before(b.End) && end.After(b.Start) {
			return true
		}
	}
	return false
}
