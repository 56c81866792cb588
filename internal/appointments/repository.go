package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coachdesk/coaching-platform/internal/availability"
)

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository persists appointments.
type Repository struct {
	db db
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting mocks for tests.
func NewRepositoryWithDB(d db) *Repository {
	return &Repository{db: d}
}

const columns = `id, coach_id, client_id, prospect_name, prospect_email, appointment_type_id,
	reason_id, title, description, start_time, end_time, status, meeting_type,
	meeting_url, room_name, cancellation_reason, cancelled_by, cancelled_at, notes,
	created_at, updated_at`

// uniqueViolation is the Postgres error code raised by the partial unique
// index on (coach_id, start_time) for scheduled appointments. It is the
// authoritative double-booking guard; the scheduler's overlap pre-check only
// gives nicer errors for the common case.
const uniqueViolation = "23505"

// Insert writes a new appointment and fills in the store-generated fields.
func (r *Repository) Insert(ctx context.Context, a *Appointment) error {
	query := `
		INSERT INTO appointments (
			id, coach_id, client_id, prospect_name, prospect_email, appointment_type_id,
			reason_id, title, description, start_time, end_time, status, meeting_type,
			meeting_url, room_name
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		a.ID, a.CoachID, a.ClientID, a.ProspectName, a.ProspectEmail, a.AppointmentTypeID,
		a.ReasonID, a.Title, a.Description, a.StartTime, a.EndTime, a.Status, a.MeetingType,
		a.MeetingURL, a.RoomName,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// Get fetches an appointment by id regardless of coach.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+columns+` FROM appointments WHERE id = $1`, id)
	return scanOne(row)
}

// GetForCoach fetches an appointment scoped to its owning coach.
func (r *Repository) GetForCoach(ctx context.Context, coachID, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+columns+` FROM appointments WHERE id = $1 AND coach_id = $2`, id, coachID)
	return scanOne(row)
}

// Update rewrites every mutable column from the given record.
func (r *Repository) Update(ctx context.Context, a *Appointment) error {
	query := `
		UPDATE appointments SET
			reason_id = $2, title = $3, description = $4, start_time = $5, end_time = $6,
			status = $7, meeting_type = $8, meeting_url = $9, room_name = $10,
			cancellation_reason = $11, cancelled_by = $12, cancelled_at = $13, notes = $14,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		a.ID, a.ReasonID, a.Title, a.Description, a.StartTime, a.EndTime,
		a.Status, a.MeetingType, a.MeetingURL, a.RoomName,
		a.CancellationReason, a.CancelledBy, a.CancelledAt, a.Notes,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: update: %w", err)
	}
	return nil
}

// Delete hard-deletes an appointment record.
func (r *Repository) Delete(ctx context.Context, coachID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1 AND coach_id = $2`, id, coachID)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Filter narrows list queries. Zero values mean "no constraint".
type Filter struct {
	Status Status
	From   time.Time
	To     time.Time
	Limit  int
}

// ListForCoach returns a coach's appointments ordered by start time.
func (r *Repository) ListForCoach(ctx context.Context, coachID uuid.UUID, filter Filter) ([]Appointment, error) {
	query := `SELECT ` + columns + ` FROM appointments WHERE coach_id = $1`
	args := []any{coachID}
	query, args = filter.appendTo(query, args)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list for coach: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// ListForClient returns a client's appointments across coaches.
func (r *Repository) ListForClient(ctx context.Context, clientID uuid.UUID, filter Filter) ([]Appointment, error) {
	query := `SELECT ` + columns + ` FROM appointments WHERE client_id = $1`
	args := []any{clientID}
	query, args = filter.appendTo(query, args)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list for client: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

func (f Filter) appendTo(query string, args []any) (string, []any) {
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += fmt.Sprintf(" AND end_time > $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += fmt.Sprintf(" AND start_time < $%d", len(args))
	}
	query += " ORDER BY start_time"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

// AnyOverlapping reports whether a scheduled appointment intersects
// [start, end) on the coach's calendar.
func (r *Repository) AnyOverlapping(ctx context.Context, coachID uuid.UUID, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE coach_id = $1 AND status = 'scheduled'
			AND start_time < $3 AND end_time > $2
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, coachID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("appointments: overlap check: %w", err)
	}
	return exists, nil
}

// ScheduledIntervals returns the busy stretches of a coach's calendar. It
// feeds slot computation in the availability package.
func (r *Repository) ScheduledIntervals(ctx context.Context, coachID uuid.UUID, from, to time.Time) ([]availability.BusyInterval, error) {
	query := `
		SELECT start_time, end_time FROM appointments
		WHERE coach_id = $1 AND status = 'scheduled'
		AND start_time < $3 AND end_time > $2
		ORDER BY start_time
	`
	rows, err := r.db.Query(ctx, query, coachID, from, to)
	if err != nil {
		return nil, fmt.Errorf("appointments: scheduled intervals: %w", err)
	}
	defer rows.Close()

	var intervals []availability.BusyInterval
	for rows.Next() {
		var iv availability.BusyInterval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("appointments: scan interval: %w", err)
		}
		intervals = append(intervals, iv)
	}
	return intervals, rows.Err()
}

func scanOne(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.CoachID, &a.ClientID, &a.ProspectName, &a.ProspectEmail, &a.AppointmentTypeID,
		&a.ReasonID, &a.Title, &a.Description, &a.StartTime, &a.EndTime, &a.Status, &a.MeetingType,
		&a.MeetingURL, &a.RoomName, &a.CancellationReason, &a.CancelledBy, &a.CancelledAt, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select: %w", err)
	}
	return &a, nil
}

func scanAll(rows pgx.Rows) ([]Appointment, error) {
	var list []Appointment
	for rows.Next() {
		var a Appointment
		err := rows.Scan(
			&a.ID, &a.CoachID, &a.ClientID, &a.ProspectName, &a.ProspectEmail, &a.AppointmentTypeID,
			&a.ReasonID, &a.Title, &a.Description, &a.StartTime, &a.EndTime, &a.Status, &a.MeetingType,
			&a.MeetingURL, &a.RoomName, &a.CancellationReason, &a.CancelledBy, &a.CancelledAt, &a.Notes,
			&a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
