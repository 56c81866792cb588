package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewRepositoryWithDB(mock), mock
}

func sampleAppointment() *Appointment {
	clientID := uuid.New()
	return &Appointment{
		ID:                uuid.New(),
		CoachID:           uuid.New(),
		ClientID:          &clientID,
		AppointmentTypeID: uuid.New(),
		Title:             "Weekly check-in",
		StartTime:         time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndTime:           time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Status:            StatusScheduled,
		MeetingType:       MeetingPhone,
	}
}

// insertAnyArgs matches Insert's 15 positional parameters without
// constraining their values; pgxmock requires the argument count to line up
// even when a test does not care about the values.
func insertAnyArgs() []any {
	args := make([]any, 15)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestInsertFillsTimestamps(t *testing.T) {
	repo, mock := newMockRepo(t)
	apt := sampleAppointment()
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(insertAnyArgs()...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	if err := repo.Insert(context.Background(), apt); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if apt.CreatedAt.IsZero() {
		t.Error("created_at should be filled from the store")
	}
}

func TestInsertMapsUniqueViolationToSlotTaken(t *testing.T) {
	repo, mock := newMockRepo(t)
	apt := sampleAppointment()

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(insertAnyArgs()...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "appointments_coach_slot_key"})

	err := repo.Insert(context.Background(), apt)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestGetForCoachNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	coachID := uuid.New()
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(id, coachID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetForCoach(context.Background(), coachID, id)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	coachID := uuid.New()
	id := uuid.New()

	mock.ExpectExec("DELETE FROM appointments").
		WithArgs(id, coachID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), coachID, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAnyOverlapping(t *testing.T) {
	repo, mock := newMockRepo(t)
	coachID := uuid.New()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(coachID, start, end).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.AnyOverlapping(context.Background(), coachID, start, end)
	if err != nil {
		t.Fatalf("AnyOverlapping returned error: %v", err)
	}
	if !taken {
		t.Error("expected overlap to be reported")
	}
}

func TestScheduledIntervalsScan(t *testing.T) {
	repo, mock := newMockRepo(t)
	coachID := uuid.New()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT start_time, end_time FROM appointments").
		WithArgs(coachID, day, day.Add(24*time.Hour)).
		WillReturnRows(pgxmock.NewRows([]string{"start_time", "end_time"}).
			AddRow(day.Add(9*time.Hour), day.Add(10*time.Hour)).
			AddRow(day.Add(14*time.Hour), day.Add(15*time.Hour)))

	intervals, err := repo.ScheduledIntervals(context.Background(), coachID, day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ScheduledIntervals returned error: %v", err)
	}
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(intervals))
	}
	if !intervals[0].Start.Equal(day.Add(9 * time.Hour)) {
		t.Errorf("unexpected first interval start: %v", intervals[0].Start)
	}
}

func TestListForCoachAppliesFilter(t *testing.T) {
	repo, mock := newMockRepo(t)
	coachID := uuid.New()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE coach_id").
		WithArgs(coachID, StatusScheduled, from).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "coach_id", "client_id", "prospect_name", "prospect_email", "appointment_type_id",
			"reason_id", "title", "description", "start_time", "end_time", "status", "meeting_type",
			"meeting_url", "room_name", "cancellation_reason", "cancelled_by", "cancelled_at", "notes",
			"created_at", "updated_at",
		}))

	list, err := repo.ListForCoach(context.Background(), coachID, Filter{Status: StatusScheduled, From: from})
	if err != nil {
		t.Fatalf("ListForCoach returned error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d", len(list))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
