package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// db is the pgx surface the repository uses; satisfied by *pgxpool.Pool and
// by pgxmock in tests.
type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository stores availability windows in the relational database.
type Repository struct {
	db db
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("availability: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting mocks for tests.
func NewRepositoryWithDB(d db) *Repository {
	return &Repository{db: d}
}

const windowColumns = `id, coach_id, day_of_week, start_time, end_time, is_active, created_at`

// Create inserts a new window.
func (r *Repository) Create(ctx context.Context, params *CreateWindowParams) (*Window, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO coach_availability (id, coach_id, day_of_week, start_time, end_time, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		params.CoachID,
		params.DayOfWeek,
		params.StartTime,
		params.EndTime,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("availability: insert failed: %w", err)
	}

	return &Window{
		ID:        id,
		CoachID:   params.CoachID,
		DayOfWeek: params.DayOfWeek,
		StartTime: params.StartTime,
		EndTime:   params.EndTime,
		Active:    true,
		CreatedAt: createdAt,
	}, nil
}

// GetByID fetches a single window.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Window, error) {
	query := `SELECT ` + windowColumns + ` FROM coach_availability WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// Update applies a partial update and returns the new state.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params *UpdateWindowParams) (*Window, error) {
	window, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := params.apply(window); err != nil {
		return nil, err
	}

	query := `
		UPDATE coach_availability
		SET day_of_week = $2, start_time = $3, end_time = $4, is_active = $5
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, window.DayOfWeek, window.StartTime, window.EndTime, window.Active)
	if err != nil {
		return nil, fmt.Errorf("availability: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrWindowNotFound
	}
	return window, nil
}

// Delete removes a window.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM coach_availability WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("availability: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

// ListForCoach returns a coach's windows ordered by day then start time.
func (r *Repository) ListForCoach(ctx context.Context, coachID uuid.UUID, activeOnly bool) ([]Window, error) {
	query := `SELECT ` + windowColumns + ` FROM coach_availability WHERE coach_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY day_of_week, start_time`

	rows, err := r.db.Query(ctx, query, coachID)
	if err != nil {
		return nil, fmt.Errorf("availability: list failed: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// ActiveForDay returns the active windows for one weekday. Order is not
// guaranteed by storage; the slot calculator normalizes.
func (r *Repository) ActiveForDay(ctx context.Context, coachID uuid.UUID, dayOfWeek int) ([]Window, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM coach_availability
		WHERE coach_id = $1 AND day_of_week = $2 AND is_active
	`
	rows, err := r.db.Query(ctx, query, coachID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("availability: list for day failed: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// Replace swaps a coach's whole weekly schedule in one transaction.
func (r *Repository) Replace(ctx context.Context, coachID uuid.UUID, windows []CreateWindowParams) ([]Window, error) {
	for i := range windows {
		windows[i].CoachID = coachID
		if err := windows[i].Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("availability: begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM coach_availability WHERE coach_id = $1`, coachID); err != nil {
		return nil, fmt.Errorf("availability: clear windows: %w", err)
	}

	created := make([]Window, 0, len(windows))
	for _, params := range windows {
		id := uuid.New()
		var createdAt time.Time
		err := tx.QueryRow(ctx, `
			INSERT INTO coach_availability (id, coach_id, day_of_week, start_time, end_time, is_active)
			VALUES ($1, $2, $3, $4, $5, TRUE)
			RETURNING created_at
		`, id, coachID, params.DayOfWeek, params.StartTime, params.EndTime).Scan(&createdAt)
		if err != nil {
			return nil, fmt.Errorf("availability: insert window: %w", err)
		}
		created = append(created, Window{
			ID:        id,
			CoachID:   coachID,
			DayOfWeek: params.DayOfWeek,
			StartTime: params.StartTime,
			EndTime:   params.EndTime,
			Active:    true,
			CreatedAt: createdAt,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("availability: commit replace: %w", err)
	}
	return created, nil
}

func (r *Repository) scanOne(row pgx.Row) (*Window, error) {
	var w Window
	if err := row.Scan(&w.ID, &w.CoachID, &w.DayOfWeek, &w.StartTime, &w.EndTime, &w.Active, &w.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, fmt.Errorf("availability: select failed: %w", err)
	}
	return &w, nil
}

func (r *Repository) scanAll(rows pgx.Rows) ([]Window, error) {
	var list []Window
	for rows.Next() {
		var w Window
		if err := rows.Scan(&w.ID, &w.CoachID, &w.DayOfWeek, &w.StartTime, &w.EndTime, &w.Active, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("availability: scan failed: %w", err)
		}
		list = append(list, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("availability: rows failed: %w", err)
	}
	return list, nil
}
