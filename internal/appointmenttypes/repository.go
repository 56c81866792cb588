package appointmenttypes

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

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository stores appointment types and reasons.
type Repository struct {
	db db
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointmenttypes: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting mocks for tests.
func NewRepositoryWithDB(d db) *Repository {
	return &Repository{db: d}
}

const typeColumns = `id, coach_id, name, description, default_duration, color, is_active, created_at, updated_at`

// CreateType inserts a new appointment type.
func (r *Repository) CreateType(ctx context.Context, params *CreateTypeParams) (*AppointmentType, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO appointment_types (id, coach_id, name, description, default_duration, color, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		params.CoachID,
		params.Name,
		params.Description,
		params.DefaultDuration,
		params.Color,
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("appointmenttypes: insert type: %w", err)
	}

	return &AppointmentType{
		ID:              id,
		CoachID:         params.CoachID,
		Name:            params.Name,
		Description:     params.Description,
		DefaultDuration: params.DefaultDuration,
		Color:           params.Color,
		Active:          true,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

// GetTypeForCoach fetches a type scoped to its owning coach. The scope check
// is what the scheduler relies on to reject cross-coach type ids.
func (r *Repository) GetTypeForCoach(ctx context.Context, coachID, typeID uuid.UUID) (*AppointmentType, error) {
	query := `SELECT ` + typeColumns + ` FROM appointment_types WHERE id = $1 AND coach_id = $2`
	row := r.db.QueryRow(ctx, query, typeID, coachID)
	return scanType(row)
}

// ListTypesForCoach returns a coach's types, optionally active only.
func (r *Repository) ListTypesForCoach(ctx context.Context, coachID uuid.UUID, activeOnly bool) ([]AppointmentType, error) {
	query := `SELECT ` + typeColumns + ` FROM appointment_types WHERE coach_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, coachID)
	if err != nil {
		return nil, fmt.Errorf("appointmenttypes: list types: %w", err)
	}
	defer rows.Close()

	var list []AppointmentType
	for rows.Next() {
		var t AppointmentType
		if err := rows.Scan(&t.ID, &t.CoachID, &t.Name, &t.Description, &t.DefaultDuration, &t.Color, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("appointmenttypes: scan type: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// UpdateType applies a partial update.
func (r *Repository) UpdateType(ctx context.Context, coachID, typeID uuid.UUID, params *UpdateTypeParams) (*AppointmentType, error) {
	current, err := r.GetTypeForCoach(ctx, coachID, typeID)
	if err != nil {
		return nil, err
	}
	if err := params.apply(current); err != nil {
		return nil, err
	}

	query := `
		UPDATE appointment_types
		SET name = $3, description = $4, default_duration = $5, color = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1 AND coach_id = $2
	`
	if _, err := r.db.Exec(ctx, query, typeID, coachID, current.Name, current.Description, current.DefaultDuration, current.Color, current.Active); err != nil {
		return nil, fmt.Errorf("appointmenttypes: update type: %w", err)
	}
	return current, nil
}

// DeleteType removes a type. Types referenced by appointments should be
// deactivated instead; the FK will reject the delete.
func (r *Repository) DeleteType(ctx context.Context, coachID, typeID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointment_types WHERE id = $1 AND coach_id = $2`, typeID, coachID)
	if err != nil {
		return fmt.Errorf("appointmenttypes: delete type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTypeNotFound
	}
	return nil
}

const reasonColumns = `id, coach_id, label, display_order, is_active, created_at`

// CreateReason inserts a reason, appending it to the display order.
func (r *Repository) CreateReason(ctx context.Context, params *CreateReasonParams) (*Reason, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	order := 0
	if params.DisplayOrder != nil {
		order = *params.DisplayOrder
	} else {
		row := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(display_order), -1) + 1 FROM appointment_reasons WHERE coach_id = $1`, params.CoachID)
		if err := row.Scan(&order); err != nil {
			return nil, fmt.Errorf("appointmenttypes: next reason order: %w", err)
		}
	}

	id := uuid.New()
	var createdAt time.Time
	err := r.db.QueryRow(ctx, `
		INSERT INTO appointment_reasons (id, coach_id, label, display_order, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING created_at
	`, id, params.CoachID, params.Label, order).Scan(&createdAt)
	if err != nil {
		return nil, fmt.Errorf("appointmenttypes: insert reason: %w", err)
	}

	return &Reason{
		ID:           id,
		CoachID:      params.CoachID,
		Label:        params.Label,
		DisplayOrder: order,
		Active:       true,
		CreatedAt:    createdAt,
	}, nil
}

// ListReasonsForCoach returns reasons in display order.
func (r *Repository) ListReasonsForCoach(ctx context.Context, coachID uuid.UUID, activeOnly bool) ([]Reason, error) {
	query := `SELECT ` + reasonColumns + ` FROM appointment_reasons WHERE coach_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY display_order`

	rows, err := r.db.Query(ctx, query, coachID)
	if err != nil {
		return nil, fmt.Errorf("appointmenttypes: list reasons: %w", err)
	}
	defer rows.Close()

	var list []Reason
	for rows.Next() {
		var reason Reason
		if err := rows.Scan(&reason.ID, &reason.CoachID, &reason.Label, &reason.DisplayOrder, &reason.Active, &reason.CreatedAt); err != nil {
			return nil, fmt.Errorf("appointmenttypes: scan reason: %w", err)
		}
		list = append(list, reason)
	}
	return list, rows.Err()
}

// UpdateReason applies a partial update.
func (r *Repository) UpdateReason(ctx context.Context, coachID, reasonID uuid.UUID, params *UpdateReasonParams) (*Reason, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reasonColumns+` FROM appointment_reasons WHERE id = $1 AND coach_id = $2`, reasonID, coachID)
	var reason Reason
	if err := row.Scan(&reason.ID, &reason.CoachID, &reason.Label, &reason.DisplayOrder, &reason.Active, &reason.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReasonNotFound
		}
		return nil, fmt.Errorf("appointmenttypes: select reason: %w", err)
	}

	if params.Label != nil {
		reason.Label = *params.Label
	}
	if params.DisplayOrder != nil {
		reason.DisplayOrder = *params.DisplayOrder
	}
	if params.Active != nil {
		reason.Active = *params.Active
	}
	if reason.Label == "" {
		return nil, ErrMissingLabel
	}

	if _, err := r.db.Exec(ctx, `
		UPDATE appointment_reasons SET label = $3, display_order = $4, is_active = $5
		WHERE id = $1 AND coach_id = $2
	`, reasonID, coachID, reason.Label, reason.DisplayOrder, reason.Active); err != nil {
		return nil, fmt.Errorf("appointmenttypes: update reason: %w", err)
	}
	return &reason, nil
}

// ReorderReasons rewrites display_order to match the given id sequence.
func (r *Repository) ReorderReasons(ctx context.Context, coachID uuid.UUID, orderedIDs []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("appointmenttypes: begin reorder: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for index, id := range orderedIDs {
		tag, err := tx.Exec(ctx, `
			UPDATE appointment_reasons SET display_order = $3
			WHERE id = $1 AND coach_id = $2
		`, id, coachID, index)
		if err != nil {
			return fmt.Errorf("appointmenttypes: reorder reason: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrReasonNotFound
		}
	}
	return tx.Commit(ctx)
}

func scanType(row pgx.Row) (*AppointmentType, error) {
	var t AppointmentType
	if err := row.Scan(&t.ID, &t.CoachID, &t.Name, &t.Description, &t.DefaultDuration, &t.Color, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTypeNotFound
		}
		return nil, fmt.Errorf("appointmenttypes: select type: %w", err)
	}
	return &t, nil
}
