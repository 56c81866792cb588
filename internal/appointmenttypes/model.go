package appointmenttypes

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AppointmentType is a coach-defined service offering (e.g. "Initial consult",
// 30 minutes, blue). The default duration drives slot computation.
type AppointmentType struct {
	ID              uuid.UUID `json:"id"`
	CoachID         uuid.UUID `json:"coach_id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	DefaultDuration int       `json:"default_duration"` // minutes
	Color           string    `json:"color"`
	Active          bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Reason is a coach-defined booking motive shown in the booking form.
type Reason struct {
	ID           uuid.UUID `json:"id"`
	CoachID      uuid.UUID `json:"coach_id"`
	Label        string    `json:"label"`
	DisplayOrder int       `json:"display_order"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

const defaultColor = "#6366f1"

// CreateTypeParams is the request body for creating an appointment type.
type CreateTypeParams struct {
	CoachID         uuid.UUID `json:"-"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	DefaultDuration int       `json:"default_duration"`
	Color           string    `json:"color,omitempty"`
}

// Validate checks required fields and normalizes the color.
func (p *CreateTypeParams) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrMissingName
	}
	if p.DefaultDuration <= 0 {
		return ErrInvalidDuration
	}
	if strings.TrimSpace(p.Color) == "" {
		p.Color = defaultColor
	}
	return nil
}

// UpdateTypeParams carries partial updates to an appointment type.
type UpdateTypeParams struct {
	Name            *string `json:"name,omitempty"`
	Description     *string `json:"description,omitempty"`
	DefaultDuration *int    `json:"default_duration,omitempty"`
	Color           *string `json:"color,omitempty"`
	Active          *bool   `json:"is_active,omitempty"`
}

func (p *UpdateTypeParams) apply(t *AppointmentType) error {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.DefaultDuration != nil {
		t.DefaultDuration = *p.DefaultDuration
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
	if p.Active != nil {
		t.Active = *p.Active
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrMissingName
	}
	if t.DefaultDuration <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// CreateReasonParams is the request body for creating a reason.
type CreateReasonParams struct {
	CoachID      uuid.UUID `json:"-"`
	Label        string    `json:"label"`
	DisplayOrder *int      `json:"display_order,omitempty"`
}

// Validate checks the label.
func (p *CreateReasonParams) Validate() error {
	if strings.TrimSpace(p.Label) == "" {
		return ErrMissingLabel
	}
	return nil
}

// UpdateReasonParams carries partial updates to a reason.
type UpdateReasonParams struct {
	Label        *string `json:"label,omitempty"`
	DisplayOrder *int    `json:"display_order,omitempty"`
	Active       *bool   `json:"is_active,omitempty"`
}
