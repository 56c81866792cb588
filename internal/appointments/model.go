package appointments

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MeetingType selects how the session is held.
type MeetingType string

const (
	MeetingVideo    MeetingType = "video"
	MeetingPhone    MeetingType = "phone"
	MeetingInPerson MeetingType = "in_person"
)

// Valid reports whether m is a known meeting type.
func (m MeetingType) Valid() bool {
	switch m {
	case MeetingVideo, MeetingPhone, MeetingInPerson:
		return true
	}
	return false
}

// Participant is the booked party: either an existing client or an outside
// prospect identified by name and email. Exactly one variant applies.
type Participant interface {
	isParticipant()
}

// Client references a registered client account.
type Client struct {
	ID uuid.UUID
}

func (Client) isParticipant() {}

// Prospect is a not-yet-registered contact.
type Prospect struct {
	Name  string
	Email string
}

func (Prospect) isParticipant() {}

// Appointment is a single booked session on a coach's calendar.
type Appointment struct {
	ID                 uuid.UUID   `json:"id"`
	CoachID            uuid.UUID   `json:"coach_id"`
	ClientID           *uuid.UUID  `json:"client_id,omitempty"`
	ProspectName       *string     `json:"prospect_name,omitempty"`
	ProspectEmail      *string     `json:"prospect_email,omitempty"`
	AppointmentTypeID  uuid.UUID   `json:"appointment_type_id"`
	ReasonID           *uuid.UUID  `json:"reason_id,omitempty"`
	Title              string      `json:"title"`
	Description        *string     `json:"description,omitempty"`
	StartTime          time.Time   `json:"start_time"`
	EndTime            time.Time   `json:"end_time"`
	Status             Status      `json:"status"`
	MeetingType        MeetingType `json:"meeting_type"`
	MeetingURL         *string     `json:"meeting_url,omitempty"`
	RoomName           *string     `json:"room_name,omitempty"`
	CancellationReason *string     `json:"cancellation_reason,omitempty"`
	CancelledBy        *uuid.UUID  `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time  `json:"cancelled_at,omitempty"`
	Notes              *string     `json:"notes,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// Participant reconstructs the sum variant from the stored columns.
func (a *Appointment) Participant() Participant {
	if a.ClientID != nil {
		return Client{ID: *a.ClientID}
	}
	name := ""
	if a.ProspectName != nil {
		name = *a.ProspectName
	}
	email := ""
	if a.ProspectEmail != nil {
		email = *a.ProspectEmail
	}
	return Prospect{Name: name, Email: email}
}

// HasRoom reports whether a video room is attached.
func (a *Appointment) HasRoom() bool {
	return a.RoomName != nil && *a.RoomName != ""
}

// Duration is the booked length of the session.
func (a *Appointment) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// CreateParams carries a booking request.
type CreateParams struct {
	CoachID           uuid.UUID   `json:"coach_id"`
	ClientID          *uuid.UUID  `json:"client_id"`
	ProspectName      *string     `json:"prospect_name"`
	ProspectEmail     *string     `json:"prospect_email"`
	AppointmentTypeID uuid.UUID   `json:"appointment_type_id"`
	ReasonID          *uuid.UUID  `json:"reason_id"`
	Title             string      `json:"title"`
	Description       *string     `json:"description"`
	StartTime         time.Time   `json:"start_time"`
	EndTime           time.Time   `json:"end_time"`
	MeetingType       MeetingType `json:"meeting_type"`
}

// Participant returns the sum variant the request describes, or nil when
// the request is malformed.
func (p *CreateParams) Participant() Participant {
	if p.ClientID != nil {
		return Client{ID: *p.ClientID}
	}
	if p.ProspectEmail != nil {
		name := ""
		if p.ProspectName != nil {
			name = *p.ProspectName
		}
		return Prospect{Name: name, Email: *p.ProspectEmail}
	}
	return nil
}

// Validate checks the booking invariants before anything touches storage.
func (p *CreateParams) Validate() error {
	hasClient := p.ClientID != nil
	hasProspect := p.ProspectEmail != nil || p.ProspectName != nil
	if hasClient && hasProspect {
		return validationError("participant must be a client or a prospect, not both")
	}
	if !hasClient && !hasProspect {
		return validationError("participant required: set client_id or prospect fields")
	}
	if hasProspect {
		if p.ProspectEmail == nil || *p.ProspectEmail == "" {
			return validationError("prospect_email is required for prospect bookings")
		}
		if _, err := mail.ParseAddress(*p.ProspectEmail); err != nil {
			return validationError("prospect_email is not a valid address")
		}
	}
	if strings.TrimSpace(p.Title) == "" {
		return validationError("title is required")
	}
	if p.StartTime.IsZero() || p.EndTime.IsZero() {
		return validationError("start_time and end_time are required")
	}
	if !p.StartTime.Before(p.EndTime) {
		return validationError("start_time must be before end_time")
	}
	if !p.MeetingType.Valid() {
		return validationError(fmt.Sprintf("unknown meeting_type %q", p.MeetingType))
	}
	if p.AppointmentTypeID == uuid.Nil {
		return validationError("appointment_type_id is required")
	}
	return nil
}

// UpdateParams carries a partial appointment update. Nil fields are left
// unchanged. Status changes go through the dedicated cancel/complete/no-show
// operations, not here.
type UpdateParams struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	StartTime   *time.Time   `json:"start_time"`
	EndTime     *time.Time   `json:"end_time"`
	MeetingType *MeetingType `json:"meeting_type"`
	ReasonID    *uuid.UUID   `json:"reason_id"`
	Notes       *string      `json:"notes"`
}

func (p *UpdateParams) apply(a *Appointment) error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return validationError("title cannot be blank")
		}
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = p.Description
	}
	if p.StartTime != nil {
		a.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		a.EndTime = *p.EndTime
	}
	if !a.StartTime.Before(a.EndTime) {
		return validationError("start_time must be before end_time")
	}
	if p.MeetingType != nil {
		if !p.MeetingType.Valid() {
			return validationError(fmt.Sprintf("unknown meeting_type %q", *p.MeetingType))
		}
		a.MeetingType = *p.MeetingType
	}
	if p.ReasonID != nil {
		a.ReasonID = p.ReasonID
	}
	if p.Notes != nil {
		a.Notes = p.Notes
	}
	return nil
}

// ValidationError marks synchronously rejected input.
type ValidationError struct {
	msg string
}

func validationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

func (e *ValidationError) Error() string { return e.msg }

// IsValidation reports whether err is a validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
