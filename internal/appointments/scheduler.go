package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/coachdesk/coaching-platform/internal/appointmenttypes"
	"github.com/coachdesk/coaching-platform/internal/observability/metrics"
	"github.com/coachdesk/coaching-platform/internal/rooms"
	"github.com/coachdesk/coaching-platform/pkg/logging"
)

var schedulerTracer = otel.Tracer("coachdesk.internal.appointments.scheduler")

// Store is the persistence surface the scheduler needs.
type Store interface {
	Insert(ctx context.Context, a *Appointment) error
	GetForCoach(ctx context.Context, coachID, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, coachID, id uuid.UUID) error
	AnyOverlapping(ctx context.Context, coachID uuid.UUID, start, end time.Time) (bool, error)
}

// TypeStore resolves appointment types for ownership checks.
type TypeStore interface {
	GetTypeForCoach(ctx context.Context, coachID, typeID uuid.UUID) (*appointmenttypes.AppointmentType, error)
}

// Notifier sends booking emails. Implementations must not block on retries;
// failures are the notifier's concern, not the scheduler's.
type Notifier interface {
	BookingConfirmed(ctx context.Context, email, name, title string, start, end time.Time, joinURL string)
	BookingCancelled(ctx context.Context, email, name, title string, start time.Time, reason string)
}

// SchedulerConfig carries the room lifecycle knobs.
type SchedulerConfig struct {
	// RoomTTLMargin is added to the appointment duration when setting the
	// room's expiry, leaving headroom for sessions that run long.
	RoomTTLMargin time.Duration
	// RoomLanguage sets the room UI language.
	RoomLanguage string
}

// Scheduler orchestrates appointment lifecycle operations and keeps the
// video room provider in step with the appointment store.
type Scheduler struct {
	store    Store
	types    TypeStore
	provider rooms.Provider
	notifier Notifier
	metrics  *metrics.BookingMetrics
	cfg      SchedulerConfig
	now      func() time.Time
	logger   *logging.Logger
}

// NewScheduler wires the scheduler. provider and notifier may be nil, in
// which case video rooms and emails are skipped.
func NewScheduler(store Store, types TypeStore, provider rooms.Provider, notifier Notifier, m *metrics.BookingMetrics, cfg SchedulerConfig, logger *logging.Logger) *Scheduler {
	if cfg.RoomTTLMargin <= 0 {
		cfg.RoomTTLMargin = 30 * time.Minute
	}
	return &Scheduler{
		store:    store,
		types:    types,
		provider: provider,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock overrides the scheduler's notion of "now". Used by tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Create books an appointment. Video bookings get a room with a TTL of the
// session length plus the configured margin. Room creation failure degrades
// the booking to no-room rather than failing it; a failed store write after
// a successful room creation deletes the room again so no orphaned room is
// left billing.
func (s *Scheduler) Create(ctx context.Context, params *CreateParams) (*Appointment, error) {
	ctx, span := schedulerTracer.Start(ctx, "appointments.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("coachdesk.coach_id", params.CoachID.String()),
		attribute.String("appointment.meeting_type", string(params.MeetingType)),
	)

	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.StartTime.Before(s.now()) {
		return nil, validationError("start_time cannot be in the past")
	}
	if _, err := s.types.GetTypeForCoach(ctx, params.CoachID, params.AppointmentTypeID); err != nil {
		if errors.Is(err, appointmenttypes.ErrTypeNotFound) {
			return nil, validationError("appointment type does not belong to this coach")
		}
		return nil, fmt.Errorf("resolve appointment type: %w", err)
	}

	taken, err := s.store.AnyOverlapping(ctx, params.CoachID, params.StartTime, params.EndTime)
	if err != nil {
		return nil, err
	}
	if taken {
		s.metrics.ObserveConflict()
		return nil, ErrSlotTaken
	}

	apt := &Appointment{
		ID:                uuid.New(),
		CoachID:           params.CoachID,
		ClientID:          params.ClientID,
		ProspectName:      params.ProspectName,
		ProspectEmail:     params.ProspectEmail,
		AppointmentTypeID: params.AppointmentTypeID,
		ReasonID:          params.ReasonID,
		Title:             params.Title,
		Description:       params.Description,
		StartTime:         params.StartTime,
		EndTime:           params.EndTime,
		Status:            StatusScheduled,
		MeetingType:       params.MeetingType,
	}

	degraded := false
	if params.MeetingType == MeetingVideo {
		room, err := s.createRoom(ctx, apt)
		if err != nil {
			// Degraded mode: the calendar hold matters more than the
			// video room. The coach can reattach video via update.
			degraded = true
			s.metrics.ObserveRoomFailure("create")
			s.logger.Warn("room creation failed, booking without video",
				"appointment_id", apt.ID, "coach_id", apt.CoachID, "error", err)
		} else {
			apt.RoomName = &room.Name
			apt.MeetingURL = &room.URL
		}
	}

	if err := s.store.Insert(ctx, apt); err != nil {
		if apt.HasRoom() {
			s.deleteRoomBestEffort(ctx, *apt.RoomName, apt.ID)
		}
		if errors.Is(err, ErrSlotTaken) {
			s.metrics.ObserveConflict()
		}
		return nil, err
	}

	s.metrics.ObserveCreated(string(apt.MeetingType), degraded)
	s.notifyConfirmed(ctx, apt)
	return apt, nil
}

// Update applies a partial update. Terminal appointments reject all
// mutation. Switching the meeting type to video on a roomless appointment
// attempts room creation under the same degraded-mode policy as Create.
func (s *Scheduler) Update(ctx context.Context, coachID, id uuid.UUID, params *UpdateParams) (*Appointment, error) {
	ctx, span := schedulerTracer.Start(ctx, "appointments.update")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", id.String()))

	apt, err := s.store.GetForCoach(ctx, coachID, id)
	if err != nil {
		return nil, err
	}
	if apt.Status.Terminal() {
		return nil, ErrInvalidTransition
	}
	if err := params.apply(apt); err != nil {
		return nil, err
	}

	if apt.MeetingType == MeetingVideo && !apt.HasRoom() {
		room, err := s.createRoom(ctx, apt)
		if err != nil {
			s.metrics.ObserveRoomFailure("create")
			s.logger.Warn("room creation failed during update",
				"appointment_id", apt.ID, "error", err)
		} else {
			apt.RoomName = &room.Name
			apt.MeetingURL = &room.URL
		}
	}

	if err := s.store.Update(ctx, apt); err != nil {
		return nil, err
	}
	return apt, nil
}

// Cancel marks the appointment cancelled and tears down its room. A failed
// room delete is logged and skipped; the cancelled status is authoritative
// and orphaned rooms are reconciled by the background sweeper.
func (s *Scheduler) Cancel(ctx context.Context, coachID, id, cancelledBy uuid.UUID, reason string) (*Appointment, error) {
	ctx, span := schedulerTracer.Start(ctx, "appointments.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", id.String()))

	apt, err := s.store.GetForCoach(ctx, coachID, id)
	if err != nil {
		return nil, err
	}
	if !apt.Status.CanTransitionTo(StatusCancelled) {
		return nil, ErrInvalidTransition
	}

	if apt.HasRoom() {
		s.deleteRoomBestEffort(ctx, *apt.RoomName, apt.ID)
	}

	now := s.now().UTC()
	apt.Status = StatusCancelled
	apt.CancelledBy = &cancelledBy
	apt.CancelledAt = &now
	if reason != "" {
		apt.CancellationReason = &reason
	}

	if err := s.store.Update(ctx, apt); err != nil {
		return nil, err
	}
	s.metrics.ObserveCancelled()
	s.notifyCancelled(ctx, apt, reason)
	return apt, nil
}

// Complete marks a scheduled appointment completed. The room is left to
// expire on its own TTL.
func (s *Scheduler) Complete(ctx context.Context, coachID, id uuid.UUID, notes *string) (*Appointment, error) {
	return s.finish(ctx, coachID, id, StatusCompleted, notes)
}

// MarkNoShow records that the participant never joined.
func (s *Scheduler) MarkNoShow(ctx context.Context, coachID, id uuid.UUID, notes *string) (*Appointment, error) {
	return s.finish(ctx, coachID, id, StatusNoShow, notes)
}

func (s *Scheduler) finish(ctx context.Context, coachID, id uuid.UUID, next Status, notes *string) (*Appointment, error) {
	ctx, span := schedulerTracer.Start(ctx, "appointments.finish")
	defer span.End()
	span.SetAttributes(
		attribute.String("appointment.id", id.String()),
		attribute.String("appointment.status", string(next)),
	)

	apt, err := s.store.GetForCoach(ctx, coachID, id)
	if err != nil {
		return nil, err
	}
	if !apt.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	apt.Status = next
	if notes != nil {
		apt.Notes = notes
	}
	if err := s.store.Update(ctx, apt); err != nil {
		return nil, err
	}
	return apt, nil
}

// HardDelete removes the record entirely, tearing down the room first.
// Privileged operation, not part of ordinary booking flows.
func (s *Scheduler) HardDelete(ctx context.Context, coachID, id uuid.UUID) error {
	ctx, span := schedulerTracer.Start(ctx, "appointments.hard_delete")
	defer span.End()

	apt, err := s.store.GetForCoach(ctx, coachID, id)
	if err != nil {
		return err
	}
	if apt.HasRoom() {
		s.deleteRoomBestEffort(ctx, *apt.RoomName, apt.ID)
	}
	return s.store.Delete(ctx, coachID, id)
}

func (s *Scheduler) createRoom(ctx context.Context, apt *Appointment) (*rooms.Room, error) {
	if s.provider == nil {
		return nil, rooms.ErrNotConfigured
	}
	name := fmt.Sprintf("coachdesk-%s", apt.ID)
	ttl := apt.Duration() + s.cfg.RoomTTLMargin
	return s.provider.CreateRoom(ctx, name, ttl, rooms.DefaultRoomConfig(s.cfg.RoomLanguage))
}

func (s *Scheduler) deleteRoomBestEffort(ctx context.Context, roomName string, aptID uuid.UUID) {
	if s.provider == nil {
		return
	}
	if err := s.provider.DeleteRoom(ctx, roomName); err != nil {
		s.metrics.ObserveRoomFailure("delete")
		s.logger.Warn("room deletion failed, leaving for sweeper",
			"room", roomName, "appointment_id", aptID, "error", err)
	}
}

func (s *Scheduler) notifyConfirmed(ctx context.Context, apt *Appointment) {
	if s.notifier == nil || apt.ProspectEmail == nil {
		return
	}
	name := ""
	if apt.ProspectName != nil {
		name = *apt.ProspectName
	}
	joinURL := ""
	if apt.MeetingURL != nil {
		joinURL = *apt.MeetingURL
	}
	s.notifier.BookingConfirmed(ctx, *apt.ProspectEmail, name, apt.Title, apt.StartTime, apt.EndTime, joinURL)
}

func (s *Scheduler) notifyCancelled(ctx context.Context, apt *Appointment, reason string) {
	if s.notifier == nil || apt.ProspectEmail == nil {
		return
	}
	name := ""
	if apt.ProspectName != nil {
		name = *apt.ProspectName
	}
	s.notifier.BookingCancelled(ctx, *apt.ProspectEmail, name, apt.Title, apt.StartTime, reason)
}
