package appointments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/coachdesk/coaching-platform/internal/rooms"
	"github.com/coachdesk/coaching-platform/pkg/logging"
)

var accessTracer = otel.Tracer("coachdesk.internal.appointments.access")

type appointmentReader interface {
	Get(ctx context.Context, id uuid.UUID) (*Appointment, error)
}

type tokenIssuer interface {
	CreateMeetingToken(ctx context.Context, roomName, displayName string, isOwner bool) (string, error)
}

// AccessIssuer mints join URLs for video appointments. The coach gets an
// owner token with recording rights; everyone else joins as a participant.
// Verifying that the requester actually belongs to the appointment is the
// caller's responsibility.
type AccessIssuer struct {
	store    appointmentReader
	provider tokenIssuer
	logger   *logging.Logger
}

// NewAccessIssuer wires the issuer.
func NewAccessIssuer(store appointmentReader, provider tokenIssuer, logger *logging.Logger) *AccessIssuer {
	return &AccessIssuer{store: store, provider: provider, logger: logger}
}

// IssueJoinURL returns a tokenized URL for joining the appointment's room.
func (i *AccessIssuer) IssueJoinURL(ctx context.Context, appointmentID, requesterID uuid.UUID, displayName string) (string, error) {
	ctx, span := accessTracer.Start(ctx, "appointments.issue_join_url")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", appointmentID.String()))

	apt, err := i.store.Get(ctx, appointmentID)
	if err != nil {
		return "", err
	}
	if !apt.HasRoom() || apt.MeetingURL == nil {
		return "", ErrNoRoom
	}

	if i.provider == nil {
		return "", rooms.ErrNotConfigured
	}

	isOwner := requesterID == apt.CoachID
	token, err := i.provider.CreateMeetingToken(ctx, *apt.RoomName, displayName, isOwner)
	if err != nil {
		return "", fmt.Errorf("mint join token: %w", err)
	}

	i.logger.Info("issued join credential",
		"appointment_id", apt.ID, "room", *apt.RoomName, "owner", isOwner)
	return rooms.JoinURL(*apt.MeetingURL, token), nil
}
