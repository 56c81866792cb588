package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/coachdesk/coaching-platform/pkg/logging"
)

// Service sends booking lifecycle emails to prospects. Clients with
// accounts see their calendar in the app, so only prospect bookings email.
// Sends are best-effort: failures are logged and never bubble up into the
// booking flow.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service. email may be nil, which turns
// every send into a no-op.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// BookingConfirmed emails a prospect their booking details.
func (s *Service) BookingConfirmed(ctx context.Context, email, name, title string, start, end time.Time, joinURL string) {
	if s.email == nil || email == "" {
		return
	}
	if name == "" {
		name = "there"
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nYour session %q is confirmed for %s (%s).\n",
		name, title,
		start.Format("Monday, January 2 at 3:04 PM"),
		formatLength(end.Sub(start)),
	)
	if joinURL != "" {
		body += fmt.Sprintf("\nJoin the video call here: %s\n", joinURL)
	}
	body += "\nSee you then!\nCoachdesk"

	msg := EmailMessage{
		To:      email,
		ToName:  name,
		Subject: fmt.Sprintf("Confirmed: %s", title),
		Body:    body,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("booking confirmation email failed", "error", err, "to", email)
	}
}

// BookingCancelled emails a prospect that their session was called off.
func (s *Service) BookingCancelled(ctx context.Context, email, name, title string, start time.Time, reason string) {
	if s.email == nil || email == "" {
		return
	}
	if name == "" {
		name = "there"
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nYour session %q on %s has been cancelled.\n",
		name, title, start.Format("Monday, January 2 at 3:04 PM"),
	)
	if reason != "" {
		body += fmt.Sprintf("\nReason: %s\n", reason)
	}
	body += "\nYou can book a new time whenever suits you.\nCoachdesk"

	msg := EmailMessage{
		To:      email,
		ToName:  name,
		Subject: fmt.Sprintf("Cancelled: %s", title),
		Body:    body,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("booking cancellation email failed", "error", err, "to", email)
	}
}

func formatLength(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes%60 == 0 {
		hours := minutes / 60
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d minutes", minutes)
}
