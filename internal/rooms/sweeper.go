package rooms

import (
	"context"
	"time"

	"github.com/coachdesk/coaching-platform/pkg/logging"
)

// lister is the slice of the provider API the sweeper needs.
type lister interface {
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, name string) error
}

// Sweeper periodically removes rooms whose expiry has passed. Cancellation
// already deletes rooms best-effort; the sweeper reconciles the ones that
// slipped through a failed delete.
type Sweeper struct {
	provider lister
	interval time.Duration
	now      func() time.Time
	logger   *logging.Logger
}

// NewSweeper creates a sweeper over the given provider.
func NewSweeper(provider lister, interval time.Duration, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		provider: provider,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// Run sweeps on a ticker until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.SweepOnce(ctx)
			if err != nil {
				s.logger.Warn("room sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				s.logger.Info("expired rooms swept", "deleted", deleted)
			}
		}
	}
}

// SweepOnce deletes every room whose expiry is in the past and reports how
// many were removed. Individual delete failures are logged and skipped.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	list, err := s.provider.ListRooms(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	deleted := 0
	for _, room := range list {
		if room.ExpiresAt.IsZero() || room.ExpiresAt.After(now) {
			continue
		}
		if err := s.provider.DeleteRoom(ctx, room.Name); err != nil {
			s.logger.Warn("failed to delete expired room", "room_name", room.Name, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}
