package rooms

import (
	"context"
	"time"
)

// Room is a named video-conferencing room hosted by the external provider.
// Rooms expire on their own TTL; the appointment record only references them
// by name and URL.
type Room struct {
	Name      string
	URL       string
	ExpiresAt time.Time
}

// RoomConfig controls how a room is created.
type RoomConfig struct {
	MaxParticipants    int
	RecordingEnabled   bool
	WaitingRoomEnabled bool
	Language           string
}

// DefaultRoomConfig matches the coach/client one-on-one call setup.
func DefaultRoomConfig(language string) RoomConfig {
	if language == "" {
		language = "en"
	}
	return RoomConfig{
		MaxParticipants:    2,
		RecordingEnabled:   true,
		WaitingRoomEnabled: true,
		Language:           language,
	}
}

// Provider is the narrow room-lifecycle contract the scheduler depends on.
// Implementations must treat deletion of an absent room as a no-op.
type Provider interface {
	CreateRoom(ctx context.Context, name string, ttl time.Duration, cfg RoomConfig) (*Room, error)
	GetRoom(ctx context.Context, name string) (*Room, error)
	DeleteRoom(ctx context.Context, name string) error
	CreateMeetingToken(ctx context.Context, roomName, displayName string, isOwner bool) (string, error)
}

// JoinURL composes the final joinable URL from a room URL and a meeting token.
func JoinURL(roomURL, token string) string {
	if token == "" {
		return roomURL
	}
	return roomURL + "?token=" + token
}
