package rooms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/coachdesk/coaching-platform/pkg/logging"
)

var clientTracer trace.Tracer = otel.Tracer("coachdesk.internal.rooms.client")

const defaultTimeout = 5 * time.Second

// Client talks to a Daily-style room REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// ClientConfig holds configuration for the room API client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a room API client. Calls carry a bounded timeout so a
// slow provider degrades the booking flow instead of hanging it.
func NewClient(cfg ClientConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type roomProperties struct {
	StartVideoOff     bool   `json:"start_video_off"`
	StartAudioOff     bool   `json:"start_audio_off"`
	EnableChat        bool   `json:"enable_chat"`
	EnableScreenshare bool   `json:"enable_screenshare"`
	EnableRecording   string `json:"enable_recording,omitempty"`
	MaxParticipants   int    `json:"max_participants,omitempty"`
	EnableKnocking    bool   `json:"enable_knocking"`
	EnablePrejoinUI   bool   `json:"enable_prejoin_ui"`
	Exp               int64  `json:"exp,omitempty"`
	EjectAtRoomExp    bool   `json:"eject_at_room_exp"`
	Lang              string `json:"lang,omitempty"`
}

type roomPayload struct {
	Name       string          `json:"name"`
	URL        string          `json:"url"`
	Privacy    string          `json:"privacy,omitempty"`
	Properties *roomProperties `json:"properties,omitempty"`
	Config     *roomProperties `json:"config,omitempty"`
}

func (p roomPayload) expiresAt() time.Time {
	props := p.Properties
	if props == nil {
		props = p.Config
	}
	if props == nil || props.Exp == 0 {
		return time.Time{}
	}
	return time.Unix(props.Exp, 0).UTC()
}

// CreateRoom creates a private room that expires ttl from now.
func (c *Client) CreateRoom(ctx context.Context, name string, ttl time.Duration, cfg RoomConfig) (*Room, error) {
	ctx, span := clientTracer.Start(ctx, "rooms.create")
	defer span.End()
	span.SetAttributes(attribute.String("coachdesk.room_name", name))

	if strings.TrimSpace(c.apiKey) == "" {
		return nil, ErrNotConfigured
	}

	recording := ""
	if cfg.RecordingEnabled {
		recording = "cloud"
	}
	body := map[string]any{
		"name":    name,
		"privacy": "private",
		"properties": roomProperties{
			EnableChat:        true,
			EnableScreenshare: true,
			EnableRecording:   recording,
			MaxParticipants:   cfg.MaxParticipants,
			EnableKnocking:    cfg.WaitingRoomEnabled,
			EnablePrejoinUI:   cfg.WaitingRoomEnabled,
			Exp:               time.Now().Add(ttl).Unix(),
			EjectAtRoomExp:    true,
			Lang:              cfg.Language,
		},
	}

	var out roomPayload
	if err := c.do(ctx, http.MethodPost, "/rooms", body, &out); err != nil {
		return nil, err
	}
	c.logger.Info("room created", "room_name", out.Name, "expires_at", out.expiresAt())
	return &Room{Name: out.Name, URL: out.URL, ExpiresAt: out.expiresAt()}, nil
}

// GetRoom fetches a room by name. Returns ErrRoomNotFound when absent or expired.
func (c *Client) GetRoom(ctx context.Context, name string) (*Room, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, ErrNotConfigured
	}
	var out roomPayload
	if err := c.do(ctx, http.MethodGet, "/rooms/"+name, nil, &out); err != nil {
		return nil, err
	}
	return &Room{Name: out.Name, URL: out.URL, ExpiresAt: out.expiresAt()}, nil
}

// DeleteRoom removes a room. Deleting an absent room is not an error: the
// provider expires rooms on its own, so the room may already be gone.
func (c *Client) DeleteRoom(ctx context.Context, name string) error {
	ctx, span := clientTracer.Start(ctx, "rooms.delete")
	defer span.End()
	span.SetAttributes(attribute.String("coachdesk.room_name", name))

	if strings.TrimSpace(c.apiKey) == "" {
		return ErrNotConfigured
	}
	err := c.do(ctx, http.MethodDelete, "/rooms/"+name, nil, nil)
	if err == ErrRoomNotFound {
		return nil
	}
	return err
}

// CreateMeetingToken mints a scoped join token. Only owners are granted
// recording rights.
func (c *Client) CreateMeetingToken(ctx context.Context, roomName, displayName string, isOwner bool) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", ErrNotConfigured
	}

	props := map[string]any{
		"room_name": roomName,
		"user_name": displayName,
		"is_owner":  isOwner,
	}
	if isOwner {
		props["enable_recording"] = "cloud"
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/meeting-tokens", map[string]any{"properties": props}, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("rooms: provider returned empty token")
	}
	return out.Token, nil
}

// ListRooms returns all rooms known to the provider.
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, ErrNotConfigured
	}
	var out struct {
		Data []roomPayload `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/rooms", nil, &out); err != nil {
		return nil, err
	}
	list := make([]Room, 0, len(out.Data))
	for _, p := range out.Data {
		list = append(list, Room{Name: p.Name, URL: p.URL, ExpiresAt: p.expiresAt()})
	}
	return list, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("rooms: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("rooms: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rooms: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("rooms: read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrRoomNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return fmt.Errorf("rooms: status %d: %s", resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("rooms: unmarshal response: %w", err)
	}
	return nil
}
