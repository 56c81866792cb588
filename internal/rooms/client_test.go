package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "test-key"}, nil)
}

func TestCreateRoomSendsPrivateRoomWithExpiry(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/rooms", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		exp := time.Now().Add(90 * time.Minute).Unix()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":       "coachdesk-abc",
			"url":        "https://rooms.example.com/coachdesk-abc",
			"privacy":    "private",
			"properties": map[string]any{"exp": exp},
		})
	})

	room, err := client.CreateRoom(context.Background(), "coachdesk-abc", 90*time.Minute, DefaultRoomConfig("en"))
	require.NoError(t, err)
	require.Equal(t, "coachdesk-abc", room.Name)
	require.Equal(t, "https://rooms.example.com/coachdesk-abc", room.URL)
	require.False(t, room.ExpiresAt.IsZero())

	require.Equal(t, "private", got["privacy"])
	props, ok := got["properties"].(map[string]any)
	require.True(t, ok)
	require.EqualValues(t, 2, props["max_participants"])
	require.Equal(t, true, props["enable_knocking"])
	require.Equal(t, true, props["eject_at_room_exp"])
	require.Equal(t, "cloud", props["enable_recording"])
	require.NotZero(t, props["exp"])
}

func TestGetRoomNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetRoom(context.Background(), "gone")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestDeleteRoomAbsentIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	require.NoError(t, client.DeleteRoom(context.Background(), "already-gone"))
}

func TestDeleteRoomPropagatesServerErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	require.Error(t, client.DeleteRoom(context.Background(), "broken"))
}

func TestCreateMeetingTokenOwnerGetsRecording(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/meeting-tokens", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	})

	token, err := client.CreateMeetingToken(context.Background(), "coachdesk-abc", "Coach Kim", true)
	require.NoError(t, err)
	require.Equal(t, "tok-1", token)

	props, ok := got["properties"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, true, props["is_owner"])
	require.Equal(t, "cloud", props["enable_recording"])
}

func TestCreateMeetingTokenParticipantHasNoRecording(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-2"})
	})

	_, err := client.CreateMeetingToken(context.Background(), "coachdesk-abc", "Client Lee", false)
	require.NoError(t, err)

	props := got["properties"].(map[string]any)
	require.Equal(t, false, props["is_owner"])
	_, hasRecording := props["enable_recording"]
	require.False(t, hasRecording)
}

func TestClientWithoutKeyIsNotConfigured(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "https://unused.example.com"}, nil)
	_, err := client.CreateRoom(context.Background(), "x", time.Hour, DefaultRoomConfig(""))
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestJoinURL(t *testing.T) {
	url := JoinURL("https://rooms.example.com/r1", "tok")
	if url != "https://rooms.example.com/r1?token=tok" {
		t.Fatalf("unexpected join url: %s", url)
	}
	if JoinURL("https://rooms.example.com/r1", "") != "https://rooms.example.com/r1" {
		t.Fatalf("empty token should return bare url")
	}
}
