package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func corsHandler(origins []string) http.Handler {
	return CORS(origins)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/slots", nil)
	req.Header.Set("Origin", "https://app.coachdesk.example")
	rec := httptest.NewRecorder()

	corsHandler([]string{"https://app.coachdesk.example"}).ServeHTTP(rec, req)
	require.Equal(t, "https://app.coachdesk.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSIgnoresUnlistedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/slots", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()

	corsHandler([]string{"https://app.coachdesk.example"}).ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardEchoesOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/slots", nil)
	req.Header.Set("Origin", "https://anything.example")
	rec := httptest.NewRecorder()

	corsHandler([]string{"*"}).ServeHTTP(rec, req)
	require.Equal(t, "https://anything.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/slots", nil)
	req.Header.Set("Origin", "https://app.coachdesk.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	corsHandler([]string{"https://app.coachdesk.example"}).ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
