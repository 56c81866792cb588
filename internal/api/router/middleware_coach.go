package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coachdesk/coaching-platform/internal/tenancy"
)

// requireCoachID validates the coach path segment and stores it in context
// for downstream logging and auditing.
func requireCoachID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(chi.URLParam(r, "coachID"))
		if _, err := uuid.Parse(raw); err != nil {
			http.Error(w, "invalid coach id", http.StatusBadRequest)
			return
		}
		ctx := tenancy.WithCoachID(r.Context(), raw)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
