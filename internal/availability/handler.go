package availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coachdesk/coaching-platform/pkg/logging"
)

// WindowStore is the persistence surface the handler needs.
type WindowStore interface {
	Create(ctx context.Context, params *CreateWindowParams) (*Window, error)
	Update(ctx context.Context, id uuid.UUID, params *UpdateWindowParams) (*Window, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListForCoach(ctx context.Context, coachID uuid.UUID, activeOnly bool) ([]Window, error)
	Replace(ctx context.Context, coachID uuid.UUID, windows []CreateWindowParams) ([]Window, error)
}

// SlotComputer computes bookable slots.
type SlotComputer interface {
	Slots(ctx context.Context, coachID uuid.UUID, date time.Time, duration time.Duration) ([]TimeSlot, error)
	SlotsForRange(ctx context.Context, coachID uuid.UUID, from, to time.Time, duration time.Duration) ([]DaySlots, error)
}

// Handler handles HTTP requests for availability windows and slots.
type Handler struct {
	store  WindowStore
	slots  SlotComputer
	logger *logging.Logger
}

// NewHandler creates an availability handler.
func NewHandler(store WindowStore, slots SlotComputer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, slots: slots, logger: logger}
}

// GetSlots handles GET /coaches/{coachID}/slots?date=YYYY-MM-DD&duration=60
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	coachID, ok := coachIDParam(w, r)
	if !ok {
		return
	}

	date, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), time.UTC)
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	duration, ok := durationParam(w, r)
	if !ok {
		return
	}

	slots, err := h.slots.Slots(r.Context(), coachID, date, duration)
	if err != nil {
		h.logger.Error("failed to compute slots", "error", err, "coach_id", coachID)
		http.Error(w, "failed to compute slots", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date.Format("2006-01-02"),
		"slots": slots,
	})
}

// GetSlotsRange handles GET /coaches/{coachID}/slots/range?from=&to=&duration=
func (h *Handler) GetSlotsRange(w http.ResponseWriter, r *http.Request) {
	coachID, ok := coachIDParam(w, r)
	if !ok {
		return
	}

	from, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("from"), time.UTC)
	if err != nil {
		http.Error(w, "invalid from date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("to"), time.UTC)
	if err != nil || to.Before(from) {
		http.Error(w, "invalid to date, expected YYYY-MM-DD on or after from", http.StatusBadRequest)
		return
	}
	duration, ok := durationParam(w, r)
	if !ok {
		return
	}

	days, err := h.slots.SlotsForRange(r.Context(), coachID, from, to, duration)
	if err != nil {
		h.logger.Error("failed to compute slot range", "error", err, "coach_id", coachID)
		http.Error(w, "failed to compute slots", http.StatusInternalServerError)
		return
	}
	if days == nil {
		days = []DaySlots{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

// ListWindows handles GET /coaches/{coachID}/availability
func (h *Handler) ListWindows(w http.ResponseWriter, r *http.Request) {
	coachID, ok := coachIDParam(w, r)
	if !ok {
		return
	}
	activeOnly := r.URL.Query().Get("all") == ""

	windows, err := h.store.ListForCoach(r.Context(), coachID, activeOnly)
	if err != nil {
		h.logger.Error("failed to list windows", "error", err, "coach_id", coachID)
		http.Error(w, "failed to list availability", http.StatusInternalServerError)
		return
	}
	if windows == nil {
		windows = []Window{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"windows": windows})
}

// CreateWindow handles POST /coaches/{coachID}/availability
func (h *Handler) CreateWindow(w http.ResponseWriter, r *http.Request) {
	coachID, ok := coachIDParam(w, r)
	if !ok {
		return
	}

	var params CreateWindowParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	params.CoachID = coachID

	window, err := h.store.Create(r.Context(), &params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("availability window created", "id", window.ID, "coach_id", coachID, "day", window.DayOfWeek)
	writeJSON(w, http.StatusCreated, window)
}

// ReplaceWindows handles PUT /coaches/{coachID}/availability
func (h *Handler) ReplaceWindows(w http.ResponseWriter, r *http.Request) {
	coachID, ok := coachIDParam(w, r)
	if !ok {
		return
	}

	var body struct {
		Windows []CreateWindowParams `json:"windows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	windows, err := h.store.Replace(r.Context(), coachID, body.Windows)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if windows == nil {
		windows = []Window{}
	}

	h.logger.Info("availability replaced", "coach_id", coachID, "count", len(windows))
	writeJSON(w, http.StatusOK, map[string]any{"windows": windows})
}

// UpdateWindow handles PATCH /availability/{windowID}
func (h *Handler) UpdateWindow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "windowID"))
	if err != nil {
		http.Error(w, "invalid window id", http.StatusBadRequest)
		return
	}

	var params UpdateWindowParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	window, err := h.store.Update(r.Context(), id, &params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, window)
}

// DeleteWindow handles DELETE /availability/{windowID}
func (h *Handler) DeleteWindow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "windowID"))
	if err != nil {
		http.Error(w, "invalid window id", http.StatusBadRequest)
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrWindowNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidDay), errors.Is(err, ErrInvalidTimeRange), errors.Is(err, ErrInvalidClock):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("availability request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func coachIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "coachID"))
	if err != nil {
		http.Error(w, "invalid coach id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func durationParam(w http.ResponseWriter, r *http.Request) (time.Duration, bool) {
	minutes, err := strconv.Atoi(r.URL.Query().Get("duration"))
	if err != nil || minutes <= 0 || minutes > 24*60 {
		http.Error(w, "invalid duration, expected minutes > 0", http.StatusBadRequest)
		return 0, false
	}
	return time.Duration(minutes) * time.Minute, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
