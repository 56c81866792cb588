package appointments

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

// Lifecycle is the scheduler surface the handler needs.
type Lifecycle interface {
	Create(ctx context.Context, params *CreateParams) (*Appointment, error)
	Update(ctx context.Context, coachID, id uuid.UUID, params *UpdateParams) (*Appointment, error)
	Cancel(ctx context.Context, coachID, id, cancelledBy uuid.UUID, reason string) (*Appointment, error)
	Complete(ctx context.Context, coachID, id uuid.UUID, notes *string) (*Appointment, error)
	MarkNoShow(ctx context.Context, coachID, id uuid.UUID, notes *string) (*Appointment, error)
	HardDelete(ctx context.Context, coachID, id uuid.UUID) error
}

// Reader is the query surface the handler needs.
type Reader interface {
	GetForCoach(ctx context.Context, coachID, id uuid.UUID) (*Appointment, error)
	ListForCoach(ctx context.Context, coachID uuid.UUID, filter Filter) ([]Appointment, error)
	ListForClient(ctx context.Context, clientID uuid.UUID, filter Filter) ([]Appointment, error)
}

// JoinIssuer mints join URLs.
type JoinIssuer interface {
	IssueJoinURL(ctx context.Context, appointmentID, requesterID uuid.UUID, displayName string) (string, error)
}

// Handler serves the appointment endpoints.
type Handler struct {
	scheduler Lifecycle
	reader    Reader
	access    JoinIssuer
	logger    *logging.Logger
}

// NewHandler wires the handler.
func NewHandler(scheduler Lifecycle, reader Reader, access JoinIssuer, logger *logging.Logger) *Handler {
	return &Handler{scheduler: scheduler, reader: reader, access: access, logger: logger}
}

// List handles GET /coaches/{coachID}/appointments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	coachID, ok := h.coachIDParam(w, r)
	if !ok {
		return
	}
	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := h.reader.ListForCoach(r.Context(), coachID, filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []Appointment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// ListForClient handles GET /clients/{clientID}/appointments.
func (h *Handler) ListForClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(chi.URLParam(r, "clientID"))
	if err != nil {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}
	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := h.reader.ListForClient(r.Context(), clientID, filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []Appointment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /coaches/{coachID}/appointments/{appointmentID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	coachID, id, ok := h.pathIDs(w, r)
	if !ok {
		return
	}
	apt, err := h.reader.GetForCoach(r.Context(), coachID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apt)
}

// Create handles POST /coaches/{coachID}/appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	coachID, ok := h.coachIDParam(w, r)
	if !ok {
		return
	}

	var params CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	params.CoachID = coachID

	apt, err := h.scheduler.Create(r.Context(), &params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, apt)
}

// Update handles PATCH /coaches/{coachID}/appointments/{appointmentID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	coachID, id, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var params UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	apt, err := h.scheduler.Update(r.Context(), coachID, id, &params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apt)
}

// Cancel handles POST /coaches/{coachID}/appointments/{appointmentID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	coachID, id, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var body struct {
		CancelledBy uuid.UUID `json:"cancelled_by"`
		Reason      string    `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.CancelledBy == uuid.Nil {
		body.CancelledBy = coachID
	}

	apt, err := h.scheduler.Cancel(r.Context(), coachID, id, body.CancelledBy, body.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apt)
}

// Complete handles POST /coaches/{coachID}/appointments/{appointmentID}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.scheduler.Complete)
}

// MarkNoShow handles POST /coaches/{coachID}/appointments/{appointmentID}/no-show.
func (h *Handler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.scheduler.MarkNoShow)
}

func (h *Handler) finish(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, coachID, id uuid.UUID, notes *string) (*Appointment, error)) {
	coachID, id, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var body struct {
		Notes *string `json:"notes"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	apt, err := op(r.Context(), coachID, id, body.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apt)
}

// Delete handles DELETE /coaches/{coachID}/appointments/{appointmentID}.
// Routed behind admin auth.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	coachID, id, ok := h.pathIDs(w, r)
	if !ok {
		return
	}
	if err := h.scheduler.HardDelete(r.Context(), coachID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// JoinCredential handles POST /coaches/{coachID}/appointments/{appointmentID}/join-credential.
func (h *Handler) JoinCredential(w http.ResponseWriter, r *http.Request) {
	_, id, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var body struct {
		RequesterID uuid.UUID `json:"requester_id"`
		DisplayName string    `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RequesterID == uuid.Nil {
		http.Error(w, "requester_id and display_name are required", http.StatusBadRequest)
		return
	}

	url, err := h.access.IssueJoinURL(r.Context(), id, body.RequesterID, body.DisplayName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func filterFromQuery(r *http.Request) (Filter, error) {
	var filter Filter
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		status := Status(s)
		if !status.Valid() {
			return filter, errors.New("unknown status filter")
		}
		filter.Status = status
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return filter, errors.New("from must be RFC 3339")
		}
		filter.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return filter, errors.New("to must be RFC 3339")
		}
		filter.To = t
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			return filter, errors.New("limit must be a positive integer")
		}
		filter.Limit = n
	}
	return filter, nil
}

func (h *Handler) coachIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "coachID"))
	if err != nil {
		http.Error(w, "invalid coach id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) pathIDs(w http.ResponseWriter, r *http.Request) (coachID, id uuid.UUID, ok bool) {
	coachID, ok = h.coachIDParam(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return coachID, id, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSlotTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNoRoom):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error("appointment request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
