package appointmenttypes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coachdesk/coaching-platform/pkg/logging"
)

// CatalogStore is the repository surface the handler needs.
type CatalogStore interface {
	CreateType(ctx context.Context, params *CreateTypeParams) (*AppointmentType, error)
	ListTypesForCoach(ctx context.Context, coachID uuid.UUID, activeOnly bool) ([]AppointmentType, error)
	UpdateType(ctx context.Context, coachID, typeID uuid.UUID, params *UpdateTypeParams) (*AppointmentType, error)
	DeleteType(ctx context.Context, coachID, typeID uuid.UUID) error
	CreateReason(ctx context.Context, params *CreateReasonParams) (*Reason, error)
	ListReasonsForCoach(ctx context.Context, coachID uuid.UUID, activeOnly bool) ([]Reason, error)
	UpdateReason(ctx context.Context, coachID, reasonID uuid.UUID, params *UpdateReasonParams) (*Reason, error)
	ReorderReasons(ctx context.Context, coachID uuid.UUID, orderedIDs []uuid.UUID) error
}

// CatalogCache serves cached catalog reads and drops entries on mutation.
type CatalogCache interface {
	Get(ctx context.Context, coachID uuid.UUID) (*CoachConfig, error)
	Invalidate(ctx context.Context, coachID uuid.UUID)
}

// Handler serves the booking catalog endpoints.
type Handler struct {
	store  CatalogStore
	cache  CatalogCache
	logger *logging.Logger
}

// NewHandler wires the catalog handler. cache may be nil.
func NewHandler(store CatalogStore, cache CatalogCache, logger *logging.Logger) *Handler {
	return &Handler{store: store, cache: cache, logger: logger}
}

// ListTypes handles GET /coaches/{coachID}/appointment-types.
func (h *Handler) ListTypes(w http.ResponseWriter, r *http.Request) {
	coachID, ok := h.coachIDParam(w, r)
	if !ok {
		return
	}
	all := r.URL.Query().Get("all") == "true"

	var types []AppointmentType
	var err error
	if !all && h.cache != nil {
		var cfg *CoachConfig
		cfg, err = h.cache.Get(r.Context(), coachID)
		if err == nil {
			types = cfg.Types
		}
	} else {
		types, err = h.store.ListTypesForCoach(r.Context(), coachID, !all)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if types == nil {
		types = []AppointmentType{}
	}
	writeJSON(w, http.StatusOK, types)
}

// CreateType handles POST /coaches/{coachID}/appointment-types.
func (h *Handler) CreateType(w http.ResponseWriter, r *http.Request) {
	coachID, ok := h.coachIDParam(w, r)
	if !ok {
		return
	}

	var params CreateTypeParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	params.CoachID = coachID

	created, err := h.store.CreateType(r.Context(), &params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.invalidate(r.Context(), coachID)
	writeJSON(w, http.StatusCreated, created)
}

// UpdateType handles PATCH /coaches/{coachID}/appointment-types/{typeID}.
func (h *Handler) UpdateType(w http.ResponseWriter, r *http.Request) {
	coachID, ok := h.coachIDParam(w, r)
	if !ok {
		return
	}
	typeID, err := uuid.Parse(chi.URLParam(r, "typeID"))
	if err != nil {
		http.Error(w, "invalid type id", http.StatusBadRequest)
		return
	}

	var params UpdateTypeParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.store.UpdateType(r.Context(), coachID, typeID, &params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.invalidate(r.Context(), coachID)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteType handles DELETE /coaches/{coachID}/appointment-types/{typeID}.
func (h *Handler) DeleteType(w http.ResponseWriter, r *http.Request) {
	coachID, ok := h.coachIDParam(w, r)
	if !ok {
		return
	}
	typeID, err := uuid.Parse(chi.URLParam(r, "typeID"))
	if err != nil {
		http.Error(w, "invalid type id", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteType(r.Context(), coachID, typeID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.invalidate(r.Context(), coachID)
	w.WriteHeader(http.StatusNoContent)
}

// ListReasons handles GET /coaches/{coachID}/appointment-reasons.
func (h *Handler) ListReasons(w http.ResponseWriter, r *http.Request) {
	coachID, ok := h.coachIDParam(w, r)
	if !ok {
		return
	}
	all := r.URL.Query().Get("all") == "true"

	var reasons []Reason
	var err error
	if !all && h.cache != nil {
		var cfg *CoachConfig
		cfg, err = h.cache.Get(r.Context(), coachID)
		if err == nil {
			reasons = cfg.Reasons
		}
	} else {
		reasons, err = h.store.ListReasonsForCoach(r.Context(), coachID, !all)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if reasons == nil {
		reasons = []Reason{}
	}
	writeJSON(w, http.StatusOK, reasons)
}

// CreateReason handles POST /coaches/{coachID}/appointment-reasons.
func (h *Handler) CreateReason(w http.ResponseWriter, r *http.Request) {
	coachID, ok := h.coachIDParam(w, r)
	if !ok {
		return
	}

	var params CreateReasonParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	params.CoachID = coachID

	created, err := h.store.CreateReason(r.Context(), &params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.invalidate(r.Context(), coachID)
	writeJSON(w, http.StatusCreated, created)
}

// UpdateReason handles PATCH /coaches/{coachID}/appointment-reasons/{reasonID}.
func (h *Handler) UpdateReason(w http.ResponseWriter, r *http.Request) {
	coachID, ok := h.coachIDParam(w, r)
	if !ok {
		return
	}
	reasonID, err := uuid.Parse(chi.URLParam(r, "reasonID"))
	if err != nil {
		http.Error(w, "invalid reason id", http.StatusBadRequest)
		return
	}

	var params UpdateReasonParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.store.UpdateReason(r.Context(), coachID, reasonID, &params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.invalidate(r.Context(), coachID)
	writeJSON(w, http.StatusOK, updated)
}

// ReorderReasons handles PUT /coaches/{coachID}/appointment-reasons/order.
func (h *Handler) ReorderReasons(w http.ResponseWriter, r *http.Request) {
	coachID, ok := h.coachIDParam(w, r)
	if !ok {
		return
	}

	var body struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.IDs) == 0 {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.store.ReorderReasons(r.Context(), coachID, body.IDs); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.invalidate(r.Context(), coachID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) invalidate(ctx context.Context, coachID uuid.UUID) {
	if h.cache != nil {
		h.cache.Invalidate(ctx, coachID)
	}
}

func (h *Handler) coachIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "coachID"))
	if err != nil {
		http.Error(w, "invalid coach id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTypeNotFound), errors.Is(err, ErrReasonNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrMissingName), errors.Is(err, ErrMissingLabel), errors.Is(err, ErrInvalidDuration):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("catalog request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
