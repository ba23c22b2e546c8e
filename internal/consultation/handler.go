package consultation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/greenplate/nutricoach/internal/identity"
)

// Handler exposes HTTP endpoints for consultations.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type scheduleRequest struct {
	ClientID    int64     `json:"client_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	DurationMin int       `json:"duration_min"`
	Notes       *string   `json:"notes"`
}

func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	caller := identity.FromContext(r.Context())
	c, err := h.svc.Schedule(r.Context(), *caller.UserID, req.ClientID, req.ScheduledAt, req.DurationMin, req.Notes)
	if err != nil {
		h.logger.Debugw("schedule rejected", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	rows, err := h.svc.ListForUser(r.Context(), *caller.UserID, limit, offset)
	if err != nil {
		h.logger.Warnw("list consultations failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
		return
	}
	if rows == nil {
		rows = []*Consultation{}
	}
	h.writeJSON(w, http.StatusOK, rows)
}

type statusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.svc.SetStatus(r.Context(), id, req.Status, req.Notes); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		case errors.Is(err, ErrBadTransition):
			h.writeJSON(w, http.StatusConflict, map[string]string{"error": "invalid status change"})
		default:
			h.logger.Warnw("status change failed", "id", id, "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "update failed"})
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rescheduleRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	DurationMin int        `json:"duration_min"`
}

func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.svc.Reschedule(r.Context(), id, req.ScheduledAt, req.DurationMin); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
