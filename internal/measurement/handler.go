package measurement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/greenplate/nutricoach/internal/identity"
)

// Handler exposes HTTP endpoints for client measurements.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type recordRequest struct {
	ClientID int64           `json:"client_id"`
	TakenAt  *time.Time      `json:"taken_at"`
	WeightKg *float64        `json:"weight_kg"`
	Metrics  json.RawMessage `json:"metrics"`
}

func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	caller := identity.FromContext(r.Context())
	// clients record for themselves, coaching roles record for their clients
	if *caller.Role == identity.RoleClient {
		req.ClientID = *caller.UserID
	}
	m := &Measurement{ClientID: req.ClientID, WeightKg: req.WeightKg, Metrics: req.Metrics}
	if req.TakenAt != nil {
		m.TakenAt = *req.TakenAt
	}
	created, err := h.svc.Record(r.Context(), m)
	if err != nil {
		h.logger.Debugw("record measurement rejected", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	clientID, err := strconv.ParseInt(r.PathValue("clientID"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid client id"})
		return
	}
	caller := identity.FromContext(r.Context())
	if *caller.Role == identity.RoleClient && *caller.UserID != clientID {
		h.writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	rows, err := h.svc.History(r.Context(), clientID, limit, offset)
	if err != nil {
		h.logger.Warnw("measurement history failed", "client_id", clientID, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
		return
	}
	if rows == nil {
		rows = []*Measurement{}
	}
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		h.logger.Warnw("delete measurement failed", "id", id, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "delete failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
