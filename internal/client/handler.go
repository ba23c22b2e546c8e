package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/greenplate/nutricoach/internal/identity"
)

// Handler exposes HTTP endpoints for a dietitian's client roster.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type addRequest struct {
	ClientID int64   `json:"client_id"`
	Notes    *string `json:"notes"`
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	caller := identity.FromContext(r.Context())
	l, err := h.svc.Add(r.Context(), *caller.UserID, req.ClientID, req.Notes)
	if err != nil {
		if errors.Is(err, ErrAlreadyLinked) {
			h.writeJSON(w, http.StatusConflict, map[string]string{"error": "client already linked"})
			return
		}
		h.logger.Warnw("add client failed", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusCreated, l)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	links, err := h.svc.List(r.Context(), *caller.UserID, r.URL.Query().Get("status"))
	if err != nil {
		h.logger.Warnw("list clients failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
		return
	}
	if links == nil {
		links = []*Link{}
	}
	h.writeJSON(w, http.StatusOK, links)
}

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.svc.Archive(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		h.logger.Warnw("archive link failed", "id", id, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "archive failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
