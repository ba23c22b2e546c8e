package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/greenplate/nutricoach/internal/identity"
)

// Handler exposes HTTP endpoints for the recipe/blog catalog. Reads are
// public; writes are mounted behind editor-tier role gates by the router.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type recipeRequest struct {
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Nutrition json.RawMessage `json:"nutrition"`
	Published bool            `json:"published"`
}

func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	caller := identity.FromContext(r.Context())
	rec, err := h.svc.CreateRecipe(r.Context(), *caller.UserID, req.Title, req.Body, req.Nutrition, req.Published)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.GetRecipe(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		h.logger.Warnw("get recipe failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
		return
	}
	// unpublished recipes are invisible to anonymous and client callers
	caller := identity.FromContext(r.Context())
	if !rec.Published && (!caller.Authenticated() || *caller.Role == identity.RoleClient) {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	includeUnpublished := caller.Authenticated() && *caller.Role != identity.RoleClient
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	rows, err := h.svc.ListRecipes(r.Context(), includeUnpublished, limit, offset)
	if err != nil {
		h.logger.Warnw("list recipes failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
		return
	}
	if rows == nil {
		rows = []*Recipe{}
	}
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	slug := r.PathValue("slug")
	if err := h.svc.UpdateRecipe(r.Context(), slug, req.Title, req.Body, req.Nutrition, req.Published); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteRecipe(r.Context(), r.PathValue("slug")); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		h.logger.Warnw("delete recipe failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "delete failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type postRequest struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Publish bool   `json:"publish"`
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	caller := identity.FromContext(r.Context())
	p, err := h.svc.CreatePost(r.Context(), *caller.UserID, req.Title, req.Body, req.Publish)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPost(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		h.logger.Warnw("get post failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
		return
	}
	caller := identity.FromContext(r.Context())
	if p.PublishedAt == nil && (!caller.Authenticated() || *caller.Role == identity.RoleClient) {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	includeDrafts := caller.Authenticated() && *caller.Role != identity.RoleClient
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	rows, err := h.svc.ListPosts(r.Context(), includeDrafts, limit, offset)
	if err != nil {
		h.logger.Warnw("list posts failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
		return
	}
	if rows == nil {
		rows = []*Post{}
	}
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePost(r.Context(), r.PathValue("slug")); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		h.logger.Warnw("delete post failed", "err", err)
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
