package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/greenplate/nutricoach/internal/identity"
	"github.com/greenplate/nutricoach/internal/user/entity"
)

// Handler exposes HTTP endpoints for account operations (signup / login / me).
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// SignupRequest request body for signup endpoint.
type SignupRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// UserResponse is the public projection of a user row.
type UserResponse struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func toResponse(u *entity.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Role: u.Role.String(), FirstName: u.FirstName, LastName: u.LastName}
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid signup payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	u, err := h.svc.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			h.writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
			return
		}
		h.logger.Warnw("signup failed", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusCreated, toResponse(u))
}

// LoginRequest login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the self-issued token and the account it belongs to.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	token, u, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		h.logger.Warnw("login failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: toResponse(u)})
}

// Me returns the resolved caller's own account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id := identity.FromContext(r.Context())
	if !id.Authenticated() {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	u, err := h.svc.Get(r.Context(), *id.UserID)
	if err != nil {
		h.logger.Warnw("me lookup failed", "user_id", *id.UserID, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, toResponse(u))
}

// SetRoleRequest is the admin payload for role assignment.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// SetRole assigns a role to a user; mounted behind an admin-tier gate.
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var req SetRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	role, err := identity.ParseRole(req.Role)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown role"})
		return
	}
	if err := h.svc.SetRole(r.Context(), id, role); err != nil {
		h.logger.Warnw("set role failed", "user_id", id, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "update failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
