package identity

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// SessionVerifier checks for a verified external-provider session on the
// request and returns its subject id. ok is false when no session is present
// or verification fails; the distinction is opaque to the resolver.
type SessionVerifier interface {
	VerifySession(r *http.Request) (subject string, ok bool)
}

// NoSession is a SessionVerifier for deployments without an external
// provider configured.
type NoSession struct{}

func (NoSession) VerifySession(*http.Request) (string, bool) { return "", false }

// bearerToken extracts the raw token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Authenticate returns a middleware that resolves the caller's identity once
// per request and attaches it to the context. It never rejects a request on
// its own: downstream gates decide whether anonymous is acceptable.
func Authenticate(resolver *Resolver, sessions SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := ""
			if s, ok := sessions.VerifySession(r); ok {
				subject = s
			}
			id := resolver.Resolve(r.Context(), bearerToken(r), subject)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRoles returns a middleware gating a route to the given allow-list.
// A request with no resolved role is rejected 401 (unauthenticated); one
// with a role outside the list is rejected 403 (forbidden). The wrapped
// handler never runs in either case.
func RequireRoles(allowed ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			if !id.Authenticated() {
				writeAuthError(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
				return
			}
			if !id.Role.In(allowed) {
				writeAuthError(w, http.StatusForbidden, ErrForbidden.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated gates a route to any resolved identity regardless of role.
func RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !FromContext(r.Context()).Authenticated() {
				writeAuthError(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
