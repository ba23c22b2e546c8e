package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withIdentity injects a pre-resolved identity ahead of the gate under test.
func withIdentity(id RequestIdentity, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func identityOfUser(userID int64, role Role) RequestIdentity {
	return RequestIdentity{UserID: &userID, Role: &role, Source: SourceToken}
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func TestRequireRoles_PassThrough(t *testing.T) {
	executed := false
	var seenUserID int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		executed = true
		seenUserID = *FromContext(r.Context()).UserID
		w.WriteHeader(http.StatusOK)
	})

	h := withIdentity(identityOfUser(42, RoleDietitianTeam), RequireRoles(RoleDietitianTeam)(handler))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/gated", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, executed)
	assert.Equal(t, int64(42), seenUserID)
}

func TestRequireRoles_ForbiddenForWrongRole(t *testing.T) {
	executed := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { executed = true })

	h := withIdentity(identityOfUser(42, RoleDietitianTeam), RequireRoles(RoleAdmin, RoleSuperadmin)(handler))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/gated", nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "forbidden", errorBody(t, rr))
	assert.False(t, executed, "wrapped operation must not run")
}

func TestRequireRoles_UnauthenticatedWithoutIdentity(t *testing.T) {
	executed := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { executed = true })

	// no resolver ran at all: context carries the anonymous identity
	h := RequireRoles(RoleClient)(handler)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/gated", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "unauthenticated", errorBody(t, rr))
	assert.False(t, executed)
}

func TestRequireAuthenticated(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	rr := httptest.NewRecorder()
	RequireAuthenticated()(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	withIdentity(identityOfUser(7, RoleClient), RequireAuthenticated()(handler)).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

// The full chain: Authenticate resolves a bearer token, the gate admits it.
func TestAuthenticateThenGate(t *testing.T) {
	dir := newFakeDirectory()
	acc := dir.add(Account{ID: 42, Email: "team@example.com", Role: RoleDietitianTeam})
	resolver, codec := newTestResolver(dir, nil)

	var resolved RequestIdentity
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	chain := Authenticate(resolver, NoSession{})(RequireRoles(RoleDietitianTeam)(handler))

	raw, err := codec.Mint(acc.ID, acc.Email, acc.Role)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/gated", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(42), *resolved.UserID)
	assert.Equal(t, SourceToken, resolved.Source)
}

func TestAuthenticateThenGate_NoCredentials(t *testing.T) {
	resolver, _ := newTestResolver(newFakeDirectory(), nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	chain := Authenticate(resolver, NoSession{})(RequireRoles(RoleClient)(handler))

	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/gated", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBearerToken(t *testing.T) {
	mk := func(v string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if v != "" {
			r.Header.Set("Authorization", v)
		}
		return r
	}
	assert.Equal(t, "abc", bearerToken(mk("Bearer abc")))
	assert.Equal(t, "abc", bearerToken(mk("bearer abc")))
	assert.Equal(t, "", bearerToken(mk("")))
	assert.Equal(t, "", bearerToken(mk("Basic abc")))
	assert.Equal(t, "", bearerToken(mk("Bearer")))
}

// expired token with no other credential: gate sees anonymous, not forbidden
func TestAuthenticateExpiredToken(t *testing.T) {
	dir := newFakeDirectory()
	acc := dir.add(Account{ID: 5, Email: "x@example.com", Role: RoleClient})
	resolver, _ := newTestResolver(dir, nil)

	expired := NewTokenCodec(TokenConfig{Secret: []byte("resolver-test"), TTL: -time.Minute})
	raw, err := expired.Mint(acc.ID, acc.Email, acc.Role)
	require.NoError(t, err)

	chain := Authenticate(resolver, NoSession{})(RequireRoles(RoleClient)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
	req := httptest.NewRequest(http.MethodGet, "/gated", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
