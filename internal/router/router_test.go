package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/greenplate/nutricoach/internal/identity"
)

// testDeps wires the router without a live database. Routes exercised here
// are rejected by a gate (or answered statically) before any repo runs.
func testDeps() Deps {
	logger := zap.NewNop().Sugar()
	tokens := identity.NewTokenCodec(identity.TokenConfig{Secret: []byte("router-test"), TTL: time.Hour})
	resolver := identity.NewResolver(nil, nil, tokens, logger)
	return Deps{
		Logger:   logger,
		Resolver: resolver,
		Sessions: identity.NoSession{},
		Tokens:   tokens,
	}
}

func TestHealth(t *testing.T) {
	h := RegisterRoutes(testDeps())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nutricoach/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestGatedRoutesRejectAnonymous(t *testing.T) {
	h := RegisterRoutes(testDeps())

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/nutricoach/clients"},
		{http.MethodPost, "/nutricoach/consultations"},
		{http.MethodGet, "/nutricoach/auth/me"},
		{http.MethodPost, "/nutricoach/admin/users/1/role"},
		{http.MethodPost, "/nutricoach/recipes"},
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	h := RegisterRoutes(testDeps())

	req := httptest.NewRequest(http.MethodGet, "/nutricoach/health", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "caller-supplied", rr.Header().Get("X-Request-ID"))
}
