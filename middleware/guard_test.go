package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goCred "github.com/MrEthical07/goCred"
	"github.com/MrEthical07/goCred/internal/httpjson"
)

type stubResolver struct {
	identity *goCred.Identity
	err      error
	calls    int
	got      string
}

func (s *stubResolver) Resolve(_ context.Context, credential string) (*goCred.Identity, error) {
	s.calls++
	s.got = credential
	return s.identity, s.err
}

type captured struct {
	ran        bool
	identity   *goCred.Identity
	credential string
}

func captureHandler(c *captured) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.ran = true
		c.identity, _ = IdentityFromContext(r.Context())
		c.credential, _ = CredentialFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpjson.ErrorBody {
	t.Helper()
	var body httpjson.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticateAbsentHeaderIsAnonymous(t *testing.T) {
	resolver := &stubResolver{}
	var c captured

	rec := httptest.NewRecorder()
	Authenticate(resolver)(captureHandler(&c)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, c.ran)
	assert.Nil(t, c.identity)
	assert.Zero(t, resolver.calls)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	for _, header := range []string{"Basic dXNlcjpwYXNz", "bearer abc", "Bearer ", "Bearerabc", "Token abc"} {
		t.Run(header, func(t *testing.T) {
			resolver := &stubResolver{}
			var c captured

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()
			Authenticate(resolver)(captureHandler(&c)).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, goCred.KindMalformedCredential, decodeError(t, rec).Kind)
			assert.False(t, c.ran)
			assert.Zero(t, resolver.calls)
		})
	}
}

func TestAuthenticateResolveFailure(t *testing.T) {
	resolver := &stubResolver{err: fmt.Errorf("%w: %w", goCred.ErrUnauthenticated, goCred.ErrTokenExpired)}
	var c captured

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	Authenticate(resolver)(captureHandler(&c)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, goCred.KindUnauthenticated, body.Kind)
	assert.Equal(t, "unauthenticated", body.Error)
	assert.False(t, c.ran)
	assert.Equal(t, "stale", resolver.got)
}

func TestAuthenticateBackendFailureIsInternal(t *testing.T) {
	resolver := &stubResolver{err: errors.New("redis: connection refused")}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer sid")
	rec := httptest.NewRecorder()
	Authenticate(resolver)(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, goCred.KindInternal, body.Kind)
	assert.NotContains(t, body.Error, "redis")
}

func TestAuthenticateSuccessStoresIdentity(t *testing.T) {
	want := &goCred.Identity{UserID: "u1", Email: "a@x.io", Name: "A"}
	resolver := &stubResolver{identity: want}
	var c captured

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	Authenticate(resolver)(captureHandler(&c)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Same(t, want, c.identity)
	assert.Equal(t, "good", c.credential)
}

func TestRequireIdentity(t *testing.T) {
	var c captured
	h := Authenticate(&stubResolver{})(RequireIdentity(captureHandler(&c)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, goCred.KindUnauthenticated, decodeError(t, rec).Kind)
	assert.False(t, c.ran)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), &goCred.Identity{UserID: "u1"}, "tok"))
	rec = httptest.NewRecorder()
	RequireIdentity(captureHandler(&c)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, c.ran)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "10.0.0.7", clientIP(req, ""))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "10.0.0.7", clientIP(req, ""))
	assert.Equal(t, "203.0.113.9", clientIP(req, "X-Forwarded-For"))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientIP(req, ""))
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	_, ok = bearerToken("Bearer ")
	assert.False(t, ok)
}
