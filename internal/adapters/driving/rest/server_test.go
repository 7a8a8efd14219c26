package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gsuite-cli/internal/adapters/driven/config"
	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
)

// fakeProvider is a canned token provider for gateway tests.
type fakeProvider struct {
	token string
	err   error
}

func (f *fakeProvider) GetToken(context.Context) (string, error) {
	return f.token, f.err
}

func (f *fakeProvider) IsAuthenticated(context.Context) bool {
	return f.err == nil
}

func newTestServer(provider *fakeProvider, apiKey string) *Server {
	settings := config.Defaults()
	settings.APIKey = apiKey
	settings.Version = "test"
	return NewServer(&settings, provider, Clients{})
}

func doRequest(t *testing.T, s *Server, method, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeProvider{token: "tok"}, "")

	rec := doRequest(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestHealthSkipsAPIKeyGate(t *testing.T) {
	s := newTestServer(&fakeProvider{token: "tok"}, "secret")

	rec := doRequest(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyGate(t *testing.T) {
	s := newTestServer(&fakeProvider{token: "tok"}, "secret")

	rec := doRequest(t, s, http.MethodGet, "/auth/status", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid api key", decodeJSON(t, rec)["error"])

	rec = doRequest(t, s, http.MethodGet, "/auth/status", map[string]string{apiKeyHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/auth/status", map[string]string{apiKeyHeader: "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthStatus(t *testing.T) {
	s := newTestServer(&fakeProvider{token: "tok"}, "")
	rec := doRequest(t, s, http.MethodGet, "/auth/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeJSON(t, rec)["authenticated"])

	s = newTestServer(&fakeProvider{err: &domain.NotAuthenticatedError{}}, "")
	rec = doRequest(t, s, http.MethodGet, "/auth/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeJSON(t, rec)["authenticated"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(&fakeProvider{token: "tok"}, "")

	doRequest(t, s, http.MethodGet, "/health", nil)
	rec := doRequest(t, s, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gsuite_gateway_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/health"`)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(&fakeProvider{token: "tok"}, "")
	rec := doRequest(t, s, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthGateBlocksUnauthenticated(t *testing.T) {
	handler := authGate(&fakeProvider{err: &domain.NotAuthenticatedError{}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
	req := httptest.NewRequest(http.MethodGet, "/gmail/profile", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "not authenticated", decodeJSON(t, rec)["error"])
}

func TestAuthGateExpiredToken(t *testing.T) {
	handler := authGate(&fakeProvider{err: &domain.TokenRefreshError{Cause: errors.New("revoked")}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
	req := httptest.NewRequest(http.MethodGet, "/gmail/profile", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "token expired, re-authenticate", body["error"])
}

func TestAuthGatePassesThrough(t *testing.T) {
	called := false
	handler := authGate(&fakeProvider{token: "tok"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecovererConvertsPanics(t *testing.T) {
	handler := recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
