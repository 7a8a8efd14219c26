package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/gsuite-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
)

// fakeTokenEndpoint fakes the OAuth token endpoint for refresh grants.
type fakeTokenEndpoint struct {
	accessToken  string
	refreshToken string
	failWith     int
	calls        int
}

func (f *fakeTokenEndpoint) server(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls++
		if f.failWith != 0 {
			w.WriteHeader(f.failWith)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  f.accessToken,
			"refresh_token": f.refreshToken,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeCredentialsFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "credentials.json")
	content := `{
  "installed": {
    "client_id": "client-id.apps.googleusercontent.com",
    "client_secret": "client-secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// seedSession puts the manager into a known in-memory session state
// without going through the store.
func seedSession(m *Manager, tokenURI string, expiry time.Time, refreshToken string) {
	m.record = &domain.TokenRecord{
		Token:        "old-access-token",
		RefreshToken: refreshToken,
		TokenURI:     tokenURI,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scopes:       domain.DefaultScopes(),
	}
	m.token = &oauth2.Token{
		AccessToken:  "old-access-token",
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		Expiry:       expiry,
	}
	m.loaded = true
}

func flowReturning(token *oauth2.Token, calls *int) FlowFunc {
	return func(_ context.Context, _ *oauth2.Config) (*oauth2.Token, error) {
		*calls++
		return token, nil
	}
}

func TestAuthenticateRunsFlowAndPersists(t *testing.T) {
	store := memory.NewTokenStore()
	creds := writeCredentialsFile(t)

	var flowCalls int
	m := NewManager(store, creds, WithFlow(flowReturning(&oauth2.Token{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		Expiry:       time.Now().Add(time.Hour),
	}, &flowCalls)))

	ctx := context.Background()
	require.NoError(t, m.Authenticate(ctx, false))
	assert.Equal(t, 1, flowCalls)
	assert.True(t, m.IsAuthenticated(ctx))

	record, err := store.Get(ctx, domain.DefaultUserID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "new-access", record.Token)
	assert.Equal(t, "new-refresh", record.RefreshToken)
	assert.Equal(t, "https://oauth2.googleapis.com/token", record.TokenURI)
	assert.Equal(t, "client-id.apps.googleusercontent.com", record.ClientID)
	assert.Equal(t, "client-secret", record.ClientSecret)
	assert.Equal(t, domain.DefaultScopes(), record.Scopes)
}

func TestAuthenticateMissingCredentialsFile(t *testing.T) {
	var flowCalls int
	m := NewManager(memory.NewTokenStore(), "/nonexistent/credentials.json",
		WithFlow(flowReturning(&oauth2.Token{AccessToken: "x"}, &flowCalls)))

	err := m.Authenticate(context.Background(), false)
	require.Error(t, err)

	var notFound *domain.CredentialsNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "/nonexistent/credentials.json", notFound.Path)
	assert.Zero(t, flowCalls)
	assert.True(t, domain.IsAuthenticationError(err))
}

func TestAuthenticateIdempotentWhenValid(t *testing.T) {
	creds := writeCredentialsFile(t)

	var flowCalls int
	m := NewManager(memory.NewTokenStore(), creds, WithFlow(flowReturning(&oauth2.Token{
		AccessToken: "access",
		Expiry:      time.Now().Add(time.Hour),
	}, &flowCalls)))

	ctx := context.Background()
	require.NoError(t, m.Authenticate(ctx, false))
	require.NoError(t, m.Authenticate(ctx, false))
	assert.Equal(t, 1, flowCalls)
}

func TestAuthenticateForceRerunsFlow(t *testing.T) {
	creds := writeCredentialsFile(t)

	var flowCalls int
	m := NewManager(memory.NewTokenStore(), creds, WithFlow(flowReturning(&oauth2.Token{
		AccessToken: "access",
		Expiry:      time.Now().Add(time.Hour),
	}, &flowCalls)))

	ctx := context.Background()
	require.NoError(t, m.Authenticate(ctx, false))
	require.NoError(t, m.Authenticate(ctx, true))
	assert.Equal(t, 2, flowCalls)
}

func TestAuthenticateRefreshesInsteadOfReprompting(t *testing.T) {
	endpoint := &fakeTokenEndpoint{accessToken: "refreshed-access"}
	srv := endpoint.server(t)
	store := memory.NewTokenStore()

	var flowCalls int
	m := NewManager(store, writeCredentialsFile(t),
		WithFlow(flowReturning(&oauth2.Token{AccessToken: "x"}, &flowCalls)))
	seedSession(m, srv.URL, time.Now().Add(-time.Hour), "refresh-token")

	ctx := context.Background()
	require.NoError(t, m.Authenticate(ctx, false))
	assert.Zero(t, flowCalls)
	assert.Equal(t, 1, endpoint.calls)
	assert.True(t, m.IsAuthenticated(ctx))

	record, err := store.Get(ctx, domain.DefaultUserID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "refreshed-access", record.Token)
}

func TestAuthenticateRefreshFailurePropagates(t *testing.T) {
	endpoint := &fakeTokenEndpoint{failWith: http.StatusBadRequest}
	srv := endpoint.server(t)

	var flowCalls int
	m := NewManager(memory.NewTokenStore(), writeCredentialsFile(t),
		WithFlow(flowReturning(&oauth2.Token{AccessToken: "x"}, &flowCalls)))
	seedSession(m, srv.URL, time.Now().Add(-time.Hour), "refresh-token")

	err := m.Authenticate(context.Background(), false)
	require.Error(t, err)

	// A broken refresh token is reported, not silently papered over by
	// re-running the interactive flow.
	var refreshErr *domain.TokenRefreshError
	assert.ErrorAs(t, err, &refreshErr)
	assert.Zero(t, flowCalls)
}

func TestRefreshNoopWithoutSession(t *testing.T) {
	m := NewManager(memory.NewTokenStore(), writeCredentialsFile(t))

	refreshed, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, refreshed)
}

func TestRefreshNoopWhileValid(t *testing.T) {
	endpoint := &fakeTokenEndpoint{accessToken: "unused"}
	srv := endpoint.server(t)

	m := NewManager(memory.NewTokenStore(), writeCredentialsFile(t))
	seedSession(m, srv.URL, time.Now().Add(time.Hour), "refresh-token")

	refreshed, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Zero(t, endpoint.calls)
}

func TestRefreshNoopWithoutRefreshToken(t *testing.T) {
	endpoint := &fakeTokenEndpoint{accessToken: "unused"}
	srv := endpoint.server(t)

	m := NewManager(memory.NewTokenStore(), writeCredentialsFile(t))
	seedSession(m, srv.URL, time.Now().Add(-time.Hour), "")

	refreshed, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Zero(t, endpoint.calls)
}

func TestRefreshPersistsRotatedRefreshToken(t *testing.T) {
	endpoint := &fakeTokenEndpoint{accessToken: "new-access", refreshToken: "rotated-refresh"}
	srv := endpoint.server(t)
	store := memory.NewTokenStore()

	m := NewManager(store, writeCredentialsFile(t))
	seedSession(m, srv.URL, time.Now().Add(-time.Hour), "old-refresh")

	ctx := context.Background()
	refreshed, err := m.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, refreshed)

	record, err := store.Get(ctx, domain.DefaultUserID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "new-access", record.Token)
	assert.Equal(t, "rotated-refresh", record.RefreshToken)
}

func TestRefreshKeepsRefreshTokenWhenNotRotated(t *testing.T) {
	endpoint := &fakeTokenEndpoint{accessToken: "new-access"}
	srv := endpoint.server(t)
	store := memory.NewTokenStore()

	m := NewManager(store, writeCredentialsFile(t))
	seedSession(m, srv.URL, time.Now().Add(-time.Hour), "old-refresh")

	ctx := context.Background()
	refreshed, err := m.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, refreshed)

	record, err := store.Get(ctx, domain.DefaultUserID)
	require.NoError(t, err)
	assert.Equal(t, "old-refresh", record.RefreshToken)
}

func TestRefreshFailureReturnsTokenRefreshError(t *testing.T) {
	endpoint := &fakeTokenEndpoint{failWith: http.StatusUnauthorized}
	srv := endpoint.server(t)

	m := NewManager(memory.NewTokenStore(), writeCredentialsFile(t))
	seedSession(m, srv.URL, time.Now().Add(-time.Hour), "refresh-token")

	_, err := m.Refresh(context.Background())
	require.Error(t, err)

	var refreshErr *domain.TokenRefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.True(t, domain.IsAuthenticationError(err))
}

func TestStoredRecordTreatedValidUntilRejected(t *testing.T) {
	store := memory.NewTokenStore()
	ctx := context.Background()

	// Persisted records carry no expiry, so a fresh process trusts the
	// stored access token until an API call rejects it.
	require.NoError(t, store.Save(ctx, &domain.TokenRecord{
		Token:        "stored-access",
		RefreshToken: "stored-refresh",
		TokenURI:     "https://oauth2.googleapis.com/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scopes:       domain.DefaultScopes(),
	}, domain.DefaultUserID))

	m := NewManager(store, writeCredentialsFile(t))
	assert.True(t, m.IsAuthenticated(ctx))
	assert.False(t, m.NeedsRefresh(ctx))

	token, err := m.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "stored-access", token)
}

func TestGetTokenUnauthenticated(t *testing.T) {
	m := NewManager(memory.NewTokenStore(), writeCredentialsFile(t))

	_, err := m.GetToken(context.Background())
	require.Error(t, err)

	var notAuthed *domain.NotAuthenticatedError
	assert.ErrorAs(t, err, &notAuthed)
}

func TestGetTokenRefreshesExpiredSession(t *testing.T) {
	endpoint := &fakeTokenEndpoint{accessToken: "fresh-access"}
	srv := endpoint.server(t)

	m := NewManager(memory.NewTokenStore(), writeCredentialsFile(t))
	seedSession(m, srv.URL, time.Now().Add(-time.Hour), "refresh-token")

	token, err := m.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", token)
	assert.Equal(t, 1, endpoint.calls)
}

func TestNeedsRefreshOnlyWhenExpiredAndRefreshable(t *testing.T) {
	ctx := context.Background()

	m := NewManager(memory.NewTokenStore(), writeCredentialsFile(t))
	seedSession(m, "https://oauth2.googleapis.com/token", time.Now().Add(-time.Hour), "refresh-token")
	assert.True(t, m.NeedsRefresh(ctx))
	assert.False(t, m.IsAuthenticated(ctx))

	m = NewManager(memory.NewTokenStore(), writeCredentialsFile(t))
	seedSession(m, "https://oauth2.googleapis.com/token", time.Now().Add(-time.Hour), "")
	assert.False(t, m.NeedsRefresh(ctx))
	assert.False(t, m.IsAuthenticated(ctx))
}

func TestRevokeClearsSessionAndStore(t *testing.T) {
	store := memory.NewTokenStore()
	creds := writeCredentialsFile(t)
	ctx := context.Background()

	var flowCalls int
	m := NewManager(store, creds, WithFlow(flowReturning(&oauth2.Token{
		AccessToken: "access",
		Expiry:      time.Now().Add(time.Hour),
	}, &flowCalls)))
	require.NoError(t, m.Authenticate(ctx, false))

	revoked, err := m.Revoke(ctx)
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.False(t, m.IsAuthenticated(ctx))

	record, err := store.Get(ctx, domain.DefaultUserID)
	require.NoError(t, err)
	assert.Nil(t, record)

	// Revoking again reports that nothing was stored.
	revoked, err = m.Revoke(ctx)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestExportReturnsCopy(t *testing.T) {
	store := memory.NewTokenStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.TokenRecord{
		Token:  "access",
		Scopes: []string{domain.ScopeGmailReadonly},
	}, domain.DefaultUserID))

	m := NewManager(store, writeCredentialsFile(t))
	exported, err := m.Export(ctx)
	require.NoError(t, err)
	require.NotNil(t, exported)
	assert.Equal(t, "access", exported.Token)

	exported.Token = "mutated"
	exported.Scopes[0] = "mutated"

	again, err := m.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access", again.Token)
	assert.Equal(t, []string{domain.ScopeGmailReadonly}, again.Scopes)
}

func TestExportUnauthenticated(t *testing.T) {
	m := NewManager(memory.NewTokenStore(), writeCredentialsFile(t))

	exported, err := m.Export(context.Background())
	require.NoError(t, err)
	assert.Nil(t, exported)
}

func TestManagerUserAndScopeOptions(t *testing.T) {
	m := NewManager(memory.NewTokenStore(), "creds.json",
		WithUserID("alice"), WithScopes(domain.DriveScopes()))

	assert.Equal(t, "alice", m.UserID())
	assert.Equal(t, domain.DriveScopes(), m.Scopes())
}

func TestServiceAccountManagerMissingFile(t *testing.T) {
	_, err := NewServiceAccountManager(context.Background(), "/nonexistent/sa.json", "", nil)
	require.Error(t, err)

	var notFound *domain.CredentialsNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestServiceAccountManagerInvalidKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"unexpected"}`), 0o600))

	_, err := NewServiceAccountManager(context.Background(), path, "user@example.com", nil)
	require.Error(t, err)
}

func ExampleManager_Export() {
	store := memory.NewTokenStore()
	ctx := context.Background()

	_ = store.Save(ctx, &domain.TokenRecord{Token: "access-token"}, domain.DefaultUserID)

	m := NewManager(store, "credentials.json")
	record, _ := m.Export(ctx)
	out, _ := json.Marshal(record)
	fmt.Println(string(out))
	// Output: {"token":"access-token","refresh_token":"","token_uri":"","client_id":"","client_secret":"","scopes":null}
}
