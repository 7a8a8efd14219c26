//nolint:noctx // Test file uses http.Get for convenience; context not required in tests
package oauth

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, state string) *CallbackServer {
	t.Helper()

	server := NewCallbackServer(0, state)
	require.NoError(t, server.Start())
	t.Cleanup(func() {
		assert.NoError(t, server.Stop())
	})
	return server
}

func TestCallbackServerStartAssignsPort(t *testing.T) {
	server := startServer(t, "state-1")

	assert.NotZero(t, server.Port())
	assert.Equal(t, fmt.Sprintf("http://localhost:%d/callback", server.Port()), server.RedirectURI())
}

func TestCallbackServerReceivesCode(t *testing.T) {
	server := startServer(t, "state-xyz")

	callbackURL := fmt.Sprintf("http://127.0.0.1:%d/callback?state=%s&code=%s",
		server.Port(), "state-xyz", "auth-code-42")
	resp, err := http.Get(callbackURL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Authorization successful")

	code, err := server.WaitForCode(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "auth-code-42", code)
}

func TestCallbackServerRejectsStateMismatch(t *testing.T) {
	server := startServer(t, "expected-state")

	callbackURL := fmt.Sprintf("http://127.0.0.1:%d/callback?state=%s&code=%s",
		server.Port(), "wrong-state", "auth-code")
	resp, err := http.Get(callbackURL)
	require.NoError(t, err)
	resp.Body.Close()

	_, err = server.WaitForCode(2 * time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state mismatch")
}

func TestCallbackServerProviderError(t *testing.T) {
	server := startServer(t, "state")

	q := url.Values{}
	q.Set("error", "access_denied")
	q.Set("error_description", "user declined")
	callbackURL := fmt.Sprintf("http://127.0.0.1:%d/callback?%s", server.Port(), q.Encode())

	resp, err := http.Get(callbackURL)
	require.NoError(t, err)
	resp.Body.Close()

	_, err = server.WaitForCode(2 * time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
}

func TestCallbackServerMissingCode(t *testing.T) {
	server := startServer(t, "state")

	callbackURL := fmt.Sprintf("http://127.0.0.1:%d/callback?state=state", server.Port())
	resp, err := http.Get(callbackURL)
	require.NoError(t, err)
	resp.Body.Close()

	_, err = server.WaitForCode(2 * time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no authorization code")
}

func TestCallbackServerWaitTimeout(t *testing.T) {
	server := startServer(t, "state")

	_, err := server.WaitForCode(50 * time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}
