package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gsuite-cli/internal/adapters/driven/config"
	"github.com/custodia-labs/gsuite-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
	"github.com/custodia-labs/gsuite-cli/internal/core/services/auth"
)

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

// wireDeps installs a manager over an in-memory store, optionally
// seeded with a stored token.
func wireDeps(t *testing.T, seeded bool) *memory.TokenStore {
	t.Helper()
	store := memory.NewTokenStore()
	if seeded {
		require.NoError(t, store.Save(context.Background(), &domain.TokenRecord{
			Token:        "access-token",
			RefreshToken: "refresh-token",
		}, domain.DefaultUserID))
	}

	settings := config.Defaults()
	SetDeps(&Deps{
		Settings: &settings,
		Manager:  auth.NewManager(store, "credentials.json"),
	})
	t.Cleanup(func() {
		SetDeps(nil)
	})
	return store
}

func TestAuthStatusUnauthenticated(t *testing.T) {
	wireDeps(t, false)

	out, err := execute(t, "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not authenticated")
}

func TestAuthStatusWithStoredToken(t *testing.T) {
	wireDeps(t, true)

	out, err := execute(t, "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Authenticated")
}

func TestAuthLogout(t *testing.T) {
	store := wireDeps(t, true)

	out, err := execute(t, "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Token removed")

	exists, err := store.Exists(context.Background(), domain.DefaultUserID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAuthLogoutWithoutToken(t *testing.T) {
	wireDeps(t, false)

	out, err := execute(t, "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "No stored token")
}

func TestAuthExport(t *testing.T) {
	wireDeps(t, true)

	out, err := execute(t, "auth", "export")
	require.NoError(t, err)
	assert.Contains(t, out, `"token": "access-token"`)
	assert.Contains(t, out, `"refresh_token": "refresh-token"`)
}

func TestAuthExportWithoutToken(t *testing.T) {
	wireDeps(t, false)

	_, err := execute(t, "auth", "export")
	assert.Error(t, err)
}

func TestAuthLoginUnknownScopeSet(t *testing.T) {
	wireDeps(t, false)

	_, err := execute(t, "auth", "login", "--scopes", "everything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scope set")
}

func TestCommandsRequireWiring(t *testing.T) {
	SetDeps(nil)

	_, err := execute(t, "auth", "status")
	assert.Error(t, err)
}
