package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GSUITE_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageSQLite, s.TokenStorage)
	assert.Equal(t, "tokens.db", s.TokenDBPath)
	assert.Equal(t, "credentials.json", s.CredentialsFile)
	assert.Equal(t, 3, s.MaxRetries)
	assert.True(t, s.RetryOnRateLimit)
	assert.Equal(t, "0.0.0.0:8080", s.Addr())
	assert.Equal(t, time.Second, s.RetryDelayDuration())
	assert.Equal(t, 30*time.Second, s.RequestTimeoutDuration())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GSUITE_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("GSUITE_PORT", "9090")
	t.Setenv("GSUITE_TOKEN_DB_PATH", "/var/lib/gsuite/tokens.db")
	t.Setenv("GSUITE_RETRY_ON_RATE_LIMIT", "false")
	t.Setenv("GSUITE_RETRY_DELAY", "0.5")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, s.Port)
	assert.Equal(t, "/var/lib/gsuite/tokens.db", s.TokenDBPath)
	assert.False(t, s.RetryOnRateLimit)
	assert.Equal(t, 500*time.Millisecond, s.RetryDelayDuration())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
credentials_file = "/etc/gsuite/credentials.json"
max_retries = 5
port = 9000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv("GSUITE_CONFIG_FILE", path)
	// Environment still wins over the file.
	t.Setenv("GSUITE_PORT", "9191")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/etc/gsuite/credentials.json", s.CredentialsFile)
	assert.Equal(t, 5, s.MaxRetries)
	assert.Equal(t, 9191, s.Port)
	// Untouched fields keep their defaults.
	assert.Equal(t, "gsuite-token", s.TokenSecretName)
}

func TestRetryPolicyFromSettings(t *testing.T) {
	s := Defaults()
	s.MaxRetries = 0
	s.RetryDelay = 0.5
	s.RetryOnRateLimit = false

	policy := s.RetryPolicy()
	assert.Equal(t, 0, policy.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, policy.BaseDelay)
	assert.False(t, policy.RetryOnRateLimit)
}

func TestValidateSecretManagerRequiresProject(t *testing.T) {
	s := Defaults()
	s.TokenStorage = StorageSecretManager

	err := s.Validate()
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	s.GCPProjectID = "my-project"
	assert.NoError(t, s.Validate())
}

func TestValidateUnknownBackend(t *testing.T) {
	s := Defaults()
	s.TokenStorage = "redis"

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestLoadBadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = \"not a number"), 0600))
	t.Setenv("GSUITE_CONFIG_FILE", path)

	_, err := Load()
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
