// Package config loads application settings for the gsuite CLI and
// gateway. Defaults are overlaid by an optional TOML config file
// (~/.gsuite/config.toml), which in turn is overlaid by GSUITE_-prefixed
// environment variables. A .env file in the working directory is loaded
// first when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/gsuite-cli/internal/connectors/google"
	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
)

// Storage backend names accepted by TokenStorage.
const (
	StorageSQLite        = "sqlite"
	StorageSecretManager = "secretmanager"
)

// Settings holds the full application configuration.
type Settings struct {
	// Gateway.
	APIKey  string `env:"API_KEY" toml:"api_key"`
	Host    string `env:"HOST" toml:"host"`
	Port    int    `env:"PORT" toml:"port"`
	Version string `env:"VERSION" toml:"version"`

	// Google OAuth.
	CredentialsFile string `env:"CREDENTIALS_FILE" toml:"credentials_file"`

	// Token storage backend: sqlite or secretmanager.
	TokenStorage string `env:"TOKEN_STORAGE" toml:"token_storage"`

	// SQLite storage.
	TokenDBPath string `env:"TOKEN_DB_PATH" toml:"token_db_path"`

	// Secret Manager (for Cloud Run deployments).
	GCPProjectID          string `env:"GCP_PROJECT_ID" toml:"gcp_project_id"`
	TokenSecretName       string `env:"TOKEN_SECRET_NAME" toml:"token_secret_name"`
	TokenSecretAutoCreate bool   `env:"TOKEN_SECRET_AUTO_CREATE" toml:"token_secret_auto_create"`

	// API behaviour.
	DefaultTimezone  string  `env:"DEFAULT_TIMEZONE" toml:"default_timezone"`
	RequestTimeout   int     `env:"REQUEST_TIMEOUT" toml:"request_timeout"`
	MaxRetries       int     `env:"MAX_RETRIES" toml:"max_retries"`
	RetryDelay       float64 `env:"RETRY_DELAY" toml:"retry_delay"`
	RetryOnRateLimit bool    `env:"RETRY_ON_RATE_LIMIT" toml:"retry_on_rate_limit"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Host:             "0.0.0.0",
		Port:             8080,
		Version:          "dev",
		CredentialsFile:  "credentials.json",
		TokenStorage:     StorageSQLite,
		TokenDBPath:      "tokens.db",
		TokenSecretName:  "gsuite-token",
		DefaultTimezone:  "UTC",
		RequestTimeout:   30,
		MaxRetries:       3,
		RetryDelay:       1.0,
		RetryOnRateLimit: true,
	}
}

// Load builds the settings from defaults, the config file, and the
// environment, in that order of precedence (environment wins).
func Load() (*Settings, error) {
	// Best effort: a missing .env file is not an error.
	_ = godotenv.Load()

	s := Defaults()

	if path := configFilePath(); path != "" {
		if err := loadFile(&s, path); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(&s, env.Options{Prefix: "GSUITE_"}); err != nil {
		return nil, &domain.ConfigurationError{Message: "parsing environment", Cause: err}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// configFilePath returns the config file location: GSUITE_CONFIG_FILE
// if set, otherwise ~/.gsuite/config.toml when it exists.
func configFilePath() string {
	if path := os.Getenv("GSUITE_CONFIG_FILE"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	path := filepath.Join(home, ".gsuite", "config.toml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func loadFile(s *Settings, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &domain.ConfigurationError{Message: fmt.Sprintf("reading config file %s", path), Cause: err}
	}

	if err := toml.Unmarshal(data, s); err != nil {
		return &domain.ConfigurationError{Message: fmt.Sprintf("parsing config file %s", path), Cause: err}
	}
	return nil
}

// Validate checks cross-field invariants.
func (s *Settings) Validate() error {
	switch s.TokenStorage {
	case StorageSQLite, StorageSecretManager:
	default:
		return &domain.ConfigurationError{
			Message: fmt.Sprintf("unknown token storage backend %q", s.TokenStorage),
		}
	}

	if s.TokenStorage == StorageSecretManager && s.GCPProjectID == "" {
		return &domain.ConfigurationError{
			Message: "GSUITE_GCP_PROJECT_ID is required when using secretmanager storage",
		}
	}

	if s.MaxRetries < 0 {
		return &domain.ConfigurationError{Message: "max retries must not be negative"}
	}

	return nil
}

// RetryDelayDuration returns the base retry delay as a duration.
func (s *Settings) RetryDelayDuration() time.Duration {
	return time.Duration(s.RetryDelay * float64(time.Second))
}

// RequestTimeoutDuration returns the per-request timeout as a duration.
func (s *Settings) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// RetryPolicy returns the configured API retry policy.
func (s *Settings) RetryPolicy() google.RetryPolicy {
	return google.RetryPolicy{
		MaxRetries:       s.MaxRetries,
		BaseDelay:        s.RetryDelayDuration(),
		RetryOnRateLimit: s.RetryOnRateLimit,
	}
}

// Addr returns the gateway listen address.
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
