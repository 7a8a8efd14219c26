// Package auth implements the credential manager: the single source of
// truth for whether the application may call Google APIs right now,
// and with which token.
package auth

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
	"github.com/custodia-labs/gsuite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gsuite-cli/internal/logger"
)

// Ensure Manager implements the token provider port.
var _ driven.TokenProvider = (*Manager)(nil)

// FlowFunc runs an interactive OAuth consent flow for the given config
// and returns the obtained token. The production implementation opens a
// browser and listens on a loopback callback server; tests substitute a
// fake.
type FlowFunc func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)

// ServiceAccountUserID is the user id reported by service-account
// managers. Service accounts skip the token store entirely: tokens are
// minted fresh from the signing key, so there is nothing to persist.
const ServiceAccountUserID = "service_account"

// Manager owns the OAuth2 token lifecycle: load, validity check,
// refresh, interactive acquisition, revoke, and export.
//
// The manager keeps a transient in-memory session (token record plus
// expiry knowledge), lazily loaded from the token store. It is safe
// for concurrent use within one process; across processes the token
// store backend's native concurrency control applies and two
// concurrent refreshes race with last-writer-wins semantics.
type Manager struct {
	mu              sync.Mutex
	store           driven.TokenStore
	credentialsFile string
	scopes          []string
	userID          string
	flow            FlowFunc

	// Session state. A record loaded from the store carries no expiry
	// information, so it is treated as valid until the API rejects it;
	// tokens obtained in-process track their real expiry.
	loaded bool
	record *domain.TokenRecord
	token  *oauth2.Token

	// saSource is set in service-account mode and bypasses the store.
	saSource oauth2.TokenSource
}

// Option configures a Manager.
type Option func(*Manager)

// WithScopes sets the OAuth scopes requested during authentication.
func WithScopes(scopes []string) Option {
	return func(m *Manager) {
		if len(scopes) > 0 {
			m.scopes = scopes
		}
	}
}

// WithUserID sets the user identifier used for token store keys.
func WithUserID(userID string) Option {
	return func(m *Manager) {
		if userID != "" {
			m.userID = userID
		}
	}
}

// WithFlow sets the interactive consent flow implementation.
func WithFlow(flow FlowFunc) Option {
	return func(m *Manager) {
		m.flow = flow
	}
}

// NewManager creates a credential manager backed by the given token
// store. credentialsFile is the path to the OAuth client secrets JSON
// downloaded from the Google Cloud Console.
func NewManager(store driven.TokenStore, credentialsFile string, opts ...Option) *Manager {
	m := &Manager{
		store:           store,
		credentialsFile: credentialsFile,
		scopes:          domain.DefaultScopes(),
		userID:          domain.DefaultUserID,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewServiceAccountManager creates a non-interactive manager from a
// service account key file. subject, when non-empty, is the user to
// impersonate via domain-wide delegation.
func NewServiceAccountManager(ctx context.Context, serviceAccountFile, subject string, scopes []string) (*Manager, error) {
	data, err := os.ReadFile(serviceAccountFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &domain.CredentialsNotFoundError{Path: serviceAccountFile}
		}
		return nil, fmt.Errorf("reading service account file: %w", err)
	}

	if len(scopes) == 0 {
		scopes = domain.DefaultScopes()
	}

	cfg, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing service account file: %w", err)
	}
	cfg.Subject = subject

	return &Manager{
		credentialsFile: serviceAccountFile,
		scopes:          scopes,
		userID:          ServiceAccountUserID,
		loaded:          true,
		saSource:        cfg.TokenSource(ctx),
	}, nil
}

// UserID returns the user identifier this manager operates for.
func (m *Manager) UserID() string {
	return m.userID
}

// Scopes returns the scopes requested during authentication.
func (m *Manager) Scopes() []string {
	return append([]string(nil), m.scopes...)
}

// loadLocked lazily loads the session from the token store.
// Callers must hold m.mu.
func (m *Manager) loadLocked(ctx context.Context) error {
	if m.loaded {
		return nil
	}
	m.loaded = true

	if m.store == nil {
		return nil
	}

	record, err := m.store.Get(ctx, m.userID)
	if err != nil {
		m.loaded = false
		return err
	}
	if record == nil {
		return nil
	}

	m.record = record
	m.token = &oauth2.Token{
		AccessToken:  record.Token,
		RefreshToken: record.RefreshToken,
		TokenType:    "Bearer",
	}
	return nil
}

func (m *Manager) validLocked() bool {
	return m.token != nil && m.token.Valid()
}

func (m *Manager) needsRefreshLocked() bool {
	return m.token != nil && !m.token.Valid() && m.token.RefreshToken != ""
}

// IsAuthenticated reports whether a currently valid token is held.
// Read-only: no side effects beyond the lazy store load, never a
// network call.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	if m.saSource != nil {
		return true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(ctx); err != nil {
		logger.Warn("loading credentials: %v", err)
		return false
	}
	return m.validLocked()
}

// NeedsRefresh reports whether the session is expired but refreshable.
// Read-only, no network calls.
func (m *Manager) NeedsRefresh(ctx context.Context) bool {
	if m.saSource != nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(ctx); err != nil {
		logger.Warn("loading credentials: %v", err)
		return false
	}
	return m.needsRefreshLocked()
}

// Refresh refreshes an expired session using the refresh token.
// Returns false without any network call when no refresh is needed or
// possible. A failed refresh grant surfaces as TokenRefreshError and
// leaves the session unchanged; it never silently falls back to stale
// credentials.
func (m *Manager) Refresh(ctx context.Context) (bool, error) {
	if m.saSource != nil {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(ctx); err != nil {
		return false, err
	}
	if !m.needsRefreshLocked() {
		return false, nil
	}
	if err := m.refreshLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// refreshLocked performs the refresh grant and persists the result.
// Callers must hold m.mu and have verified needsRefreshLocked.
func (m *Manager) refreshLocked(ctx context.Context) error {
	cfg := oauthConfig(m.record)
	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: m.token.RefreshToken})

	newToken, err := src.Token()
	if err != nil {
		return &domain.TokenRefreshError{Cause: err}
	}

	m.applyTokenLocked(newToken)
	logger.Debug("token refreshed for user %s", m.userID)
	return m.saveLocked(ctx)
}

// applyTokenLocked updates the session with a freshly obtained token.
func (m *Manager) applyTokenLocked(token *oauth2.Token) {
	m.token = token
	if m.record == nil {
		m.record = &domain.TokenRecord{}
	}
	m.record.Token = token.AccessToken
	if token.RefreshToken != "" {
		m.record.RefreshToken = token.RefreshToken
	}
}

func (m *Manager) saveLocked(ctx context.Context) error {
	if m.store == nil || m.record == nil {
		return nil
	}
	return m.store.Save(ctx, m.record, m.userID)
}

// Authenticate ensures a valid session, running the interactive
// consent flow if necessary. When not forced it is idempotent: a valid
// session returns immediately and an expired-refreshable one is
// refreshed instead of re-prompting the user.
func (m *Manager) Authenticate(ctx context.Context, force bool) error {
	if m.saSource != nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(ctx); err != nil {
		return err
	}

	if !force {
		if m.validLocked() {
			return nil
		}
		if m.needsRefreshLocked() {
			return m.refreshLocked(ctx)
		}
	}

	if _, err := os.Stat(m.credentialsFile); err != nil {
		return &domain.CredentialsNotFoundError{Path: m.credentialsFile}
	}

	data, err := os.ReadFile(m.credentialsFile)
	if err != nil {
		return fmt.Errorf("reading credentials file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(data, m.scopes...)
	if err != nil {
		return fmt.Errorf("parsing credentials file: %w", err)
	}

	if m.flow == nil {
		return &domain.ConfigurationError{Message: "interactive OAuth flow not configured"}
	}

	token, err := m.flow(ctx, cfg)
	if err != nil {
		return fmt.Errorf("oauth flow: %w", err)
	}

	m.record = &domain.TokenRecord{
		Token:        token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenURI:     cfg.Endpoint.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       append([]string(nil), m.scopes...),
	}
	m.token = token
	m.loaded = true

	logger.Info("authenticated user %s", m.userID)
	return m.saveLocked(ctx)
}

// Revoke clears the in-memory session and deletes the stored record.
// Reports whether a stored record existed.
func (m *Manager) Revoke(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record = nil
	m.token = nil
	m.loaded = false

	if m.store == nil {
		return false, nil
	}
	return m.store.Delete(ctx, m.userID)
}

// Export returns a copy of the token record for migration into another
// deployment's token store, or nil when unauthenticated.
func (m *Manager) Export(ctx context.Context) (*domain.TokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(ctx); err != nil {
		return nil, err
	}
	if m.record == nil {
		return nil, nil
	}

	out := *m.record
	out.Scopes = append([]string(nil), m.record.Scopes...)
	return &out, nil
}

// GetToken returns a valid access token, refreshing if necessary.
// Implements driven.TokenProvider for the Google API clients.
func (m *Manager) GetToken(ctx context.Context) (string, error) {
	if m.saSource != nil {
		token, err := m.saSource.Token()
		if err != nil {
			return "", &domain.TokenRefreshError{Cause: err}
		}
		return token.AccessToken, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(ctx); err != nil {
		return "", err
	}

	if m.validLocked() {
		return m.token.AccessToken, nil
	}
	if m.needsRefreshLocked() {
		if err := m.refreshLocked(ctx); err != nil {
			return "", err
		}
		return m.token.AccessToken, nil
	}

	return "", &domain.NotAuthenticatedError{}
}

func oauthConfig(record *domain.TokenRecord) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     record.ClientID,
		ClientSecret: record.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: record.TokenURI},
		Scopes:       record.Scopes,
	}
}
