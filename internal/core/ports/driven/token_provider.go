package driven

import "context"

// TokenProvider provides access tokens for authenticated API calls.
// Implementations handle token refresh transparently: if the cached
// access token has expired and a refresh token is available, GetToken
// refreshes and persists before returning.
type TokenProvider interface {
	// GetToken returns a valid access token, refreshing if needed.
	GetToken(ctx context.Context) (string, error)

	// IsAuthenticated reports whether valid authentication is
	// available without performing any network call.
	IsAuthenticated(ctx context.Context) bool
}
