package domain

// TokenRecord is the persisted OAuth2 credential bundle for one user.
// Its JSON shape is the storage and export wire format; every token
// store backend must round-trip it exactly, and it is the literal
// payload accepted when importing a token into another deployment.
type TokenRecord struct {
	// Token is the opaque access token.
	Token string `json:"token"`
	// RefreshToken is used to obtain new access tokens without user
	// interaction. Empty when the provider did not grant offline access.
	RefreshToken string `json:"refresh_token"`
	// TokenURI is the OAuth2 token endpoint the record was issued by.
	TokenURI string `json:"token_uri"`
	// ClientID identifies the OAuth application.
	ClientID string `json:"client_id"`
	// ClientSecret is the OAuth application secret.
	ClientSecret string `json:"client_secret"`
	// Scopes is the ordered list of granted permission scopes.
	Scopes []string `json:"scopes"`
}

// HasRefreshToken reports whether the record can be refreshed without
// running the interactive flow again.
func (r *TokenRecord) HasRefreshToken() bool {
	return r != nil && r.RefreshToken != ""
}

// DefaultUserID is the user identifier used by single-user deployments.
const DefaultUserID = "default"
