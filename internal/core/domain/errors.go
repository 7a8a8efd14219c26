package domain

import (
	"errors"
	"fmt"
)

// The error taxonomy is flat and closed: an authentication family, an
// API family, plus validation, configuration, and storage errors.
// Every type carries a human message and, where useful, a wrapped
// cause reachable through errors.Unwrap.

// CredentialsNotFoundError indicates the OAuth client secrets file is
// missing from its configured path.
type CredentialsNotFoundError struct {
	Path string
}

func (e *CredentialsNotFoundError) Error() string {
	return fmt.Sprintf("credentials file not found: %s (download from Google Cloud Console -> APIs & Services -> Credentials)", e.Path)
}

// TokenExpiredError indicates the access token is expired and no
// refresh token is available.
type TokenExpiredError struct{}

func (e *TokenExpiredError) Error() string {
	return "token expired and no refresh token available"
}

// TokenRefreshError indicates a refresh grant failed.
type TokenRefreshError struct {
	Cause error
}

func (e *TokenRefreshError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to refresh token: %v", e.Cause)
	}
	return "failed to refresh token"
}

func (e *TokenRefreshError) Unwrap() error { return e.Cause }

// NotAuthenticatedError indicates an operation requires authentication
// but none is available.
type NotAuthenticatedError struct{}

func (e *NotAuthenticatedError) Error() string {
	return "not authenticated: run 'gsuite auth login' first"
}

// IsAuthenticationError reports whether err belongs to the
// authentication error family.
func IsAuthenticationError(err error) bool {
	var (
		notFound  *CredentialsNotFoundError
		expired   *TokenExpiredError
		refresh   *TokenRefreshError
		notAuthed *NotAuthenticatedError
	)
	return errors.As(err, &notFound) ||
		errors.As(err, &expired) ||
		errors.As(err, &refresh) ||
		errors.As(err, &notAuthed)
}

// APIError is a remote API call failure carrying the raw HTTP status.
// The more specific API errors embed it, so errors.As against *APIError
// does not match them; use AsAPIError to inspect the whole family.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: API error %d: %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: API error: %s", e.Service, e.Message)
}

func (e *APIError) Unwrap() error { return e.Cause }

// RateLimitError indicates the remote API rate limit was exceeded.
// RetryAfter is a hint in seconds, zero when the transport exposed none.
type RateLimitError struct {
	APIError
	RetryAfter int
}

// NewRateLimitError builds a RateLimitError for a service.
func NewRateLimitError(service string, retryAfter int) *RateLimitError {
	return &RateLimitError{
		APIError: APIError{
			Service:    service,
			StatusCode: 429,
			Message:    fmt.Sprintf("rate limit exceeded for %s", service),
		},
		RetryAfter: retryAfter,
	}
}

// QuotaExceededError indicates the API quota was exhausted.
type QuotaExceededError struct {
	APIError
}

// NewQuotaExceededError builds a QuotaExceededError for a service.
func NewQuotaExceededError(service string) *QuotaExceededError {
	return &QuotaExceededError{
		APIError: APIError{
			Service:    service,
			StatusCode: 403,
			Message:    fmt.Sprintf("API quota exceeded for %s", service),
		},
	}
}

// NotFoundError indicates the requested resource does not exist.
type NotFoundError struct {
	APIError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError builds a NotFoundError for a resource.
func NewNotFoundError(service, resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		APIError: APIError{
			Service:    service,
			StatusCode: 404,
			Message:    fmt.Sprintf("%s not found: %s", resourceType, resourceID),
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// PermissionDeniedError indicates the caller lacks permission for an
// operation.
type PermissionDeniedError struct {
	APIError
	Operation string
}

// NewPermissionDeniedError builds a PermissionDeniedError.
func NewPermissionDeniedError(service, operation string) *PermissionDeniedError {
	return &PermissionDeniedError{
		APIError: APIError{
			Service:    service,
			StatusCode: 403,
			Message:    fmt.Sprintf("permission denied for %s", operation),
		},
		Operation: operation,
	}
}

// AsAPIError extracts the APIError from any member of the API error
// family. Returns nil, false if err is not an API error.
func AsAPIError(err error) (*APIError, bool) {
	var (
		rate     *RateLimitError
		quota    *QuotaExceededError
		notFound *NotFoundError
		denied   *PermissionDeniedError
		api      *APIError
	)
	switch {
	case errors.As(err, &rate):
		return &rate.APIError, true
	case errors.As(err, &quota):
		return &quota.APIError, true
	case errors.As(err, &notFound):
		return &notFound.APIError, true
	case errors.As(err, &denied):
		return &denied.APIError, true
	case errors.As(err, &api):
		return api, true
	default:
		return nil, false
	}
}

// ValidationError indicates malformed caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// ConfigurationError indicates a misconfigured deployment, for example
// the secretmanager backend selected without a project id.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// StorageError indicates a genuine token store backend failure, as
// opposed to the expected "no record" absence which is reported as a
// nil record.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("token storage %s failed: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }
