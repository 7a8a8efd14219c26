package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticationErrorFamily(t *testing.T) {
	cause := errors.New("invalid_grant")

	tests := []struct {
		name string
		err  error
	}{
		{"credentials not found", &CredentialsNotFoundError{Path: "credentials.json"}},
		{"token expired", &TokenExpiredError{}},
		{"token refresh", &TokenRefreshError{Cause: cause}},
		{"not authenticated", &NotAuthenticatedError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, IsAuthenticationError(tt.err))
			assert.NotEmpty(t, tt.err.Error())
		})
	}

	assert.False(t, IsAuthenticationError(errors.New("plain")))
	assert.False(t, IsAuthenticationError(&APIError{Service: "gmail", StatusCode: 500}))
}

func TestTokenRefreshErrorUnwrap(t *testing.T) {
	cause := errors.New("invalid_grant")
	err := &TokenRefreshError{Cause: cause}

	assert.ErrorIs(t, err, cause)

	// Wrapping through fmt.Errorf keeps the chain intact.
	wrapped := fmt.Errorf("refresh user default: %w", err)
	assert.True(t, IsAuthenticationError(wrapped))
}

func TestAsAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"rate limit", NewRateLimitError("gmail", 30), 429},
		{"quota", NewQuotaExceededError("drive"), 403},
		{"not found", NewNotFoundError("calendar", "event", "evt-1"), 404},
		{"permission denied", NewPermissionDeniedError("sheets", "update_values"), 403},
		{"generic", &APIError{Service: "gmail", StatusCode: 502, Message: "bad gateway"}, 502},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, ok := AsAPIError(tt.err)
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, api.StatusCode)
		})
	}

	_, ok := AsAPIError(errors.New("plain"))
	assert.False(t, ok)

	// Wrapped members still resolve.
	wrapped := fmt.Errorf("list events: %w", NewRateLimitError("calendar", 0))
	api, ok := AsAPIError(wrapped)
	require.True(t, ok)
	assert.Equal(t, 429, api.StatusCode)
}

func TestNotFoundErrorFields(t *testing.T) {
	err := NewNotFoundError("drive", "file", "abc123")

	assert.Equal(t, "file", err.ResourceType)
	assert.Equal(t, "abc123", err.ResourceID)
	assert.Contains(t, err.Error(), "abc123")
}

func TestRateLimitErrorRetryAfter(t *testing.T) {
	err := NewRateLimitError("gmail", 42)
	assert.Equal(t, 42, err.RetryAfter)

	var rate *RateLimitError
	require.ErrorAs(t, fmt.Errorf("send: %w", err), &rate)
	assert.Equal(t, 42, rate.RetryAfter)
}

func TestStorageErrorUnwrap(t *testing.T) {
	cause := errors.New("database is locked")
	err := &StorageError{Op: "save", Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "save")
}
