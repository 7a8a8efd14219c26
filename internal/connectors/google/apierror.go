package google

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
)

// CallInfo labels one API call for error mapping. Service is the
// Google product name ("gmail", "calendar", ...); the remaining fields
// make mapped errors specific ("message not found: 18c2f1a...").
type CallInfo struct {
	Service      string
	Operation    string
	ResourceType string
	ResourceID   string
}

func (c CallInfo) resourceType() string {
	if c.ResourceType != "" {
		return c.ResourceType
	}
	return "resource"
}

func (c CallInfo) operation() string {
	if c.Operation != "" {
		return c.Operation
	}
	return c.Service
}

// MapError converts a raw Google API client error into the domain API
// error family. Mapping is deterministic on the HTTP status:
//
//	404            -> NotFoundError
//	403 with quota -> QuotaExceededError
//	403 otherwise  -> PermissionDeniedError
//	429            -> RateLimitError (Retry-After hint when present)
//	anything else  -> APIError with the raw status
//
// nil maps to nil. Errors already in the domain taxonomy and
// authentication errors pass through unchanged, so mapping is
// idempotent across wrapper layers. Non-HTTP failures (network,
// context cancellation) become a generic APIError with no status.
func (c CallInfo) MapError(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsAuthenticationError(err) {
		return err
	}
	if _, ok := domain.AsAPIError(err); ok {
		return err
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return &domain.APIError{Service: c.Service, Message: err.Error(), Cause: err}
	}

	switch {
	case gerr.Code == http.StatusNotFound:
		e := domain.NewNotFoundError(c.Service, c.resourceType(), c.ResourceID)
		e.Cause = gerr
		return e

	case gerr.Code == http.StatusForbidden && strings.Contains(strings.ToLower(gerr.Message), "quota"):
		e := domain.NewQuotaExceededError(c.Service)
		e.Cause = gerr
		return e

	case gerr.Code == http.StatusForbidden:
		e := domain.NewPermissionDeniedError(c.Service, c.operation())
		e.Cause = gerr
		return e

	case gerr.Code == http.StatusTooManyRequests:
		e := domain.NewRateLimitError(c.Service, retryAfterSeconds(gerr))
		e.Cause = gerr
		return e

	default:
		return &domain.APIError{
			Service:    c.Service,
			StatusCode: gerr.Code,
			Message:    gerr.Message,
			Cause:      gerr,
		}
	}
}

// MapError maps err for a service without resource labels.
func MapError(service string, err error) error {
	return CallInfo{Service: service}.MapError(err)
}

func retryAfterSeconds(gerr *googleapi.Error) int {
	if gerr.Header == nil {
		return 0
	}
	value := gerr.Header.Get("Retry-After")
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}
