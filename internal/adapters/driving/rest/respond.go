package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
	"github.com/custodia-labs/gsuite-cli/internal/logger"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error(err, "encoding response")
	}
}

func respondErrorMessage(w http.ResponseWriter, status int, message, detail string) {
	respond(w, status, errorBody{Error: message, Detail: detail})
}

// respondError translates a domain error into an HTTP response.
func respondError(w http.ResponseWriter, err error) {
	var notAuthed *domain.NotAuthenticatedError
	if errors.As(err, &notAuthed) {
		respondErrorMessage(w, http.StatusUnauthorized, "not authenticated", err.Error())
		return
	}
	if domain.IsAuthenticationError(err) {
		respondErrorMessage(w, http.StatusUnauthorized, "token expired, re-authenticate", err.Error())
		return
	}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		respondErrorMessage(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if apiErr, ok := domain.AsAPIError(err); ok {
		var rateLimited *domain.RateLimitError
		if errors.As(err, &rateLimited) && rateLimited.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(rateLimited.RetryAfter))
		}
		status := apiErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		respondErrorMessage(w, status, strings.ToLower(http.StatusText(status)), err.Error())
		return
	}

	logger.Error(err, "request failed")
	respondErrorMessage(w, http.StatusInternalServerError, "internal error", err.Error())
}

// respondNotFound is for resources absent upstream (optional lookups).
func respondNotFound(w http.ResponseWriter, resourceType, id string) {
	respondErrorMessage(w, http.StatusNotFound, "not found", resourceType+" "+id+" not found")
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &domain.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}
