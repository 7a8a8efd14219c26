// Package memory provides an in-memory token store, used by tests and
// throwaway deployments where persistence is not needed.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
	"github.com/custodia-labs/gsuite-cli/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore is an in-memory implementation of driven.TokenStore.
type TokenStore struct {
	mu      sync.RWMutex
	records map[string]domain.TokenRecord
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		records: make(map[string]domain.TokenRecord),
	}
}

// Get retrieves the record for a user, or nil if absent.
func (s *TokenStore) Get(_ context.Context, userID string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	// Copy so callers cannot mutate the stored record.
	out := record
	out.Scopes = append([]string(nil), record.Scopes...)
	return &out, nil
}

// Save stores or replaces the record for a user.
func (s *TokenStore) Save(_ context.Context, record *domain.TokenRecord, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	stored.Scopes = append([]string(nil), record.Scopes...)
	s.records[userID] = stored
	return nil
}

// Delete removes the record and reports whether one existed.
func (s *TokenStore) Delete(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.records[userID]
	delete(s.records, userID)
	return ok, nil
}

// Exists reports whether a record is stored for the user.
func (s *TokenStore) Exists(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.records[userID]
	return ok, nil
}
