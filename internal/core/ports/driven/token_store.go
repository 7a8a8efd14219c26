package driven

import (
	"context"

	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
)

// TokenStore persists OAuth token records keyed by a user identifier.
// Implementations must treat Save as an atomic, idempotent upsert: a
// concurrent Get observes either the old or the new record in full,
// never a partial one. Atomicity is delegated to the backend's native
// consistency mechanism; the application layer performs no locking.
type TokenStore interface {
	// Get returns the stored record, or nil if no record exists for
	// the user. A non-nil error indicates a genuine storage failure,
	// never plain absence.
	Get(ctx context.Context, userID string) (*domain.TokenRecord, error)

	// Save stores the record, replacing any existing record for the
	// user and updating its last-modified timestamp.
	Save(ctx context.Context, record *domain.TokenRecord, userID string) error

	// Delete removes the record and reports whether one existed.
	Delete(ctx context.Context, userID string) (bool, error)

	// Exists reports whether a record is stored for the user.
	Exists(ctx context.Context, userID string) (bool, error)
}
