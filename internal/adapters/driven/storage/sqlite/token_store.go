// Package sqlite provides a SQLite-backed token store for local
// deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
	"github.com/custodia-labs/gsuite-cli/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore persists token records in a single SQLite table keyed by
// user id. The record is stored as a JSON blob alongside created/updated
// timestamps. Upsert atomicity is delegated to SQLite's transaction
// mechanism; no application-level locking is performed.
type TokenStore struct {
	db   *sql.DB
	path string
}

// NewTokenStore opens (or creates) the token database at dbPath and
// creates the tokens table on first use.
func NewTokenStore(dbPath string) (*TokenStore, error) {
	if dbPath == "" {
		dbPath = "tokens.db"
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating token db directory: %w", err)
		}
	}

	// WAL mode for concurrent gateway requests sharing the store.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening token database: %w", err)
	}

	s := &TokenStore{db: db, path: dbPath}

	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *TokenStore) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tokens (
			user_id    TEXT PRIMARY KEY,
			token_data TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return &domain.StorageError{Op: "init", Cause: err}
	}
	return nil
}

// Close closes the database connection.
func (s *TokenStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *TokenStore) Path() string {
	return s.path
}

// Get returns the stored record for the user, or nil if none exists.
func (s *TokenStore) Get(ctx context.Context, userID string) (*domain.TokenRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT token_data FROM tokens WHERE user_id = ?", userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Cause: err}
	}

	var record domain.TokenRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, &domain.StorageError{Op: "get", Cause: err}
	}
	return &record, nil
}

// Save upserts the record for the user, bumping updated_at.
func (s *TokenStore) Save(ctx context.Context, record *domain.TokenRecord, userID string) error {
	data, err := json.Marshal(record)
	if err != nil {
		return &domain.StorageError{Op: "save", Cause: err}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tokens (user_id, token_data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			token_data = excluded.token_data,
			updated_at = CURRENT_TIMESTAMP`,
		userID, string(data))
	if err != nil {
		return &domain.StorageError{Op: "save", Cause: err}
	}
	return nil
}

// Delete removes the record and reports whether one existed.
func (s *TokenStore) Delete(ctx context.Context, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tokens WHERE user_id = ?", userID)
	if err != nil {
		return false, &domain.StorageError{Op: "delete", Cause: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, &domain.StorageError{Op: "delete", Cause: err}
	}
	return n > 0, nil
}

// Exists reports whether a record is stored for the user.
func (s *TokenStore) Exists(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM tokens WHERE user_id = ?", userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &domain.StorageError{Op: "exists", Cause: err}
	}
	return true, nil
}
