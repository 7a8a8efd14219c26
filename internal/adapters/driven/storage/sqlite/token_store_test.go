package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite token store.
func setupTestStore(t *testing.T) *TokenStore {
	t.Helper()

	store, err := NewTokenStore(filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

func testRecord(token string) *domain.TokenRecord {
	return &domain.TokenRecord{
		Token:        token,
		RefreshToken: "refresh-" + token,
		TokenURI:     "https://oauth2.googleapis.com/token",
		ClientID:     "client-id.apps.googleusercontent.com",
		ClientSecret: "client-secret",
		Scopes:       domain.DefaultScopes(),
	}
}

func TestTokenStoreRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	record := testRecord("ya29.access")
	require.NoError(t, store.Save(ctx, record, domain.DefaultUserID))

	got, err := store.Get(ctx, domain.DefaultUserID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record, got)
}

func TestTokenStoreGetMissingReturnsNil(t *testing.T) {
	store := setupTestStore(t)

	got, err := store.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTokenStoreUpsertIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testRecord("first"), domain.DefaultUserID))
	require.NoError(t, store.Save(ctx, testRecord("second"), domain.DefaultUserID))

	got, err := store.Get(ctx, domain.DefaultUserID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Token)

	// Still exactly one row.
	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM tokens").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestTokenStoreDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	deleted, err := store.Delete(ctx, domain.DefaultUserID)
	require.NoError(t, err)
	assert.False(t, deleted)

	require.NoError(t, store.Save(ctx, testRecord("tok"), domain.DefaultUserID))

	deleted, err = store.Delete(ctx, domain.DefaultUserID)
	require.NoError(t, err)
	assert.True(t, deleted)

	exists, err := store.Exists(ctx, domain.DefaultUserID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTokenStoreExists(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Save(ctx, testRecord("tok"), "alice"))

	exists, err = store.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTokenStoreMultiUserIsolation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testRecord("default-tok"), domain.DefaultUserID))
	require.NoError(t, store.Save(ctx, testRecord("alice-tok"), "alice"))

	def, err := store.Get(ctx, domain.DefaultUserID)
	require.NoError(t, err)
	alice, err := store.Get(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, "default-tok", def.Token)
	assert.Equal(t, "alice-tok", alice.Token)
}

func TestTokenStoreCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "tokens.db")

	store, err := NewTokenStore(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())
	require.NoError(t, store.Save(context.Background(), testRecord("tok"), domain.DefaultUserID))
}
