package credstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-authclient/credstore"
)

func runStoreContract(t *testing.T, store credstore.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, credstore.ErrNotFound)

	savedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Save(ctx, credstore.Record{
		Token:      "tok-1",
		IdentityID: "42",
		SavedAt:    savedAt,
	}))

	record, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", record.Token)
	assert.Equal(t, "42", record.IdentityID)
	assert.WithinDuration(t, savedAt, record.SavedAt, time.Second)

	// Saving again overwrites: the store holds at most one credential.
	require.NoError(t, store.Save(ctx, credstore.Record{
		Token:      "tok-2",
		IdentityID: "7",
		SavedAt:    time.Now(),
	}))

	record, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", record.Token)
	assert.Equal(t, "7", record.IdentityID)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, credstore.ErrNotFound)

	// Clearing an empty store is a no-op.
	require.NoError(t, store.Clear(ctx))
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, credstore.NewMemory())
}

func TestSQLiteStoreContract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.db")

	store, err := credstore.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	runStoreContract(t, store)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.db")

	store, err := credstore.OpenSQLite(ctx, path)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, credstore.Record{
		Token:      "tok-persisted",
		IdentityID: "42",
		SavedAt:    time.Now(),
	}))
	require.NoError(t, store.Close())

	reopened, err := credstore.OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	record, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-persisted", record.Token)
	assert.Equal(t, "42", record.IdentityID)
}

func TestMemoryStoreCopiesRecordsOut(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemory()

	require.NoError(t, store.Save(ctx, credstore.Record{Token: "tok-1", IdentityID: "42"}))

	first, err := store.Load(ctx)
	require.NoError(t, err)
	first.Token = "mutated"

	second, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", second.Token)
}
