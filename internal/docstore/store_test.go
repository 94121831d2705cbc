package docstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docask/internal/model"
	appErr "github.com/xxxsen/docask/internal/pkg/errors"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	sqliteStore, err := OpenSqlite(filepath.Join(t.TempDir(), "docask.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqliteStore,
	}
}

func sampleDoc(id, name string) *model.Document {
	return &model.Document{
		ID:         id,
		Name:       name,
		Content:    "content of " + name,
		Size:       42,
		UploadedAt: 1700000000000,
	}
}

func TestStoreAddListOrder(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Add(ctx, sampleDoc("1", "first.txt")))
			require.NoError(t, store.Add(ctx, sampleDoc("2", "second.txt")))
			require.NoError(t, store.Add(ctx, sampleDoc("3", "third.txt")))

			docs, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, docs, 3)
			require.Equal(t, "first.txt", docs[0].Name)
			require.Equal(t, "second.txt", docs[1].Name)
			require.Equal(t, "third.txt", docs[2].Name)
		})
	}
}

func TestStoreGet(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Add(ctx, sampleDoc("1", "doc.txt")))

			doc, err := store.Get(ctx, "1")
			require.NoError(t, err)
			require.Equal(t, "doc.txt", doc.Name)

			_, err = store.Get(ctx, "missing")
			require.ErrorIs(t, err, appErr.ErrNotFound)
		})
	}
}

func TestStoreDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Add(ctx, sampleDoc("1", "doc.txt")))
			require.NoError(t, store.Delete(ctx, "1"))
			require.NoError(t, store.Delete(ctx, "1"))
			require.NoError(t, store.Delete(ctx, "never-existed"))

			docs, err := store.List(ctx)
			require.NoError(t, err)
			require.Empty(t, docs)
		})
	}
}

func TestStoreRevisionTracksMutations(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			before, err := store.Revision(ctx)
			require.NoError(t, err)

			require.NoError(t, store.Add(ctx, sampleDoc("1", "doc.txt")))
			afterAdd, err := store.Revision(ctx)
			require.NoError(t, err)
			require.Greater(t, afterAdd, before)

			// Deleting an absent id must not change the revision.
			require.NoError(t, store.Delete(ctx, "missing"))
			afterNoop, err := store.Revision(ctx)
			require.NoError(t, err)
			require.Equal(t, afterAdd, afterNoop)

			require.NoError(t, store.Delete(ctx, "1"))
			afterDelete, err := store.Revision(ctx)
			require.NoError(t, err)
			require.Greater(t, afterDelete, afterAdd)
		})
	}
}

func TestSqliteGetQueryErrorIsNotNotFound(t *testing.T) {
	store, err := OpenSqlite(filepath.Join(t.TempDir(), "docask.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Get(context.Background(), "1")
	require.Error(t, err)
	require.NotErrorIs(t, err, appErr.ErrNotFound)
}

func TestNewUnknownType(t *testing.T) {
	_, err := New("postgres", nil)
	require.Error(t, err)
}

func TestNewFromRegistry(t *testing.T) {
	store, err := New("memory", nil)
	require.NoError(t, err)
	require.NotNil(t, store)

	store, err = New("sqlite", map[string]interface{}{
		"path": filepath.Join(t.TempDir(), "docask.db"),
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
