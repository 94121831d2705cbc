package job

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docask/internal/docstore"
	"github.com/xxxsen/docask/internal/model"
)

func TestUploadCleanupRemovesOrphans(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	doc := &model.Document{ID: "keep-me", Name: "keep.txt", Content: "kept content"}
	require.NoError(t, store.Add(ctx, doc))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep-me.txt"), []byte("kept"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orphan.txt"), []byte("orphan"), 0644))

	j := NewUploadCleanupJob(store, dir)
	require.Equal(t, "upload_cleanup", j.Name())
	require.NoError(t, j.Run(ctx))

	_, err := os.Stat(filepath.Join(dir, "keep-me.txt"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "orphan.txt"))
	require.True(t, os.IsNotExist(err))
}

func TestUploadCleanupMissingDir(t *testing.T) {
	j := NewUploadCleanupJob(docstore.NewMemory(), filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, j.Run(context.Background()))
}
