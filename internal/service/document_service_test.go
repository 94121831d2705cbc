package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docask/internal/docstore"
	"github.com/xxxsen/docask/internal/filestore"
	appErr "github.com/xxxsen/docask/internal/pkg/errors"
)

func newDocumentService(t *testing.T) (*DocumentService, string) {
	t.Helper()
	dir := t.TempDir()
	files, err := filestore.New("local", map[string]interface{}{"dir": dir})
	require.NoError(t, err)
	return NewDocumentService(docstore.NewMemory(), files), dir
}

func TestUploadStoresRecordAndFile(t *testing.T) {
	ctx := context.Background()
	svc, dir := newDocumentService(t)

	content := "Vacation requests must be submitted 2 weeks in advance."
	doc, err := svc.Upload(ctx, "policy.txt", strings.NewReader(content))
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID)
	require.Equal(t, "policy.txt", doc.Name)
	require.Equal(t, content, doc.Content)
	require.Equal(t, int64(len(content)), doc.Size)
	require.NotZero(t, doc.UploadedAt)

	_, err = os.Stat(filepath.Join(dir, FileKey(doc)))
	require.NoError(t, err)

	docs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	svc, _ := newDocumentService(t)
	_, err := svc.Upload(context.Background(), "empty.txt", strings.NewReader(""))
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestUploadRejectsWhitespaceOnlyFile(t *testing.T) {
	svc, _ := newDocumentService(t)
	_, err := svc.Upload(context.Background(), "blank.txt", strings.NewReader("   \n\t  "))
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestDeleteReleasesFile(t *testing.T) {
	ctx := context.Background()
	svc, dir := newDocumentService(t)

	doc, err := svc.Upload(ctx, "policy.txt", strings.NewReader("Vacation requests must be submitted 2 weeks in advance."))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, doc.ID))
	_, err = os.Stat(filepath.Join(dir, FileKey(doc)))
	require.True(t, os.IsNotExist(err))

	docs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestDeleteUnknownID(t *testing.T) {
	svc, _ := newDocumentService(t)
	err := svc.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestUploadSurvivesFileStoreFailure(t *testing.T) {
	ctx := context.Background()
	// Point the file store at a path that cannot be created.
	files, err := filestore.New("local", map[string]interface{}{"dir": string([]byte{0})})
	require.NoError(t, err)
	svc := NewDocumentService(docstore.NewMemory(), files)

	doc, err := svc.Upload(ctx, "policy.txt", strings.NewReader("Vacation requests must be submitted 2 weeks in advance."))
	require.NoError(t, err)
	require.NotNil(t, doc)

	docs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}
