package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docask/internal/docstore"
	"github.com/xxxsen/docask/internal/extract"
	"github.com/xxxsen/docask/internal/filestore"
	"github.com/xxxsen/docask/internal/model"
	appErr "github.com/xxxsen/docask/internal/pkg/errors"
)

type DocumentService struct {
	store docstore.Store
	files filestore.Store
}

// NewDocumentService wires the record store with an optional raw-file store.
// A nil files store means uploads are kept as records only.
func NewDocumentService(store docstore.Store, files filestore.Store) *DocumentService {
	return &DocumentService{store: store, files: files}
}

func (s *DocumentService) Upload(ctx context.Context, name string, r io.Reader) (*model.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read file", appErr.ErrInvalid)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", appErr.ErrInvalid)
	}
	content, err := extract.Text(name, data)
	if err != nil {
		logutil.GetLogger(ctx).Warn("extract upload text failed", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("%w: file has no readable text", appErr.ErrInvalid)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: file has no readable text", appErr.ErrInvalid)
	}

	doc := &model.Document{
		ID:         uuid.NewString(),
		Name:       name,
		Content:    content,
		Size:       int64(len(data)),
		UploadedAt: time.Now().UnixMilli(),
	}
	// Losing the raw copy never blocks the logical upload.
	if s.files != nil {
		if err := s.files.Save(ctx, FileKey(doc), bytes.NewReader(data), doc.Size); err != nil {
			logutil.GetLogger(ctx).Warn("save uploaded file failed", zap.String("doc_id", doc.ID), zap.Error(err))
		}
	}
	if err := s.store.Add(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context) ([]model.Document, error) {
	return s.store.List(ctx)
}

func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.files != nil {
		if err := s.files.Delete(ctx, FileKey(doc)); err != nil {
			logutil.GetLogger(ctx).Warn("release uploaded file failed", zap.String("doc_id", doc.ID), zap.Error(err))
		}
	}
	return nil
}

// FileKey names the raw upload of a document in the file store. It derives
// from the record alone so deletes can rebuild it.
func FileKey(doc *model.Document) string {
	return doc.ID + strings.ToLower(filepath.Ext(doc.Name))
}
