package docstore

import (
	"context"
	"sync"

	"github.com/xxxsen/docask/internal/model"
	appErr "github.com/xxxsen/docask/internal/pkg/errors"
)

// memoryStore keeps documents in process memory. Contents are lost on restart;
// the server variant accepts that by design.
type memoryStore struct {
	mu       sync.RWMutex
	docs     []model.Document
	revision int64
}

func init() {
	Register("memory", func(args interface{}) (Store, error) {
		return NewMemory(), nil
	})
}

func NewMemory() Store {
	return &memoryStore{}
}

func (s *memoryStore) Add(ctx context.Context, doc *model.Document) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, *doc)
	s.revision++
	return nil
}

func (s *memoryStore) List(ctx context.Context) ([]model.Document, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Document, len(s.docs))
	copy(out, s.docs)
	return out, nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (*model.Document, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.docs {
		if s.docs[i].ID == id {
			doc := s.docs[i]
			return &doc, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		if s.docs[i].ID == id {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			s.revision++
			return nil
		}
	}
	return nil
}

func (s *memoryStore) Revision(ctx context.Context) (int64, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision, nil
}

func (s *memoryStore) Close() error {
	return nil
}
