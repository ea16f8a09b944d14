package store

import (
	"context"
	"sync"

	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
)

type InMemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string]chatModel.Document
}

func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{docs: make(map[string]chatModel.Document)}
}

func (s *InMemoryDocumentStore) SaveDocument(_ context.Context, d chatModel.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[d.ID] = d
	return nil
}

func (s *InMemoryDocumentStore) GetDocument(_ context.Context, id string) (chatModel.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return chatModel.Document{}, ragModel.ErrNotFound
	}
	return d, nil
}

func (s *InMemoryDocumentStore) MarkDocumentEmbedded(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return ragModel.ErrNotFound
	}
	d.HasEmbedding = true
	s.docs[id] = d
	return nil
}

func (s *InMemoryDocumentStore) ListUnembeddedDocuments(_ context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, d := range s.docs {
		if d.HasEmbedding {
			continue
		}
		ids = append(ids, id)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}
