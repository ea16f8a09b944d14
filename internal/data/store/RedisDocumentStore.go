package store

import (
	"context"
	"encoding/json"

	"github.com/huddleapp/huddle/internal/data/redisStore"
	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
	"github.com/huddleapp/huddle/pkg/logging"
)

const pendingDocumentsKey = "pending:documents"

type RedisDocumentStore struct {
	store  *redisStore.Store
	logger *logging.Logger
}

func NewRedisDocumentStore(store *redisStore.Store) *RedisDocumentStore {
	return &RedisDocumentStore{
		store:  store,
		logger: logging.NewLogger("documentStore"),
	}
}

func (s *RedisDocumentStore) SaveDocument(ctx context.Context, d chatModel.Document) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, documentKey(d.ID), data, 0); err != nil {
		return err
	}
	if !d.HasEmbedding {
		return s.store.SetAdd(ctx, pendingDocumentsKey, d.ID)
	}
	return nil
}

func (s *RedisDocumentStore) GetDocument(ctx context.Context, id string) (chatModel.Document, error) {
	var d chatModel.Document
	val, err := s.store.Get(ctx, documentKey(id))
	if s.store.IsNil(err) {
		return d, ragModel.ErrNotFound
	}
	if err != nil {
		return d, err
	}
	return d, json.Unmarshal([]byte(val), &d)
}

func (s *RedisDocumentStore) MarkDocumentEmbedded(ctx context.Context, id string) error {
	d, err := s.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	d.HasEmbedding = true
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, documentKey(id), data, 0); err != nil {
		return err
	}
	return s.store.SetRemove(ctx, pendingDocumentsKey, id)
}

func (s *RedisDocumentStore) ListUnembeddedDocuments(ctx context.Context, limit int) ([]string, error) {
	return s.store.SetSample(ctx, pendingDocumentsKey, limit)
}

func documentKey(id string) string { return "document:" + id }
