package rag_test

import (
	"context"

	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
)

// MockIndex implements vectorDB.Index with per-test override hooks.
type MockIndex struct {
	OnUpsert          func(ctx context.Context, partition string, records []ragModel.Record) error
	OnQuery           func(ctx context.Context, partition string, vector []float32, filter ragModel.Filter, topK int) ([]ragModel.Hit, error)
	OnReset           func(ctx context.Context) error
	OnGetCachedAnswer func(ctx context.Context, scope string, queryVector []float32) (string, bool, error)
	OnSaveToCache     func(ctx context.Context, id, scope string, vector []float32, answer string) error
}

func (m *MockIndex) Upsert(ctx context.Context, partition string, records []ragModel.Record) error {
	if m.OnUpsert != nil {
		return m.OnUpsert(ctx, partition, records)
	}
	return nil
}

func (m *MockIndex) Query(ctx context.Context, partition string, vector []float32, filter ragModel.Filter, topK int) ([]ragModel.Hit, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, partition, vector, filter, topK)
	}
	return nil, nil
}

func (m *MockIndex) Reset(ctx context.Context) error {
	if m.OnReset != nil {
		return m.OnReset(ctx)
	}
	return nil
}

func (m *MockIndex) GetCachedAnswer(ctx context.Context, scope string, v []float32) (string, bool, error) {
	if m.OnGetCachedAnswer != nil {
		return m.OnGetCachedAnswer(ctx, scope, v)
	}
	return "", false, nil
}

func (m *MockIndex) SaveToCache(ctx context.Context, id, scope string, v []float32, answer string) error {
	if m.OnSaveToCache != nil {
		return m.OnSaveToCache(ctx, id, scope, v, answer)
	}
	return nil
}

// MockEmbedder implements embedding.Embedder.
type MockEmbedder struct {
	OnEmbedQuery func(ctx context.Context, text string) ([]float32, error)
	OnEmbedBatch func(ctx context.Context, texts []string) ([][]float32, error)
	QueryCalls   int
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.QueryCalls++
	if m.OnEmbedQuery != nil {
		return m.OnEmbedQuery(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.OnEmbedBatch != nil {
		return m.OnEmbedBatch(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

// MockLLM implements llm.Provider.
type MockLLM struct {
	OnComplete func(ctx context.Context, messages []chatModel.ConversationMessage) (string, error)
	LastInput  []chatModel.ConversationMessage
}

func (m *MockLLM) Complete(ctx context.Context, messages []chatModel.ConversationMessage) (string, error) {
	m.LastInput = messages
	if m.OnComplete != nil {
		return m.OnComplete(ctx, messages)
	}
	return "mocked completion", nil
}

// Minimal store fakes for the ingestion job path.

type fakeMessages struct {
	channels map[string]chatModel.Channel
	messages map[string]chatModel.Message
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{
		channels: make(map[string]chatModel.Channel),
		messages: make(map[string]chatModel.Message),
	}
}

func (s *fakeMessages) SaveChannel(_ context.Context, ch chatModel.Channel) error {
	s.channels[ch.ID] = ch
	return nil
}

func (s *fakeMessages) GetChannel(_ context.Context, id string) (chatModel.Channel, error) {
	ch, ok := s.channels[id]
	if !ok {
		return chatModel.Channel{}, ragModel.ErrNotFound
	}
	return ch, nil
}

func (s *fakeMessages) SaveMessage(_ context.Context, m chatModel.Message) error {
	s.messages[m.ID] = m
	return nil
}

func (s *fakeMessages) GetMessage(_ context.Context, id string) (chatModel.Message, error) {
	m, ok := s.messages[id]
	if !ok {
		return chatModel.Message{}, ragModel.ErrNotFound
	}
	return m, nil
}

func (s *fakeMessages) MarkMessageEmbedded(_ context.Context, id string) error {
	m := s.messages[id]
	m.HasEmbedding = true
	s.messages[id] = m
	return nil
}

func (s *fakeMessages) ListUnembeddedMessages(context.Context, int) ([]string, error) {
	return nil, nil
}

func (s *fakeMessages) InitConversation(context.Context, string) error { return nil }
func (s *fakeMessages) HasConversation(context.Context, string) bool   { return false }
func (s *fakeMessages) AppendConversation(context.Context, string, []chatModel.ConversationMessage) error {
	return nil
}
func (s *fakeMessages) GetConversation(context.Context, string, int) ([]chatModel.ConversationMessage, error) {
	return nil, nil
}

type fakeDocuments struct {
	docs map[string]chatModel.Document
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{docs: make(map[string]chatModel.Document)}
}

func (s *fakeDocuments) SaveDocument(_ context.Context, d chatModel.Document) error {
	s.docs[d.ID] = d
	return nil
}

func (s *fakeDocuments) GetDocument(_ context.Context, id string) (chatModel.Document, error) {
	d, ok := s.docs[id]
	if !ok {
		return chatModel.Document{}, ragModel.ErrNotFound
	}
	return d, nil
}

func (s *fakeDocuments) MarkDocumentEmbedded(_ context.Context, id string) error {
	d := s.docs[id]
	d.HasEmbedding = true
	s.docs[id] = d
	return nil
}

func (s *fakeDocuments) ListUnembeddedDocuments(context.Context, int) ([]string, error) {
	return nil, nil
}
