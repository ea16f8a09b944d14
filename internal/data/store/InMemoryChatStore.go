package store

import (
	"context"
	"sync"

	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
)

// InMemoryChatStore implements chatModel.MessageStore without redis.
type InMemoryChatStore struct {
	mu            sync.RWMutex
	channels      map[string]chatModel.Channel
	messages      map[string]chatModel.Message
	conversations map[string][]chatModel.ConversationMessage
	initialized   map[string]bool
}

func NewInMemoryChatStore() *InMemoryChatStore {
	return &InMemoryChatStore{
		channels:      make(map[string]chatModel.Channel),
		messages:      make(map[string]chatModel.Message),
		conversations: make(map[string][]chatModel.ConversationMessage),
		initialized:   make(map[string]bool),
	}
}

func (s *InMemoryChatStore) SaveChannel(_ context.Context, ch chatModel.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[ch.ID] = ch
	return nil
}

func (s *InMemoryChatStore) GetChannel(_ context.Context, id string) (chatModel.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[id]
	if !ok {
		return chatModel.Channel{}, ragModel.ErrNotFound
	}
	return ch, nil
}

func (s *InMemoryChatStore) SaveMessage(_ context.Context, m chatModel.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.ID] = m
	return nil
}

func (s *InMemoryChatStore) GetMessage(_ context.Context, id string) (chatModel.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return chatModel.Message{}, ragModel.ErrNotFound
	}
	return m, nil
}

func (s *InMemoryChatStore) MarkMessageEmbedded(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return ragModel.ErrNotFound
	}
	m.HasEmbedding = true
	s.messages[id] = m
	return nil
}

func (s *InMemoryChatStore) ListUnembeddedMessages(_ context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, m := range s.messages {
		if m.HasEmbedding {
			continue
		}
		ids = append(ids, id)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

func (s *InMemoryChatStore) InitConversation(_ context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[chatID] = nil
	s.initialized[chatID] = true
	return nil
}

func (s *InMemoryChatStore) HasConversation(_ context.Context, chatID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized[chatID]
}

func (s *InMemoryChatStore) AppendConversation(_ context.Context, chatID string, turns []chatModel.ConversationMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[chatID] = append(s.conversations[chatID], turns...)
	return nil
}

func (s *InMemoryChatStore) GetConversation(_ context.Context, chatID string, limit int) ([]chatModel.ConversationMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.conversations[chatID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]chatModel.ConversationMessage, len(turns))
	copy(out, turns)
	return out, nil
}
