package store

import (
	"context"
	"encoding/json"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/data/redisStore"
	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
	"github.com/huddleapp/huddle/pkg/logging"
)

const pendingMessagesKey = "pending:messages"

// RedisChatStore keeps channels, messages, assistant conversations and the
// pending-embedding set in one redis database.
type RedisChatStore struct {
	store  *redisStore.Store
	logger *logging.Logger
}

func NewRedisChatStore(store *redisStore.Store) *RedisChatStore {
	return &RedisChatStore{
		store:  store,
		logger: logging.NewLogger("chatStore"),
	}
}

func (s *RedisChatStore) SaveChannel(ctx context.Context, ch chatModel.Channel) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, channelKey(ch.ID), data, 0)
}

func (s *RedisChatStore) GetChannel(ctx context.Context, id string) (chatModel.Channel, error) {
	var ch chatModel.Channel
	val, err := s.store.Get(ctx, channelKey(id))
	if s.store.IsNil(err) {
		return ch, ragModel.ErrNotFound
	}
	if err != nil {
		return ch, err
	}
	return ch, json.Unmarshal([]byte(val), &ch)
}

// SaveMessage persists the message and tracks it as pending embedding until
// MarkMessageEmbedded runs.
func (s *RedisChatStore) SaveMessage(ctx context.Context, m chatModel.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, messageKey(m.ID), data, 0); err != nil {
		return err
	}
	if !m.HasEmbedding {
		return s.store.SetAdd(ctx, pendingMessagesKey, m.ID)
	}
	return nil
}

func (s *RedisChatStore) GetMessage(ctx context.Context, id string) (chatModel.Message, error) {
	var m chatModel.Message
	val, err := s.store.Get(ctx, messageKey(id))
	if s.store.IsNil(err) {
		return m, ragModel.ErrNotFound
	}
	if err != nil {
		return m, err
	}
	return m, json.Unmarshal([]byte(val), &m)
}

func (s *RedisChatStore) MarkMessageEmbedded(ctx context.Context, id string) error {
	m, err := s.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	m.HasEmbedding = true
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, messageKey(id), data, 0); err != nil {
		return err
	}
	return s.store.SetRemove(ctx, pendingMessagesKey, id)
}

func (s *RedisChatStore) ListUnembeddedMessages(ctx context.Context, limit int) ([]string, error) {
	return s.store.SetSample(ctx, pendingMessagesKey, limit)
}

func (s *RedisChatStore) InitConversation(ctx context.Context, chatID string) error {
	if err := s.store.Del(ctx, conversationKey(chatID)); err != nil {
		return err
	}
	return s.store.Set(ctx, conversationMetaKey(chatID), "1", config.RedisChatStoreTTL)
}

func (s *RedisChatStore) HasConversation(ctx context.Context, chatID string) bool {
	found, err := s.store.Exists(ctx, conversationMetaKey(chatID))
	if err != nil {
		s.logger.Error("checking conversation", "chatId", chatID, "error", err)
		return false
	}
	return found
}

func (s *RedisChatStore) AppendConversation(ctx context.Context, chatID string, turns []chatModel.ConversationMessage) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(turns))
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			return err
		}
		values = append(values, data)
	}
	if err := s.store.ListPush(ctx, conversationKey(chatID), values...); err != nil {
		return err
	}
	return s.store.Expire(ctx, conversationKey(chatID), config.RedisChatStoreTTL)
}

// GetConversation returns the last limit turns in chronological order.
func (s *RedisChatStore) GetConversation(ctx context.Context, chatID string, limit int) ([]chatModel.ConversationMessage, error) {
	raw, err := s.store.ListTail(ctx, conversationKey(chatID), limit)
	if err != nil {
		return nil, err
	}
	turns := make([]chatModel.ConversationMessage, 0, len(raw))
	for _, item := range raw {
		var turn chatModel.ConversationMessage
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			s.logger.Error("corrupt conversation turn", "chatId", chatID, "error", err)
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func channelKey(id string) string          { return "channel:" + id }
func messageKey(id string) string          { return "message:" + id }
func conversationKey(id string) string     { return "conv:" + id }
func conversationMetaKey(id string) string { return "convmeta:" + id }
