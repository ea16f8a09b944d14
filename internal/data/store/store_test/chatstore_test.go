package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/huddleapp/huddle/internal/data/redisStore"
	"github.com/huddleapp/huddle/internal/data/store"
	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
)

func newChatStore(t *testing.T) *store.RedisChatStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return store.NewRedisChatStore(redisStore.NewTestStore(client))
}

func TestRedisChatStore_ChannelsAndMessages(t *testing.T) {
	chatStore := newChatStore(t)
	ctx := context.Background()

	if _, err := chatStore.GetChannel(ctx, "missing"); err != ragModel.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	ch := chatModel.Channel{ID: "eng", Name: "engineering", IsDM: false}
	if err := chatStore.SaveChannel(ctx, ch); err != nil {
		t.Fatalf("SaveChannel: %v", err)
	}
	got, err := chatStore.GetChannel(ctx, "eng")
	if err != nil || got.Name != "engineering" {
		t.Fatalf("GetChannel got %+v, err %v", got, err)
	}

	msg := chatModel.Message{ID: "m1", ChannelID: "eng", SenderID: "u1", Body: "hello"}
	if err := chatStore.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}
	back, err := chatStore.GetMessage(ctx, "m1")
	if err != nil || back.Body != "hello" || back.HasEmbedding {
		t.Fatalf("GetMessage got %+v, err %v", back, err)
	}
}

func TestRedisChatStore_PendingEmbeddingTracking(t *testing.T) {
	chatStore := newChatStore(t)
	ctx := context.Background()

	for _, id := range []string{"m1", "m2"} {
		if err := chatStore.SaveMessage(ctx, chatModel.Message{ID: id, ChannelID: "eng", Body: "x"}); err != nil {
			t.Fatalf("SaveMessage %s: %v", id, err)
		}
	}

	pending, err := chatStore.ListUnembeddedMessages(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnembeddedMessages: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending messages, got %d", len(pending))
	}

	if err := chatStore.MarkMessageEmbedded(ctx, "m1"); err != nil {
		t.Fatalf("MarkMessageEmbedded: %v", err)
	}
	m, _ := chatStore.GetMessage(ctx, "m1")
	if !m.HasEmbedding {
		t.Fatal("flag not persisted")
	}

	pending, _ = chatStore.ListUnembeddedMessages(ctx, 10)
	if len(pending) != 1 || pending[0] != "m2" {
		t.Fatalf("expected only m2 pending, got %v", pending)
	}
}

func TestRedisChatStore_ConversationHistory(t *testing.T) {
	chatStore := newChatStore(t)
	ctx := context.Background()
	chatID := "chat-1"

	if chatStore.HasConversation(ctx, chatID) {
		t.Fatal("conversation should not exist before init")
	}
	if err := chatStore.InitConversation(ctx, chatID); err != nil {
		t.Fatalf("InitConversation: %v", err)
	}
	if !chatStore.HasConversation(ctx, chatID) {
		t.Fatal("conversation missing after init")
	}

	turns := []chatModel.ConversationMessage{
		{Role: chatModel.RoleUser, Content: "first question"},
		{Role: chatModel.RoleAssistant, Content: "first answer"},
		{Role: chatModel.RoleUser, Content: "second question"},
		{Role: chatModel.RoleAssistant, Content: "second answer"},
	}
	if err := chatStore.AppendConversation(ctx, chatID, turns); err != nil {
		t.Fatalf("AppendConversation: %v", err)
	}

	history, err := chatStore.GetConversation(ctx, chatID, 10)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(history))
	}
	if history[0].Content != "first question" || history[3].Content != "second answer" {
		t.Fatal("turn order not preserved")
	}

	tail, err := chatStore.GetConversation(ctx, chatID, 2)
	if err != nil {
		t.Fatalf("GetConversation tail: %v", err)
	}
	if len(tail) != 2 || tail[0].Content != "second question" {
		t.Fatalf("expected last 2 turns, got %+v", tail)
	}
}

func TestRedisDocumentStore_Lifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	docStore := store.NewRedisDocumentStore(redisStore.NewTestStore(client))
	ctx := context.Background()

	doc := chatModel.Document{
		ID:       "d1",
		OwnerID:  "u1",
		Filename: "handbook.pdf",
		FileKey:  "d1.pdf",
	}
	if err := docStore.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	got, err := docStore.GetDocument(ctx, "d1")
	if err != nil || got.Filename != "handbook.pdf" {
		t.Fatalf("GetDocument got %+v, err %v", got, err)
	}
	if !got.IsPersonal() {
		t.Fatal("owner-scoped document should be personal")
	}

	pending, _ := docStore.ListUnembeddedDocuments(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending document, got %d", len(pending))
	}

	if err := docStore.MarkDocumentEmbedded(ctx, "d1"); err != nil {
		t.Fatalf("MarkDocumentEmbedded: %v", err)
	}
	pending, _ = docStore.ListUnembeddedDocuments(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected no pending documents, got %v", pending)
	}
}
