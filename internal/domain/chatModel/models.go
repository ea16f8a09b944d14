package chatModel

import (
	"context"
	"time"
)

type Channel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsDM      bool      `json:"is_dm"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is a persisted channel message. Body is rich text; markup is
// stripped before the message is chunked and embedded.
type Message struct {
	ID           string    `json:"id"`
	ChannelID    string    `json:"channel_id"`
	SenderID     string    `json:"sender_id"`
	Body         string    `json:"body"`
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
}

// Document is an uploaded file, either a personal "My Docs" entry (OwnerID
// set) or a channel attachment (ChannelID/MessageID set).
type Document struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id,omitempty"`
	ChannelID    string    `json:"channel_id,omitempty"`
	MessageID    string    `json:"message_id,omitempty"`
	SenderID     string    `json:"sender_id,omitempty"`
	AttachmentID string    `json:"attachment_id,omitempty"`
	IsDM         bool      `json:"is_dm,omitempty"`
	Filename     string    `json:"filename"`
	FileKey      string    `json:"file_key"`
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
}

func (d Document) IsPersonal() bool { return d.OwnerID != "" }

// ConversationMessage is one turn of assistant conversation history. The
// core treats the sequence as opaque and ordered; it is never mutated.
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MessageStore persists channels, messages, assistant conversations and the
// per-message embedding completion flag.
type MessageStore interface {
	SaveChannel(ctx context.Context, ch Channel) error
	GetChannel(ctx context.Context, id string) (Channel, error)

	SaveMessage(ctx context.Context, m Message) error
	GetMessage(ctx context.Context, id string) (Message, error)
	MarkMessageEmbedded(ctx context.Context, id string) error
	ListUnembeddedMessages(ctx context.Context, limit int) ([]string, error)

	InitConversation(ctx context.Context, chatID string) error
	HasConversation(ctx context.Context, chatID string) bool
	AppendConversation(ctx context.Context, chatID string, turns []ConversationMessage) error
	GetConversation(ctx context.Context, chatID string, limit int) ([]ConversationMessage, error)
}

// DocumentStore persists document records and their embedding completion
// flag.
type DocumentStore interface {
	SaveDocument(ctx context.Context, d Document) error
	GetDocument(ctx context.Context, id string) (Document, error)
	MarkDocumentEmbedded(ctx context.Context, id string) error
	ListUnembeddedDocuments(ctx context.Context, limit int) ([]string, error)
}
