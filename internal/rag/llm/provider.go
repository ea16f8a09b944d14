package llm

import (
	"context"

	"github.com/huddleapp/huddle/internal/domain/chatModel"
)

// Provider is the completion capability. One call per answer: no
// streaming, no retries.
type Provider interface {
	Complete(ctx context.Context, messages []chatModel.ConversationMessage) (string, error)
}
