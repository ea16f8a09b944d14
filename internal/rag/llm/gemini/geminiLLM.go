package gemini

import (
	"context"
	"fmt"

	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
	"github.com/huddleapp/huddle/internal/rag/llm"
	"github.com/huddleapp/huddle/pkg/logging"
	"google.golang.org/genai"
)

// Client completes conversations with a Gemini model. System-role messages
// become the system instruction; user/assistant turns map to user/model
// contents.
type Client struct {
	genAi  *genai.Client
	model  string
	logger *logging.Logger
}

func NewClient(ctx context.Context, modelName, apiKey string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Client{
		genAi:  c,
		model:  modelName,
		logger: logging.NewLogger("gemini"),
	}, nil
}

func (c *Client) Complete(ctx context.Context, messages []chatModel.ConversationMessage) (string, error) {
	var system string
	var contents []*genai.Content

	for _, m := range messages {
		switch m.Role {
		case chatModel.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case chatModel.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}

	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	result, err := c.genAi.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", ragModel.ErrEmptyCompletion
	}
	return text, nil
}

var _ llm.Provider = (*Client)(nil)
