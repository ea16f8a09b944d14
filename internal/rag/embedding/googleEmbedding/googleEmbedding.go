package googleEmbedding

import (
	"context"
	"fmt"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/rag/embedding"
	"google.golang.org/genai"
)

var dimension = config.EmbeddingDimension

// Client embeds text through the Gemini embedding API. Construct once at
// startup and share; the underlying transport is stateless. Provider errors
// surface to the caller unchanged; the ingestion sweep is the retry path.
type Client struct {
	genAi *genai.Client
	model string
}

func NewClient(ctx context.Context, modelName, apiKey string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating google embedding client: %w", err)
	}
	return &Client{
		genAi: c,
		model: modelName,
	}, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	result, err := c.genAi.Models.EmbedContent(ctx, c.model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             "RETRIEVAL_QUERY",
	})
	if err != nil {
		return nil, fmt.Errorf("google embedding query: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("google embedding query: empty response")
	}
	return result.Embeddings[0].Values, nil
}

func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result, err := c.genAi.Models.EmbedContent(ctx, c.model, toContents(texts), &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             "RETRIEVAL_DOCUMENT",
	})
	if err != nil {
		return nil, fmt.Errorf("google embedding batch: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("google embedding batch: got %d vectors for %d texts", len(result.Embeddings), len(texts))
	}

	vectors := make([][]float32, 0, len(result.Embeddings))
	for _, e := range result.Embeddings {
		vectors = append(vectors, e.Values)
	}
	return vectors, nil
}

func toContents(texts []string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: t}},
		})
	}
	return contents
}

var _ embedding.Embedder = (*Client)(nil)
