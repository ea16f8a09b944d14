package openaiEmbedding

import (
	"context"
	"fmt"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/customHttpClient"
	"github.com/huddleapp/huddle/internal/rag/embedding"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client embeds text with OpenAI's embedding API. text-embedding-3-large
// natively produces the 3072-dimensional vectors the index is created with.
type Client struct {
	api   openai.Client
	model openai.EmbeddingModel
}

func NewClient(apiKey string) *Client {
	return &Client{
		api: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithHTTPClient(customHttpClient.Pooled()),
		),
		model: openai.EmbeddingModel(config.OpenAIEmbeddingModel),
	}
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:      c.model,
		Dimensions: openai.Int(int64(config.EmbeddingDimension)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embedding: got %d vectors for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors[int(d.Index)] = vec
	}
	return vectors, nil
}

var _ embedding.Embedder = (*Client)(nil)
