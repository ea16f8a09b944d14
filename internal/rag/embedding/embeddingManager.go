package embedding

import "context"

// Embedder turns text into fixed-dimension vectors. One vector per input,
// order preserved. A failure surfaces as an error; implementations never
// substitute zero vectors.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
