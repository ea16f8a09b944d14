package vectorDB

import (
	"context"

	"github.com/huddleapp/huddle/internal/domain/ragModel"
)

// Index is the vector store capability. The ingestion pipeline writes,
// the retrieval service reads; partitions are independent namespaces.
type Index interface {
	// Upsert is idempotent per record ID: re-writing an ID overwrites
	// the stored vector and metadata in place.
	Upsert(ctx context.Context, partition string, records []ragModel.Record) error

	// Query returns up to topK nearest neighbours, descending by
	// similarity, restricted to records matching every set filter field.
	Query(ctx context.Context, partition string, vector []float32, filter ragModel.Filter, topK int) ([]ragModel.Hit, error)

	// Reset wipes every partition. Administrative/test use only.
	Reset(ctx context.Context) error

	// Answer cache: previously generated answers keyed by the semantic
	// similarity of their question embedding. Entries carry the retrieval
	// scope they were generated under; lookups only match within the same
	// scope, so a cached answer never crosses channels or users.
	GetCachedAnswer(ctx context.Context, scope string, queryVector []float32) (string, bool, error)
	SaveToCache(ctx context.Context, id, scope string, vector []float32, answer string) error
}
