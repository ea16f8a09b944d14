package qdrantDB

import (
	"context"
	"time"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/qdrant/go-client/qdrant"
)

// Answer cache: generated answers stored under their question embedding.
// A close-enough repeat question short-circuits the whole RAG pipeline.
// Entries match only within the scope they were generated under, so a
// channel's answers never leak into another channel or a user's personal
// library.

func (s *Store) GetCachedAnswer(ctx context.Context, scope string, queryVector []float32) (string, bool, error) {
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: config.AnswerCachePartition,
		Query:          qdrant.NewQuery(queryVector...),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch(fieldScope, scope)},
		},
		Limit:       qdrant.PtrOf(uint64(1)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return "", false, err
	}
	if len(results) == 0 || results[0].Score < config.CacheSimilarityCutoff {
		return "", false, nil
	}
	return results[0].Payload[fieldAnswer].GetStringValue(), true, nil
}

func (s *Store) SaveToCache(ctx context.Context, id, scope string, vector []float32, answer string) error {
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: config.AnswerCachePartition,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(id),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					fieldAnswer: answer,
					fieldScope:  scope,
					"timestamp": time.Now().Unix(),
				}),
			},
		},
	})
	return err
}
