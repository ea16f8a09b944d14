package qdrantDB

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
	"github.com/huddleapp/huddle/internal/rag/vectorDB"
	"github.com/huddleapp/huddle/pkg/logging"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

var dimension = uint64(config.EmbeddingDimension)

// Store adapts the qdrant gRPC client to the Index interface. One
// collection per partition, cosine distance, metadata in point payloads.
type Store struct {
	client *qdrant.Client
	logger *logging.Logger
}

func NewStore(ctx context.Context) (*Store, error) {
	logger := logging.NewLogger("qdrant")

	host := os.Getenv("QDRANT_HOST")
	port, err := strconv.Atoi(os.Getenv("QDRANT_PORT"))
	if host == "" || err != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
		GrpcOptions: []grpc.DialOption{
			grpc.WithKeepaliveParams(keepalive.ClientParameters{
				Time:    config.QdrantKeepAliveTime,
				Timeout: config.QdrantKeepAliveTimeout,
			}),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	s := &Store{client: client, logger: logger}
	for _, partition := range []string{config.ChunkPartition, config.AnswerCachePartition} {
		if err := s.ensurePartition(ctx, partition); err != nil {
			return nil, err
		}
	}

	go s.closeOnDone(ctx)
	return s, nil
}

func (s *Store) closeOnDone(ctx context.Context) {
	<-ctx.Done()
	s.logger.Info("shutting down qdrant client")
	if err := s.client.Close(); err != nil {
		s.logger.Error("closing qdrant client", "error", err)
	}
}

func (s *Store) ensurePartition(ctx context.Context, partition string) error {
	exists, err := s.client.CollectionExists(ctx, partition)
	if err != nil {
		return fmt.Errorf("checking collection %q: %w", partition, err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: partition,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", partition, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, partition string, records []ragModel.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, rec := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(rec.ID),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: qdrant.NewValueMap(toPayload(rec.Meta)),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: partition,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, partition string, vector []float32, filter ragModel.Filter, topK int) ([]ragModel.Hit, error) {
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: partition,
		Query:          qdrant.NewQuery(vector...),
		Filter:         toFilter(filter),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	hits := make([]ragModel.Hit, 0, len(results))
	for _, point := range results {
		meta, err := fromPayload(point.Payload)
		if err != nil {
			s.logger.Warn("skipping point with unreadable payload", "error", err)
			continue
		}
		hits = append(hits, ragModel.Hit{
			ID:    pointID(point.Id),
			Score: point.Score,
			Meta:  meta,
		})
	}
	return hits, nil
}

func (s *Store) Reset(ctx context.Context) error {
	for _, partition := range []string{config.ChunkPartition, config.AnswerCachePartition} {
		if err := s.client.DeleteCollection(ctx, partition); err != nil {
			return fmt.Errorf("deleting collection %q: %w", partition, err)
		}
		if err := s.ensurePartition(ctx, partition); err != nil {
			return err
		}
	}
	return nil
}

func toFilter(f ragModel.Filter) *qdrant.Filter {
	if f.IsZero() {
		return nil
	}
	var must []*qdrant.Condition
	if f.Type != "" {
		must = append(must, qdrant.NewMatch(fieldType, string(f.Type)))
	}
	if f.ChannelID != "" {
		must = append(must, qdrant.NewMatch(fieldChannelID, f.ChannelID))
	}
	if f.OwnerID != "" {
		must = append(must, qdrant.NewMatch(fieldOwnerID, f.OwnerID))
	}
	return &qdrant.Filter{Must: must}
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

var _ vectorDB.Index = (*Store)(nil)
