package retrieve

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
	"github.com/huddleapp/huddle/internal/rag/embedding"
	"github.com/huddleapp/huddle/internal/rag/vectorDB"
	"github.com/huddleapp/huddle/pkg/logging"
)

// Options scopes one retrieval. ChannelID selects channel-shared content,
// OwnerID selects personal documents; either may be empty. MessagesOnly
// narrows the channel scope to message chunks.
type Options struct {
	ChannelID    string
	OwnerID      string
	Limit        int
	MessagesOnly bool
}

func (o Options) empty() bool { return o.ChannelID == "" && o.OwnerID == "" }

// Service answers similarity queries over the chunk index, fanning out one
// sub-query per requested scope and fusing the results.
type Service struct {
	embedder embedding.Embedder
	index    vectorDB.Index
	logger   *logging.Logger
}

func NewService(e embedding.Embedder, idx vectorDB.Index) *Service {
	return &Service{
		embedder: e,
		index:    idx,
		logger:   logging.NewLogger("retrieve"),
	}
}

// Retrieve embeds the query once and delegates to RetrieveWithVector.
func (s *Service) Retrieve(ctx context.Context, query string, opts Options) ([]ragModel.RetrievalResult, error) {
	if opts.empty() {
		return nil, nil
	}
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return s.RetrieveWithVector(ctx, vector, opts)
}

// RetrieveWithVector runs the scoped sub-queries concurrently, then fuses
// them into one list sorted by score descending. Ties keep sub-query order
// (channel scope before owner scope), so fusion is deterministic.
func (s *Service) RetrieveWithVector(ctx context.Context, vector []float32, opts Options) ([]ragModel.RetrievalResult, error) {
	if opts.empty() {
		return nil, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = config.DefaultRetrievalLimit
	}

	var filters []ragModel.Filter
	if opts.ChannelID != "" {
		f := ragModel.Filter{ChannelID: opts.ChannelID}
		if opts.MessagesOnly {
			f.Type = ragModel.TypeMessage
		}
		filters = append(filters, f)
	}
	if opts.OwnerID != "" {
		filters = append(filters, ragModel.Filter{
			Type:    ragModel.TypePDFChunk,
			OwnerID: opts.OwnerID,
		})
	}

	var wg sync.WaitGroup
	perScope := make([][]ragModel.Hit, len(filters))
	errs := make([]error, len(filters))
	for i, f := range filters {
		wg.Add(1)
		go func(i int, f ragModel.Filter) {
			defer wg.Done()
			perScope[i], errs[i] = s.index.Query(ctx, config.ChunkPartition, vector, f, limit)
		}(i, f)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("querying index: %w", err)
		}
	}

	var fused []ragModel.RetrievalResult
	for _, hits := range perScope {
		for _, h := range hits {
			fused = append(fused, ragModel.RetrievalResult{
				Text:  h.Meta.Content(),
				Score: h.Score,
				Meta:  h.Meta,
			})
		}
	}
	sort.SliceStable(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	if len(fused) > limit {
		fused = fused[:limit]
	}

	s.logger.Debug("retrieval complete", "scopes", len(filters), "results", len(fused))
	return fused, nil
}
