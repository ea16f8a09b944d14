package memoryDB

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/huddleapp/huddle/internal/domain/ragModel"
	"github.com/huddleapp/huddle/internal/rag/vectorDB"
)

type cacheEntry struct {
	vector []float32
	answer string
	scope  string
}

// Store is a brute-force cosine-similarity index held in process memory.
// It backs tests and local development without a running qdrant.
type Store struct {
	mu         sync.RWMutex
	partitions map[string]map[string]ragModel.Record
	cache      map[string]cacheEntry
	cutoff     float32
}

func NewStore(cacheCutoff float32) *Store {
	return &Store{
		partitions: make(map[string]map[string]ragModel.Record),
		cache:      make(map[string]cacheEntry),
		cutoff:     cacheCutoff,
	}
}

func (s *Store) Upsert(_ context.Context, partition string, records []ragModel.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	part, ok := s.partitions[partition]
	if !ok {
		part = make(map[string]ragModel.Record)
		s.partitions[partition] = part
	}
	for _, rec := range records {
		part[rec.ID] = rec
	}
	return nil
}

func (s *Store) Query(_ context.Context, partition string, vector []float32, filter ragModel.Filter, topK int) ([]ragModel.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []ragModel.Hit
	for _, rec := range s.partitions[partition] {
		if !matches(rec.Meta, filter) {
			continue
		}
		hits = append(hits, ragModel.Hit{
			ID:    rec.ID,
			Score: cosine(vector, rec.Vector),
			Meta:  rec.Meta,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partitions = make(map[string]map[string]ragModel.Record)
	s.cache = make(map[string]cacheEntry)
	return nil
}

func (s *Store) GetCachedAnswer(_ context.Context, scope string, queryVector []float32) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	best := float32(-1)
	answer := ""
	for _, e := range s.cache {
		if e.scope != scope {
			continue
		}
		if score := cosine(queryVector, e.vector); score > best {
			best = score
			answer = e.answer
		}
	}
	if best < s.cutoff {
		return "", false, nil
	}
	return answer, true, nil
}

func (s *Store) SaveToCache(_ context.Context, id, scope string, vector []float32, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[id] = cacheEntry{vector: vector, answer: answer, scope: scope}
	return nil
}

// Len reports how many records a partition holds.
func (s *Store) Len(partition string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.partitions[partition])
}

func matches(meta ragModel.Meta, f ragModel.Filter) bool {
	if f.Type != "" && meta.RecordType() != f.Type {
		return false
	}
	if f.ChannelID != "" && channelOf(meta) != f.ChannelID {
		return false
	}
	if f.OwnerID != "" && ownerOf(meta) != f.OwnerID {
		return false
	}
	return true
}

func channelOf(meta ragModel.Meta) string {
	switch m := meta.(type) {
	case ragModel.MessageMeta:
		return m.ChannelID
	case ragModel.PDFChunkMeta:
		return m.ChannelID
	}
	return ""
}

func ownerOf(meta ragModel.Meta) string {
	if m, ok := meta.(ragModel.PDFChunkMeta); ok {
		return m.OwnerID
	}
	return ""
}

func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ vectorDB.Index = (*Store)(nil)
