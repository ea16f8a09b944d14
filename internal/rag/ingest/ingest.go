package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/data/objectstore"
	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
	"github.com/huddleapp/huddle/internal/metrics"
	"github.com/huddleapp/huddle/internal/rag/chunker"
	"github.com/huddleapp/huddle/internal/rag/embedding"
	"github.com/huddleapp/huddle/internal/rag/vectorDB"
	"github.com/huddleapp/huddle/pkg/logging"
)

// Pipeline turns one source (a message or an uploaded document) into
// indexed vector records exactly once per successful run. The completion
// flag on the source is only set after every chunk upsert acknowledged.
type Pipeline struct {
	embedder  embedding.Embedder
	index     vectorDB.Index
	messages  chatModel.MessageStore
	docs      chatModel.DocumentStore
	objects   objectstore.Store
	batchSize int
	logger    *logging.Logger
}

func NewPipeline(e embedding.Embedder, idx vectorDB.Index, messages chatModel.MessageStore, docs chatModel.DocumentStore, objects objectstore.Store) *Pipeline {
	return &Pipeline{
		embedder:  e,
		index:     idx,
		messages:  messages,
		docs:      docs,
		objects:   objects,
		batchSize: config.EmbedBatchSize,
		logger:    logging.NewLogger("ingest"),
	}
}

// IngestMessage chunks, embeds and indexes one channel message. Already
// embedded messages are a no-op, as are messages whose body is empty after
// markup stripping.
func (p *Pipeline) IngestMessage(ctx context.Context, messageID string) error {
	msg, err := p.messages.GetMessage(ctx, messageID)
	if err != nil {
		return fmt.Errorf("loading message %s: %w", messageID, err)
	}
	if msg.HasEmbedding {
		return nil
	}

	ch, err := p.messages.GetChannel(ctx, msg.ChannelID)
	if err != nil {
		return fmt.Errorf("loading channel %s: %w", msg.ChannelID, err)
	}

	plain := StripMarkup(msg.Body)
	chunks := chunker.Split(plain, config.MessageChunkSize, config.MessageChunkOverlap)
	if len(chunks) == 0 {
		// An empty chunk stream is valid output for an empty source.
		return p.messages.MarkMessageEmbedded(ctx, messageID)
	}

	records := make([]ragModel.Record, len(chunks))
	for i, text := range chunks {
		records[i] = ragModel.Record{
			ID:     ChunkID(msg.ID, i),
			Vector: nil,
			Meta: ragModel.MessageMeta{
				MessageID:   msg.ID,
				ChannelID:   msg.ChannelID,
				SenderID:    msg.SenderID,
				IsDM:        ch.IsDM,
				ChunkIndex:  i,
				TotalChunks: len(chunks),
				Text:        text,
				CreatedAt:   msg.CreatedAt,
			},
		}
	}

	if err := p.embedAndUpsert(ctx, chunks, records); err != nil {
		return fmt.Errorf("ingesting message %s: %w", messageID, err)
	}
	metrics.CountChunksIngested("message", len(records))
	return p.messages.MarkMessageEmbedded(ctx, messageID)
}

// IngestDocument extracts, chunks, embeds and indexes one uploaded
// document. Chunk indices run over the whole document even when the
// extractor yields multiple pages; page numbers are a best-effort hint.
func (p *Pipeline) IngestDocument(ctx context.Context, documentID string) error {
	doc, err := p.docs.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("loading document %s: %w", documentID, err)
	}
	if doc.HasEmbedding {
		return nil
	}

	path, err := p.objects.Resolve(doc.FileKey)
	if err != nil {
		return fmt.Errorf("resolving file for document %s: %w", documentID, err)
	}

	pages, err := extractText(path)
	if err != nil {
		return fmt.Errorf("extracting document %s: %w", documentID, err)
	}

	var texts []string
	var pageNums []int
	for _, page := range pages {
		for _, text := range chunker.Window(page.content, config.DocumentChunkSize, config.DocumentChunkOverlap) {
			if strings.TrimSpace(text) == "" {
				continue
			}
			texts = append(texts, text)
			pageNums = append(pageNums, page.number)
		}
	}
	if len(texts) == 0 {
		return p.docs.MarkDocumentEmbedded(ctx, documentID)
	}

	records := make([]ragModel.Record, len(texts))
	for i, text := range texts {
		records[i] = ragModel.Record{
			ID: ChunkID(doc.ID, i),
			Meta: ragModel.PDFChunkMeta{
				DocumentID:   doc.ID,
				OwnerID:      doc.OwnerID,
				MessageID:    doc.MessageID,
				ChannelID:    doc.ChannelID,
				SenderID:     doc.SenderID,
				AttachmentID: doc.AttachmentID,
				Filename:     doc.Filename,
				IsDM:         doc.IsDM,
				PageNumber:   pageNums[i],
				ChunkIndex:   i,
				TotalChunks:  len(texts),
				Text:         text,
				CreatedAt:    doc.CreatedAt,
			},
		}
	}

	if err := p.embedAndUpsert(ctx, texts, records); err != nil {
		return fmt.Errorf("ingesting document %s: %w", documentID, err)
	}
	metrics.CountChunksIngested("document", len(records))
	return p.docs.MarkDocumentEmbedded(ctx, documentID)
}

// embedAndUpsert processes chunks in batches. A failure anywhere aborts
// the job; already-upserted batches stay in the index and a retried run
// overwrites them (chunk ids are deterministic).
func (p *Pipeline) embedAndUpsert(ctx context.Context, texts []string, records []ragModel.Record) error {
	for start := 0; start < len(records); start += p.batchSize {
		end := start + p.batchSize
		if end > len(records) {
			end = len(records)
		}

		vectors, err := p.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return fmt.Errorf("embedding batch: %w", err)
		}
		if len(vectors) != end-start {
			return fmt.Errorf("embedding batch: got %d vectors for %d chunks", len(vectors), end-start)
		}
		for i := start; i < end; i++ {
			records[i].Vector = vectors[i-start]
		}

		if err := p.index.Upsert(ctx, config.ChunkPartition, records[start:end]); err != nil {
			return fmt.Errorf("upserting batch: %w", err)
		}
	}
	return nil
}

// SweepKind selects which source kind a sweep processes.
type SweepKind string

const (
	SweepMessages  SweepKind = "messages"
	SweepDocuments SweepKind = "documents"
)

// SweepReport summarises one ProcessUnembedded run.
type SweepReport struct {
	Kind      SweepKind `json:"kind"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
}

// ProcessUnembedded re-ingests up to limit sources whose completion flag is
// still unset. Each source is processed independently; one failure never
// aborts the batch.
func (p *Pipeline) ProcessUnembedded(ctx context.Context, kind SweepKind, limit int) SweepReport {
	report := SweepReport{Kind: kind}

	var ids []string
	var err error
	switch kind {
	case SweepDocuments:
		ids, err = p.docs.ListUnembeddedDocuments(ctx, limit)
	default:
		ids, err = p.messages.ListUnembeddedMessages(ctx, limit)
	}
	if err != nil {
		p.logger.Error("listing unembedded sources", "kind", kind, "error", err)
		return report
	}

	for _, id := range ids {
		if kind == SweepDocuments {
			err = p.IngestDocument(ctx, id)
		} else {
			err = p.IngestMessage(ctx, id)
		}
		if err != nil {
			p.logger.Error("sweep item failed", "kind", kind, "id", id, "error", err)
			report.Failed++
			continue
		}
		report.Processed++
	}
	return report
}

// ChunkID derives a stable record id from the source and chunk position so
// that re-ingesting a source overwrites its records in place.
func ChunkID(sourceID string, chunkIndex int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(sourceID+":"+strconv.Itoa(chunkIndex))).String()
}
