package ragModel

import "time"

type RecordType string

const (
	TypeMessage  RecordType = "message"
	TypePDFChunk RecordType = "pdf_chunk"
)

// Meta is the provenance attached to a vector record. It is a closed union:
// exactly MessageMeta and PDFChunkMeta implement it, so consumers can switch
// on the concrete type instead of probing an optional-everything map.
type Meta interface {
	RecordType() RecordType
	// Content returns the chunk text duplicated into the record so
	// retrieval never has to re-fetch source storage.
	Content() string
}

// MessageMeta tags chunks that came from a channel message.
type MessageMeta struct {
	MessageID   string
	ChannelID   string
	SenderID    string
	IsDM        bool
	ChunkIndex  int
	TotalChunks int
	Text        string
	CreatedAt   time.Time
}

func (MessageMeta) RecordType() RecordType { return TypeMessage }
func (m MessageMeta) Content() string      { return m.Text }

// PDFChunkMeta tags chunks extracted from an uploaded document. Personal
// documents carry OwnerID; channel attachments carry the message/channel
// fields instead.
type PDFChunkMeta struct {
	DocumentID   string
	OwnerID      string
	MessageID    string
	ChannelID    string
	SenderID     string
	AttachmentID string
	Filename     string
	IsDM         bool
	PageNumber   int
	ChunkIndex   int
	TotalChunks  int
	Text         string
	CreatedAt    time.Time
}

func (PDFChunkMeta) RecordType() RecordType { return TypePDFChunk }
func (m PDFChunkMeta) Content() string      { return m.Text }

// Record is the unit stored in the vector index. Upserting the same ID
// overwrites in place.
type Record struct {
	ID     string
	Vector []float32
	Meta   Meta
}

// Filter is an exact-match conjunction over record metadata. Zero-valued
// fields are not part of the predicate.
type Filter struct {
	Type      RecordType
	ChannelID string
	OwnerID   string
}

func (f Filter) IsZero() bool {
	return f.Type == "" && f.ChannelID == "" && f.OwnerID == ""
}

// Hit is one nearest-neighbour result from the index.
type Hit struct {
	ID    string
	Score float32
	Meta  Meta
}

// RetrievalResult is the ephemeral per-request value the retrieval service
// hands to the answer path. Never persisted.
type RetrievalResult struct {
	Text  string
	Score float32
	Meta  Meta
}

// Source identifies a document a retrieved passage came from. Only results
// carrying both a filename and a document id become citable sources.
type Source struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	PageNumber int    `json:"page_number"`
}

// Answer is the generator's output: the completion, the passages that were
// actually injected into the prompt, and the citation sources derived from
// the full retrieval result (a cited source may have been budgeted out of
// the prompt).
type Answer struct {
	Content     string   `json:"content"`
	UsedContext []string `json:"context"`
	Sources     []Source `json:"sources"`
}
