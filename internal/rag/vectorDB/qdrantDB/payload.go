package qdrantDB

import (
	"fmt"
	"time"

	"github.com/huddleapp/huddle/internal/domain/ragModel"
	"github.com/qdrant/go-client/qdrant"
)

// Payload field names. Retrieval filters match on type, channel_id and
// owner_id; everything else is provenance carried back to the caller.
const (
	fieldType         = "type"
	fieldContent      = "content"
	fieldMessageID    = "message_id"
	fieldChannelID    = "channel_id"
	fieldSenderID     = "sender_id"
	fieldIsDM         = "is_dm"
	fieldOwnerID      = "owner_id"
	fieldDocumentID   = "document_id"
	fieldAttachmentID = "attachment_id"
	fieldFilename     = "filename"
	fieldPageNum      = "page_num"
	fieldChunkIndex   = "chunk_index"
	fieldTotalChunks  = "total_chunks"
	fieldCreatedAt    = "created_at"

	// Answer cache payload fields.
	fieldScope  = "scope"
	fieldAnswer = "answer"
)

func toPayload(meta ragModel.Meta) map[string]any {
	switch m := meta.(type) {
	case ragModel.MessageMeta:
		return map[string]any{
			fieldType:        string(ragModel.TypeMessage),
			fieldContent:     m.Text,
			fieldMessageID:   m.MessageID,
			fieldChannelID:   m.ChannelID,
			fieldSenderID:    m.SenderID,
			fieldIsDM:        m.IsDM,
			fieldChunkIndex:  m.ChunkIndex,
			fieldTotalChunks: m.TotalChunks,
			fieldCreatedAt:   m.CreatedAt.Unix(),
		}
	case ragModel.PDFChunkMeta:
		return map[string]any{
			fieldType:         string(ragModel.TypePDFChunk),
			fieldContent:      m.Text,
			fieldDocumentID:   m.DocumentID,
			fieldOwnerID:      m.OwnerID,
			fieldMessageID:    m.MessageID,
			fieldChannelID:    m.ChannelID,
			fieldSenderID:     m.SenderID,
			fieldAttachmentID: m.AttachmentID,
			fieldFilename:     m.Filename,
			fieldIsDM:         m.IsDM,
			fieldPageNum:      m.PageNumber,
			fieldChunkIndex:   m.ChunkIndex,
			fieldTotalChunks:  m.TotalChunks,
			fieldCreatedAt:    m.CreatedAt.Unix(),
		}
	default:
		return map[string]any{fieldType: string(meta.RecordType()), fieldContent: meta.Content()}
	}
}

func fromPayload(payload map[string]*qdrant.Value) (ragModel.Meta, error) {
	recordType := ragModel.RecordType(payload[fieldType].GetStringValue())
	switch recordType {
	case ragModel.TypeMessage:
		return ragModel.MessageMeta{
			Text:        payload[fieldContent].GetStringValue(),
			MessageID:   payload[fieldMessageID].GetStringValue(),
			ChannelID:   payload[fieldChannelID].GetStringValue(),
			SenderID:    payload[fieldSenderID].GetStringValue(),
			IsDM:        payload[fieldIsDM].GetBoolValue(),
			ChunkIndex:  int(payload[fieldChunkIndex].GetIntegerValue()),
			TotalChunks: int(payload[fieldTotalChunks].GetIntegerValue()),
			CreatedAt:   time.Unix(payload[fieldCreatedAt].GetIntegerValue(), 0).UTC(),
		}, nil
	case ragModel.TypePDFChunk:
		return ragModel.PDFChunkMeta{
			Text:         payload[fieldContent].GetStringValue(),
			DocumentID:   payload[fieldDocumentID].GetStringValue(),
			OwnerID:      payload[fieldOwnerID].GetStringValue(),
			MessageID:    payload[fieldMessageID].GetStringValue(),
			ChannelID:    payload[fieldChannelID].GetStringValue(),
			SenderID:     payload[fieldSenderID].GetStringValue(),
			AttachmentID: payload[fieldAttachmentID].GetStringValue(),
			Filename:     payload[fieldFilename].GetStringValue(),
			IsDM:         payload[fieldIsDM].GetBoolValue(),
			PageNumber:   int(payload[fieldPageNum].GetIntegerValue()),
			ChunkIndex:   int(payload[fieldChunkIndex].GetIntegerValue()),
			TotalChunks:  int(payload[fieldTotalChunks].GetIntegerValue()),
			CreatedAt:    time.Unix(payload[fieldCreatedAt].GetIntegerValue(), 0).UTC(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown record type %q", recordType)
	}
}
