package api

import (
	"time"

	"github.com/huddleapp/huddle/internal/domain/ragModel"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	ChatId    string            `json:"chat_id,omitempty" example:"chat_550"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type RAGResponse struct {
	Question string            `json:"question"`
	Answer   string            `json:"answer"`
	Context  []string          `json:"context,omitempty"`
	Sources  []ragModel.Source `json:"sources,omitempty"`
}

type Result struct {
	Status              string       `json:"status"`
	RAGExternalResponse *RAGResponse `json:"rag_response,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type ChannelResponse struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	IsDM      bool      `json:"is_dm"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageResponse struct {
	Id        string `json:"id"`
	ChannelId string `json:"channel_id"`
	JobId     string `json:"job_id"`
}

type DocsChatResponse struct {
	Answer  string            `json:"answer"`
	ChatId  string            `json:"chat_id"`
	Context []string          `json:"context,omitempty"`
	Sources []ragModel.Source `json:"sources,omitempty"`
}

type RetrievalResultResponse struct {
	Text  string  `json:"text"`
	Score float32 `json:"score"`
	Type  string  `json:"type"`
}

type SweepResponse struct {
	Kind      string `json:"kind"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
}

// requests---------------------

type CreateChannelRequest struct {
	Name string `json:"name" validate:"required"`
	IsDM bool   `json:"is_dm,omitempty"`
}

type PostMessageRequest struct {
	SenderID string `json:"sender_id" validate:"required"`
	Body     string `json:"body" validate:"required"`
}

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
	ChatID  string `json:"chatID,omitempty"`
}

type DocsChatRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Message string `json:"message" validate:"required"`
	ChatID  string `json:"chatID,omitempty"`
}

type AdminQueryRequest struct {
	Query        string `json:"query" validate:"required"`
	ChannelID    string `json:"channel_id,omitempty"`
	OwnerID      string `json:"owner_id,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	MessagesOnly bool   `json:"messages_only,omitempty"`
}

type AdminSweepRequest struct {
	Kind  string `json:"kind,omitempty"`
	Limit int    `json:"limit,omitempty"`
}
