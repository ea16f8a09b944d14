package jobModel

import (
	"context"
	"time"

	"github.com/huddleapp/huddle/internal/domain/ragModel"
)

type JobStatus string
type InternalStatus string
type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "ERROR"

	StepInit       InternalStatus = "Init"
	StepCacheCheck InternalStatus = "CacheCheck"
	StepEmbedding  InternalStatus = "Embedding"
	StepRetrieval  InternalStatus = "Retrieval"
	StepBudgeting  InternalStatus = "Budgeting"
	StepGeneration InternalStatus = "Generation"
	StepIngestInit InternalStatus = "IngestInit"
	StepIngesting  InternalStatus = "Ingesting"
	StepComplete   InternalStatus = "Complete"
	StepError      InternalStatus = "Error"

	JobTypeChat           JobType = "Chat"
	JobTypeIngestMessage  JobType = "IngestMessage"
	JobTypeIngestDocument JobType = "IngestDocument"
)

type Job struct {
	Id          string         `json:"id"`
	ChatId      string         `json:"chat_id,omitempty"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"can_retry"`
}

type JobPayload struct {
	Question    string            `json:"question,omitempty"`
	Answer      string            `json:"answer,omitempty"`
	ContextUsed []string          `json:"context_used,omitempty"`
	Sources     []ragModel.Source `json:"sources,omitempty"`

	ChannelID  string `json:"channel_id,omitempty"`
	MessageID  string `json:"message_id,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
