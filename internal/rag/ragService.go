package rag

import (
	"context"
	"net/http"
	"time"

	"github.com/huddleapp/huddle/internal/adapter/utils"
	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/jobModel"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
	"github.com/huddleapp/huddle/internal/metrics"
	"github.com/huddleapp/huddle/internal/rag/embedding"
	"github.com/huddleapp/huddle/internal/rag/ingest"
	"github.com/huddleapp/huddle/internal/rag/llm"
	"github.com/huddleapp/huddle/internal/rag/retrieve"
	"github.com/huddleapp/huddle/internal/rag/vectorDB"
	"github.com/huddleapp/huddle/pkg/logging"
)

// Service is the single surface the worker and the handlers call. It hides
// the embedder, index, retriever and completion provider behind one
// contract so callers can be tested against mocks.
type Service interface {
	// ProcessChatJob answers a channel-bot question. The returned job
	// carries the answer, the injected context and the citation sources,
	// or an error payload.
	ProcessChatJob(ctx context.Context, job jobModel.Job, history []chatModel.ConversationMessage) jobModel.Job

	// ProcessIngestJob runs a message or document ingestion job.
	ProcessIngestJob(ctx context.Context, job jobModel.Job) jobModel.Job

	// AnswerPersonal answers a question over the caller's personal
	// documents synchronously.
	AnswerPersonal(ctx context.Context, ownerID, query string, history []chatModel.ConversationMessage) (ragModel.Answer, error)

	// RawRetrieve exposes scoped retrieval without generation.
	RawRetrieve(ctx context.Context, query string, opts retrieve.Options) ([]ragModel.RetrievalResult, error)

	// Sweep re-ingests sources whose embedding never completed.
	Sweep(ctx context.Context, kind ingest.SweepKind, limit int) ingest.SweepReport

	// ResetIndex drops and recreates the vector partitions.
	ResetIndex(ctx context.Context) error
}

type service struct {
	embedder    embedding.Embedder
	index       vectorDB.Index
	llmProvider llm.Provider
	retriever   *retrieve.Service
	pipeline    *ingest.Pipeline
	logger      *logging.Logger
}

// NewService wires the answer path. The retriever and the pipeline share
// the embedder and index passed here.
func NewService(e embedding.Embedder, idx vectorDB.Index, provider llm.Provider, retriever *retrieve.Service, pipeline *ingest.Pipeline) Service {
	return &service{
		embedder:    e,
		index:       idx,
		llmProvider: provider,
		retriever:   retriever,
		pipeline:    pipeline,
		logger:      logging.NewLogger("rag"),
	}
}

func (s *service) ProcessChatJob(ctx context.Context, job jobModel.Job, history []chatModel.ConversationMessage) jobModel.Job {
	log := s.logger.With("traceId", job.TraceId, "jobId", job.Id)

	processCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	answer, err := s.answer(processCtx, log, &job, job.JobPayload.Question, history, retrieve.Options{
		ChannelID: job.JobPayload.ChannelID,
	})
	if err != nil {
		return s.jobError(job, err, "ANSWER_FAILURE", true)
	}

	job.JobPayload.Answer = answer.Content
	job.JobPayload.ContextUsed = answer.UsedContext
	job.JobPayload.Sources = answer.Sources
	job.CurrentStep = jobModel.StepComplete
	job.Status = jobModel.JobStatusComplete
	return job
}

func (s *service) ProcessIngestJob(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("ingestion", time.Since(start)) }()

	job.CurrentStep = jobModel.StepIngesting

	var err error
	switch job.JobType {
	case jobModel.JobTypeIngestDocument:
		err = s.pipeline.IngestDocument(ctx, job.JobPayload.DocumentID)
	default:
		err = s.pipeline.IngestMessage(ctx, job.JobPayload.MessageID)
	}
	if err != nil {
		return s.jobError(job, err, "INGESTION_FAILURE", true)
	}

	job.CurrentStep = jobModel.StepComplete
	job.Status = jobModel.JobStatusComplete
	return job
}

func (s *service) AnswerPersonal(ctx context.Context, ownerID, query string, history []chatModel.ConversationMessage) (ragModel.Answer, error) {
	log := s.logger.With("ownerId", ownerID)
	var job jobModel.Job
	return s.answer(ctx, log, &job, query, history, retrieve.Options{OwnerID: ownerID})
}

func (s *service) RawRetrieve(ctx context.Context, query string, opts retrieve.Options) ([]ragModel.RetrievalResult, error) {
	return s.retriever.Retrieve(ctx, query, opts)
}

func (s *service) Sweep(ctx context.Context, kind ingest.SweepKind, limit int) ingest.SweepReport {
	return s.pipeline.ProcessUnembedded(ctx, kind, limit)
}

func (s *service) ResetIndex(ctx context.Context) error {
	return s.index.Reset(ctx)
}

// answer is the shared generation path: embed once, try the semantic answer
// cache, retrieve, budget, complete, then save the fresh answer to the
// cache in the background. Sources come from the full retrieval set even
// when the budgeter dropped passages from the prompt.
func (s *service) answer(ctx context.Context, log *logging.Logger, job *jobModel.Job, query string, history []chatModel.ConversationMessage, opts retrieve.Options) (ragModel.Answer, error) {
	vector, err := s.executeEmbeddingStep(ctx, log, job, query)
	if err != nil {
		return ragModel.Answer{}, err
	}

	scope := cacheScope(opts)
	if cached, found := s.executeCacheCheckStep(ctx, log, job, scope, vector); found {
		return ragModel.Answer{Content: cached}, nil
	}

	results, err := s.executeRetrievalStep(ctx, log, job, vector, opts)
	if err != nil {
		return ragModel.Answer{}, err
	}

	messages := append(append([]chatModel.ConversationMessage{}, history...), chatModel.ConversationMessage{
		Role:    chatModel.RoleUser,
		Content: query,
	})
	kept := s.executeBudgetStep(log, job, results, messages)

	content, err := s.executeGenerationStep(ctx, log, job, kept, messages)
	if err != nil {
		return ragModel.Answer{}, err
	}

	go s.saveToCache(scope, vector, content)

	return ragModel.Answer{
		Content:     content,
		UsedContext: kept,
		Sources:     collectSources(results),
	}, nil
}

func (s *service) saveToCache(scope string, vector []float32, answer string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.index.SaveToCache(ctx, utils.GetNewUUID(), scope, vector, answer); err != nil {
		s.logger.Error("saving answer to cache", "error", err)
	}
}

// cacheScope keys cached answers by the retrieval scope that produced them.
// A channel answer and a personal-library answer to the same question are
// different entries.
func cacheScope(opts retrieve.Options) string {
	if opts.OwnerID != "" {
		return "owner:" + opts.OwnerID
	}
	return "channel:" + opts.ChannelID
}

func (s *service) jobError(job jobModel.Job, err error, message string, canRetry bool) jobModel.Job {
	s.logger.Error(message, "jobId", job.Id, "error", err)

	job.Error = jobModel.JobError{
		Code:    http.StatusInternalServerError,
		Message: "Internal Server Error",
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.StepError
	return job
}
