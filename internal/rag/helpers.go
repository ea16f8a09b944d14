package rag

import (
	"context"
	"strconv"
	"time"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/jobModel"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
	"github.com/huddleapp/huddle/internal/metrics"
	"github.com/huddleapp/huddle/internal/rag/prompt"
	"github.com/huddleapp/huddle/internal/rag/retrieve"
	"github.com/huddleapp/huddle/pkg/logging"
)

func logStep(job *jobModel.Job, step jobModel.InternalStatus, log *logging.Logger) {
	job.CurrentStep = step
	log.Debug("answer step", "step", step)
}

func (s *service) executeEmbeddingStep(ctx context.Context, log *logging.Logger, job *jobModel.Job, query string) ([]float32, error) {
	logStep(job, jobModel.StepEmbedding, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.EmbedQuery(ctx, query)
}

func (s *service) executeCacheCheckStep(ctx context.Context, log *logging.Logger, job *jobModel.Job, scope string, vector []float32) (string, bool) {
	logStep(job, jobModel.StepCacheCheck, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	// Cache misses and cache errors are the same thing to the caller.
	answer, found, err := s.index.GetCachedAnswer(ctx, scope, vector)
	if err != nil {
		log.Warn("answer cache lookup failed", "error", err)
		found = false
	}
	metrics.CountCacheLookup(found)
	return answer, found
}

func (s *service) executeRetrievalStep(ctx context.Context, log *logging.Logger, job *jobModel.Job, vector []float32, opts retrieve.Options) ([]ragModel.RetrievalResult, error) {
	logStep(job, jobModel.StepRetrieval, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.retriever.RetrieveWithVector(ctx, vector, opts)
}

func (s *service) executeBudgetStep(log *logging.Logger, job *jobModel.Job, results []ragModel.RetrievalResult, messages []chatModel.ConversationMessage) []string {
	logStep(job, jobModel.StepBudgeting, log)

	passages := make([]string, len(results))
	for i, r := range results {
		passages[i] = r.Text
	}
	kept, _ := prompt.Assemble(passages, messages, config.ModelContextWindow, config.ResponseReserve)
	if len(kept) < len(passages) {
		log.Debug("token budget dropped passages", "kept", len(kept), "retrieved", len(passages))
	}
	return kept
}

func (s *service) executeGenerationStep(ctx context.Context, log *logging.Logger, job *jobModel.Job, kept []string, messages []chatModel.ConversationMessage) (string, error) {
	logStep(job, jobModel.StepGeneration, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	conversation := append([]chatModel.ConversationMessage{{
		Role:    chatModel.RoleSystem,
		Content: buildSystemPrompt(kept),
	}}, messages...)
	return s.llmProvider.Complete(ctx, conversation)
}

func buildSystemPrompt(passages []string) string {
	out := config.AssistantPersona
	if len(passages) == 0 {
		return out
	}
	out += "\n\nBelow is relevant context from the workspace. Use it to answer; say so when it does not contain the answer.\n"
	for _, p := range passages {
		out += "\n" + p + "\n"
	}
	return out
}

// collectSources derives citations from every retrieved result that names a
// document, independent of what survived the token budget.
func collectSources(results []ragModel.RetrievalResult) []ragModel.Source {
	var sources []ragModel.Source
	seen := make(map[string]bool)
	for _, r := range results {
		meta, ok := r.Meta.(ragModel.PDFChunkMeta)
		if !ok || meta.DocumentID == "" || meta.Filename == "" {
			continue
		}
		key := meta.DocumentID + "#" + strconv.Itoa(meta.PageNumber)
		if seen[key] {
			continue
		}
		seen[key] = true
		sources = append(sources, ragModel.Source{
			DocumentID: meta.DocumentID,
			Filename:   meta.Filename,
			PageNumber: meta.PageNumber,
		})
	}
	return sources
}
