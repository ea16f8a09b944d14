package worker

import (
	"context"
	"time"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/jobModel"
	"github.com/huddleapp/huddle/internal/metrics"
)

func (p *Pool) executeJob(currentJob jobModel.Job) {
	start := time.Now()

	ctxTrace := context.WithValue(context.Background(), config.TraceIDKey, currentJob.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, 60*time.Second)
	defer cancel()

	log := p.logger.With("traceId", currentJob.TraceId, "jobId", currentJob.Id)
	log.Debug("processing job", "type", currentJob.JobType)

	p.saveJobState(ctx, currentJob, jobModel.JobStatusRunning)

	switch currentJob.JobType {
	case jobModel.JobTypeChat:
		currentJob = p.processChat(ctx, currentJob)
	default:
		currentJob = p.ragService.ProcessIngestJob(ctx, currentJob)
	}

	currentJob.EndTime = time.Now()
	p.saveJobState(ctx, currentJob, currentJob.Status)
	metrics.CaptureJobMetrics(string(currentJob.Status), time.Since(start))
}

func (p *Pool) processChat(ctx context.Context, currentJob jobModel.Job) jobModel.Job {
	history, err := p.chats.GetConversation(ctx, currentJob.ChatId, config.ConversationHistoryLimit)
	if err != nil {
		p.logger.Error("loading conversation history", "chatId", currentJob.ChatId, "error", err)
	}

	currentJob = p.ragService.ProcessChatJob(ctx, currentJob, history)
	if currentJob.Status == jobModel.JobStatusError {
		return currentJob
	}

	turns := []chatModel.ConversationMessage{
		{Role: chatModel.RoleUser, Content: currentJob.JobPayload.Question},
		{Role: chatModel.RoleAssistant, Content: currentJob.JobPayload.Answer},
	}
	if err := p.chats.AppendConversation(ctx, currentJob.ChatId, turns); err != nil {
		p.logger.Error("saving conversation turns", "chatId", currentJob.ChatId, "error", err)
	}
	return currentJob
}

func (p *Pool) saveJobState(ctx context.Context, currentJob jobModel.Job, status jobModel.JobStatus) {
	currentJob.Status = status
	if err := p.jobs.JobStore.SaveJob(ctx, currentJob); err != nil {
		p.logger.Error("persisting job state", "jobId", currentJob.Id, "error", err)
	}
}
