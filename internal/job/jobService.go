package job

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/domain/jobModel"
	"github.com/huddleapp/huddle/internal/metrics"
	"github.com/huddleapp/huddle/pkg/logging"
)

// Service owns the job queue. Handlers enqueue; the worker pool drains.
type Service struct {
	JobChannel        chan jobModel.Job
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore

	requestCount int64
	logger       *logging.Logger
}

func InitJobService(jobStore jobModel.JobStore) *Service {
	return &Service{
		JobChannel:        make(chan jobModel.Job, config.BufferLimit),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          jobStore,
		logger:            logging.NewLogger("jobService"),
	}
}

// Enqueue persists the job as QUEUED and hands it to the pool. The channel
// send blocks when the buffer is full, which backpressures the HTTP layer
// instead of accepting unbounded work.
func (s *Service) Enqueue(ctx context.Context, job jobModel.Job) error {
	job.Status = jobModel.JobStatusQueued
	job.CreatedTime = time.Now()
	if err := s.JobStore.SaveJob(ctx, job); err != nil {
		return err
	}

	metrics.IncrementJobsInQueue()
	s.JobChannel <- job

	// A new worker every N requests, and always for ingestion jobs since
	// those batch against external services and hold a worker longer.
	count := atomic.AddInt64(&s.requestCount, 1)
	if count%config.RequestsPerNewWorkerCount == 0 || job.JobType != jobModel.JobTypeChat {
		metrics.StartDispatcherSignalCount()
		select {
		case s.DispatcherChannel <- true:
		default:
		}
	}
	return nil
}
