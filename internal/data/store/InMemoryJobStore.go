package store

import (
	"context"
	"sync"

	"github.com/huddleapp/huddle/internal/domain/jobModel"
)

// InMemoryJobStore backs local development when redis is unavailable.
type InMemoryJobStore struct {
	mu     sync.RWMutex
	jobMap map[string]jobModel.Job
}

func NewInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobMap: make(map[string]jobModel.Job),
	}
}

func (s *InMemoryJobStore) SaveJob(_ context.Context, job jobModel.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobMap[job.Id] = job
	return nil
}

func (s *InMemoryJobStore) GetJob(_ context.Context, jobId string) (jobModel.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, found := s.jobMap[jobId]
	return job, found
}

func (s *InMemoryJobStore) DeleteJob(_ context.Context, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobMap, jobID)
}
