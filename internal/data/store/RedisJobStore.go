package store

import (
	"context"
	"encoding/json"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/data/redisStore"
	"github.com/huddleapp/huddle/internal/domain/jobModel"
	"github.com/huddleapp/huddle/pkg/logging"
)

type RedisJobStore struct {
	store  *redisStore.Store
	logger *logging.Logger
}

func NewRedisJobStore(store *redisStore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  store,
		logger: logging.NewLogger("jobStore"),
	}
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, jobKey(job.Id), data, config.RedisJobStoreTTL)
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	val, err := s.store.Get(ctx, jobKey(jobId))
	if err != nil {
		if !s.store.IsNil(err) {
			s.logger.Error("reading job", "jobId", jobId, "error", err)
		}
		return job, false
	}
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		s.logger.Error("corrupt job payload", "jobId", jobId, "error", err)
		return job, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	if err := s.store.Del(ctx, jobKey(jobID)); err != nil {
		s.logger.Error("deleting job", "jobId", jobID, "error", err)
	}
}

func jobKey(id string) string { return "job:" + id }
