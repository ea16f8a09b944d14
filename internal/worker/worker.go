package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/job"
	"github.com/huddleapp/huddle/internal/metrics"
	"github.com/huddleapp/huddle/internal/rag"
	"github.com/huddleapp/huddle/pkg/logging"
)

// Pool is an elastic worker pool over the job channel. The dispatcher adds
// workers when signalled, up to MaxWorkerCount; idle workers above the
// minimum retire themselves.
type Pool struct {
	jobs        *job.Service
	ragService  rag.Service
	chats       chatModel.MessageStore
	stopChannel chan bool
	waitGroup   *sync.WaitGroup
	idleTimeout time.Duration
	workerCount int64
	logger      *logging.Logger
}

func NewPool(jobs *job.Service, ragService rag.Service, chats chatModel.MessageStore) *Pool {
	return &Pool{
		jobs:        jobs,
		ragService:  ragService,
		chats:       chats,
		idleTimeout: config.IdleWorkerTimeout,
		logger:      logging.NewLogger("workerPool"),
	}
}

// Start launches the dispatcher with one initial worker. Closing stop
// retires every worker; the wait group reports when they are done.
func (p *Pool) Start(stop chan bool, wg *sync.WaitGroup) {
	p.stopChannel = stop
	p.waitGroup = wg
	p.logger.Info("starting worker pool")
	go p.dispatcher()
}

func (p *Pool) dispatcher() {
	p.createWorker()
	for range p.jobs.DispatcherChannel {
		if atomic.LoadInt64(&p.workerCount) < config.MaxWorkerCount {
			p.createWorker()
		}
	}
}

func (p *Pool) createWorker() {
	p.waitGroup.Add(1)
	atomic.AddInt64(&p.workerCount, 1)
	metrics.IncrementActiveWorkerCount()
	go p.worker()
	p.logger.Info("created worker", "workerCount", atomic.LoadInt64(&p.workerCount))
}

func (p *Pool) worker() {
	for {
		select {
		case currentJob := <-p.jobs.JobChannel:
			p.executeJob(currentJob)
			metrics.DecrementJobsInQueue()

		case <-p.stopChannel:
			p.removeWorker("stop signal")
			return

		case <-time.After(p.idleTimeout):
			if p.tryRetire() {
				return
			}
		}
	}
}

// tryRetire decrements the worker count unless that would drop the pool
// below the minimum. CAS keeps two idle workers from both retiring past it.
func (p *Pool) tryRetire() bool {
	for {
		n := atomic.LoadInt64(&p.workerCount)
		if n <= config.MinWorkerCount {
			return false
		}
		if atomic.CompareAndSwapInt64(&p.workerCount, n, n-1) {
			p.waitGroup.Done()
			metrics.DecrementActiveWorkerCount()
			p.logger.Info("removed worker", "reason", "idle timeout", "workerCount", n-1)
			return true
		}
	}
}

func (p *Pool) removeWorker(reason string) {
	p.waitGroup.Done()
	atomic.AddInt64(&p.workerCount, -1)
	metrics.DecrementActiveWorkerCount()
	p.logger.Info("removed worker", "reason", reason, "workerCount", atomic.LoadInt64(&p.workerCount))
}

// WorkerCount reports the current pool size.
func (p *Pool) WorkerCount() int64 {
	return atomic.LoadInt64(&p.workerCount)
}
