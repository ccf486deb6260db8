package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yungbote/persistsvc/internal/observability"
	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/repos"
)

// Runner processes one persist job to completion, abort or
// duplicate detection.
type Runner interface {
	Persist(ctx context.Context, jobID int64) error
}

// Stats is a snapshot of the pool's job counters, served on /stats.
type Stats struct {
	Claimed    uint64 `json:"claimed"`
	Succeeded  uint64 `json:"succeeded"`
	Failed     uint64 `json:"failed"`
	Duplicates uint64 `json:"duplicates"`
}

// Pool is a fixed-size worker pool consuming persist job ids from a
// bounded queue. Put never blocks the monitor: when the queue is full
// the id is dropped with a log line and rediscovered on the next poll,
// because the job row is still unclaimed.
type Pool struct {
	log     *logger.Logger
	runner  Runner
	metrics *observability.Metrics
	size    int

	queue chan int64
	wg    sync.WaitGroup

	// mu serializes Put against the queue close in Stop.
	mu      sync.RWMutex
	started atomic.Bool
	stopped bool

	claimed   atomic.Uint64
	succeeded atomic.Uint64
	failed    atomic.Uint64
	dupes     atomic.Uint64
}

func NewPool(size, queueDepth int, runner Runner, metrics *observability.Metrics, baseLog *logger.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if queueDepth < size {
		queueDepth = size * 16
	}
	return &Pool{
		log:     baseLog.With("service", "PersisterPool"),
		runner:  runner,
		metrics: metrics,
		size:    size,
		queue:   make(chan int64, queueDepth),
	}
}

// Start launches the workers. Each worker loops: dequeue a job id, run
// the persister, log any failure, continue. A panic inside a job is
// recovered into a failed-job log so one poisoned job cannot take a
// worker down.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.log.Info("Starting persister workers", "count", p.size)
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	log := p.log.With("worker", id)
	for jobID := range p.queue {
		p.metrics.SetQueueDepth(len(p.queue))
		p.runJob(ctx, log, jobID)
	}
	log.Debug("Worker exiting")
}

func (p *Pool) runJob(ctx context.Context, log *logger.Logger, jobID int64) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			p.metrics.RecordJob(observability.JobOutcomeFailed, time.Since(started))
			log.Error("Persist job panicked", "job_id", jobID, "panic", fmt.Sprintf("%v", r))
		}
	}()

	p.claimed.Add(1)
	err := p.runner.Persist(ctx, jobID)
	switch {
	case err == nil:
		p.succeeded.Add(1)
		p.metrics.RecordJob(observability.JobOutcomeSucceeded, time.Since(started))
	case errors.Is(err, repos.ErrDuplicatePersistJob):
		p.dupes.Add(1)
		p.metrics.RecordJob(observability.JobOutcomeDuplicate, time.Since(started))
	default:
		p.failed.Add(1)
		p.metrics.RecordJob(observability.JobOutcomeFailed, time.Since(started))
		log.Error("Persist job failed", "job_id", jobID, "error", err)
	}
}

// Put enqueues a job id for processing. Returns false when the id was
// dropped because the queue is full or the pool is stopping.
func (p *Pool) Put(jobID int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	select {
	case p.queue <- jobID:
		return true
	default:
		p.log.Warn("Job queue full, dropping job for next poll", "job_id", jobID)
		return false
	}
}

// Stop closes the intake and waits for the workers to drain. In-flight
// jobs run to completion.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.log.Info("Stopping persister workers, draining queue")
	p.wg.Wait()
}

// Snapshot returns the current job counters.
func (p *Pool) Snapshot() Stats {
	return Stats{
		Claimed:    p.claimed.Load(),
		Succeeded:  p.succeeded.Load(),
		Failed:     p.failed.Load(),
		Duplicates: p.dupes.Load(),
	}
}
