package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/persistsvc/internal/observability"
	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/repos"
)

// Monitor is the discovery loop: every poll interval it scans for
// unclaimed persist jobs and enqueues their ids on the pool. Discovery
// may legitimately enqueue a job another instance is about to take;
// the claim update arbitrates, not the monitor. Stop interrupts the
// wait immediately.
type Monitor struct {
	log      *logger.Logger
	jobs     repos.PersistJobRepo
	pool     *Pool
	metrics  *observability.Metrics
	interval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

func NewMonitor(jobRepo repos.PersistJobRepo, pool *Pool, interval time.Duration, metrics *observability.Metrics, baseLog *logger.Logger) *Monitor {
	return &Monitor{
		log:      baseLog.With("service", "ChatPersistJobMonitor"),
		jobs:     jobRepo,
		pool:     pool,
		metrics:  metrics,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Run polls until Stop is called or ctx is cancelled. Query failures
// are logged and the loop continues; each scan is a fresh query so the
// next round sees a fresh snapshot of the job table.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info("Job monitor started", "poll_interval", m.interval)
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			m.log.Info("Job monitor stopped", "reason", "context cancelled")
			return ctx.Err()
		case <-m.stop:
			m.log.Info("Job monitor stopped")
			return nil
		case <-timer.C:
		}

		m.scan(ctx)
		timer.Reset(m.interval)
	}
}

func (m *Monitor) scan(ctx context.Context) {
	m.log.Debug("Checking for new persist jobs to process")
	unclaimed, err := m.jobs.ListUnclaimed(ctx, nil)
	if err != nil {
		m.log.Error("Failed to list unclaimed persist jobs", "error", err)
		return
	}
	m.metrics.RecordScan(len(unclaimed))
	for _, job := range unclaimed {
		m.pool.Put(job.ID)
	}
}

// Stop wakes the monitor out of its wait. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}
