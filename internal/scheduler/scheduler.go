// Package scheduler implements trigger_sync: the single entry point,
// shared by the periodic tick and the operator trigger API, that probes
// a tenant's upstream versions, decides whether a sync is warranted, and
// dispatches a PENDING job onto a worker pool.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/config"
	"github.com/jaxxstorm/loansync/internal/syncjob"
	"github.com/jaxxstorm/loansync/internal/tenant"
	"github.com/jaxxstorm/loansync/internal/upstream"
	"github.com/jaxxstorm/loansync/internal/worker"
)

var (
	// ErrProbeFailed is returned by TriggerSync when either file type's
	// version probe came back absent.
	ErrProbeFailed = errors.New("scheduler: upstream version probe failed")

	// ErrJobInFlight is returned by TriggerSync when the dedup guard
	// finds an existing PENDING or IN_PROGRESS job for this pair.
	ErrJobInFlight = errors.New("scheduler: an active sync job already exists for this tenant and category")
)

// categories is every LoanCategory the periodic tick sweeps per tenant.
var categories = []syncjob.LoanCategory{syncjob.CategoryCommercial, syncjob.CategoryRetail}

// Scheduler owns the periodic tick loop, the dispatch queue, and the
// worker goroutine pool that drains it.
type Scheduler struct {
	tenants     tenant.Repository
	jobs        syncjob.Repository
	worker      worker.Provider
	upstreamCfg *config.UpstreamConfig
	cfg         config.SchedulerConfig
	queue       *Queue
	logger      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	retryCount map[string]int
	retryMu    sync.RWMutex
}

// New builds a Scheduler. Start must be called to begin the tick loop
// and worker pool; TriggerSync may be called directly beforehand (the
// operator trigger API uses it without waiting on Start).
func New(tenants tenant.Repository, jobs syncjob.Repository, wp worker.Provider, upstreamCfg *config.UpstreamConfig, cfg config.SchedulerConfig, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tenants:     tenants,
		jobs:        jobs,
		worker:      wp,
		upstreamCfg: upstreamCfg,
		cfg:         cfg,
		queue:       NewRateLimitingQueue(),
		logger:      logger.With(zap.String("component", "scheduler")),
		ctx:         ctx,
		cancel:      cancel,
		retryCount:  make(map[string]int),
	}
}

// Start begins the periodic tick loop and the worker pool. A no-op when
// the scheduler is disabled in configuration; the trigger API still
// works without the tick loop running.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled, not starting tick loop")
		return nil
	}

	s.logger.Info("starting scheduler",
		zap.Duration("poll_interval", s.cfg.PollInterval),
		zap.Int("workers", s.cfg.Workers))

	s.wg.Add(1)
	go s.tickLoop()

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.runWorker(i)
	}

	return nil
}

// Stop signals the tick loop and workers to exit and waits up to
// ShutdownTimeout for them to drain.
func (s *Scheduler) Stop() error {
	s.logger.Info("stopping scheduler", zap.Int("queue_depth", s.queue.Len()))

	s.cancel()
	s.queue.ShutDown()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped gracefully")
		return nil
	case <-time.After(s.cfg.ShutdownTimeout):
		s.logger.Warn("scheduler shutdown timeout exceeded, forcing exit")
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// IsReady reports whether the dispatch queue is accepting work.
func (s *Scheduler) IsReady() bool {
	return s.queue != nil && !s.queue.ShuttingDown()
}

// TriggerSync probes t's upstream versions for category, decides whether
// a sync is warranted, and on success enqueues a new PENDING job and
// returns its id. A nil id with a nil error means no sync was needed.
func (s *Scheduler) TriggerSync(ctx context.Context, t *tenant.Tenant, category syncjob.LoanCategory, force bool) (*uuid.UUID, error) {
	client := upstream.New(s.upstreamCfg, t.UpstreamBaseURL, t.UpstreamBearerToken)
	tenantID := t.TenantID()

	vCredit, okCredit := client.ProbeVersion(ctx, tenantID, upstream.FileTypeFor(string(category), true))
	vPayment, okPayment := client.ProbeVersion(ctx, tenantID, upstream.FileTypeFor(string(category), false))
	if !okCredit || !okPayment {
		return nil, ErrProbeFailed
	}

	last, err := s.jobs.LastSuccess(ctx, t.ID, category)
	if err != nil {
		return nil, fmt.Errorf("look up last success for %s/%s: %w", t.Slug, category, err)
	}

	hasUpdate := true
	if last != nil {
		hasUpdate = last.RemoteVersionCredit == nil || *last.RemoteVersionCredit != vCredit ||
			last.RemoteVersionPayment == nil || *last.RemoteVersionPayment != vPayment
	}

	if !hasUpdate && !force {
		return nil, nil
	}

	active, err := s.jobs.FindActive(ctx, t.ID, category)
	if err != nil {
		return nil, fmt.Errorf("check active job for %s/%s: %w", t.Slug, category, err)
	}
	if active != nil {
		return nil, ErrJobInFlight
	}

	job := syncjob.New(t.ID, category, &vCredit, &vPayment)
	if err := s.jobs.Create(ctx, job); err != nil {
		if errors.Is(err, syncjob.ErrActiveJobExists) {
			return nil, ErrJobInFlight
		}
		return nil, fmt.Errorf("create sync job for %s/%s: %w", t.Slug, category, err)
	}

	s.queue.Add(job.ID.String())
	s.logger.Info("sync job dispatched",
		zap.String("tenant", t.Slug),
		zap.String("loan_category", string(category)),
		zap.String("job_id", job.ID.String()),
		zap.Bool("forced", force))

	return &job.ID, nil
}

// tickLoop fires TriggerSync(force=false) for every active tenant and
// loan category at the configured cadence.
func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.logger.Info("tick loop started")

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("tick loop stopped")
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	tenants, err := s.tenants.ListActiveTenants(ctx)
	if err != nil {
		s.logger.Error("failed to list active tenants", zap.Error(err))
		return
	}

	for _, t := range tenants {
		for _, category := range categories {
			_, err := s.TriggerSync(ctx, t, category, false)
			if err == nil {
				continue
			}
			if errors.Is(err, ErrProbeFailed) || errors.Is(err, ErrJobInFlight) {
				s.logger.Debug("skipping tenant/category this tick",
					zap.String("tenant", t.Slug),
					zap.String("loan_category", string(category)),
					zap.Error(err))
				continue
			}
			s.logger.Error("trigger_sync failed",
				zap.String("tenant", t.Slug),
				zap.String("loan_category", string(category)),
				zap.Error(err))
		}
	}
}

// runWorker pulls job ids off the dispatch queue and runs them through
// the worker provider, one at a time, until the queue shuts down.
func (s *Scheduler) runWorker(id int) {
	defer s.wg.Done()

	s.logger.Info("worker started", zap.Int("worker_id", id))

	for {
		item, shutdown := s.queue.Get()
		if shutdown {
			s.logger.Info("worker stopped", zap.Int("worker_id", id))
			return
		}
		s.processItem(item)
	}
}

func (s *Scheduler) processItem(item interface{}) {
	defer s.queue.Done(item)

	jobIDStr, ok := item.(string)
	if !ok {
		s.logger.Error("invalid item type in queue", zap.Any("item", item))
		return
	}

	jobID, err := uuid.Parse(jobIDStr)
	if err != nil {
		s.logger.Error("invalid job id in queue", zap.String("job_id", jobIDStr), zap.Error(err))
		return
	}

	if err := s.worker.Run(s.ctx, jobID); err != nil {
		retryCount := s.incrementRetryCount(jobIDStr)
		s.logger.Error("job dispatch failed",
			zap.String("job_id", jobIDStr),
			zap.Int("retry_count", retryCount),
			zap.Error(err))

		if retryCount >= s.cfg.MaxRetries {
			s.logger.Error("max dispatch retries exceeded, dropping job", zap.String("job_id", jobIDStr))
			s.resetRetryCount(jobIDStr)
			return
		}
		s.queue.AddRateLimited(item)
		return
	}

	s.queue.Forget(item)
	s.resetRetryCount(jobIDStr)
}

func (s *Scheduler) incrementRetryCount(jobID string) int {
	s.retryMu.Lock()
	defer s.retryMu.Unlock()
	s.retryCount[jobID]++
	return s.retryCount[jobID]
}

func (s *Scheduler) resetRetryCount(jobID string) {
	s.retryMu.Lock()
	defer s.retryMu.Unlock()
	delete(s.retryCount, jobID)
}
