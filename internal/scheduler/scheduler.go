package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a named task run every Interval, once immediately on Add.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	jobs   map[string]*scheduledJob
	mu     sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type scheduledJob struct {
	job     Job
	cancel  context.CancelFunc
	runs    int
	lastErr error
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make(map[string]*scheduledJob),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Stop cancels every job and waits for running ones to return.
func (s *Scheduler) Stop() {
	zap.L().Info("stopping scheduler")
	s.cancel()

	s.mu.Lock()
	for _, sj := range s.jobs {
		sj.cancel()
	}
	s.jobs = make(map[string]*scheduledJob)
	s.mu.Unlock()

	s.wg.Wait()
	zap.L().Info("scheduler stopped")
}

// Add starts job, replacing a job with the same name.
func (s *Scheduler) Add(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.jobs[job.Name]; exists {
		existing.cancel()
	}

	jobCtx, jobCancel := context.WithCancel(s.ctx)
	sj := &scheduledJob{job: job, cancel: jobCancel}
	s.jobs[job.Name] = sj

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.execute(jobCtx, sj)
		s.run(jobCtx, sj)
	}()

	zap.L().Info("scheduled job", zap.String("job", job.Name), zap.Duration("interval", job.Interval))
}

func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sj, exists := s.jobs[name]; exists {
		sj.cancel()
		delete(s.jobs, name)
		zap.L().Info("removed job", zap.String("job", name))
	}
}

func (s *Scheduler) run(ctx context.Context, sj *scheduledJob) {
	ticker := time.NewTicker(sj.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, sj)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, sj *scheduledJob) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	err := sj.job.Run(ctx)

	s.mu.Lock()
	sj.runs++
	sj.lastErr = err
	s.mu.Unlock()

	if err != nil {
		zap.L().Error("job failed", zap.String("job", sj.job.Name), zap.Error(err))
		return
	}

	zap.L().Debug("job finished", zap.String("job", sj.job.Name), zap.Duration("took", time.Since(start)))
}

// GetStatus reports the scheduled jobs for the health endpoint.
func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make(map[string]interface{}, len(s.jobs))
	for name, sj := range s.jobs {
		status := map[string]interface{}{"runs": sj.runs}
		if sj.lastErr != nil {
			status["last_error"] = sj.lastErr.Error()
		}
		jobs[name] = status
	}

	return map[string]interface{}{
		"jobs":    jobs,
		"running": s.ctx.Err() == nil,
	}
}
