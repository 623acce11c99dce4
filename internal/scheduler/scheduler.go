// Package scheduler runs named background jobs at fixed intervals.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("fundtrack.scheduler")

// Job is run once when added and then every Interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	jobs   map[string]*scheduledJob // job name -> job
	mu     sync.RWMutex
	clock  clock.Clock
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type scheduledJob struct {
	job    Job
	cancel context.CancelFunc
	runs   int
	failed int
}

// New returns a scheduler whose jobs stop when ctx is done or Stop is
// called.
func New(ctx context.Context, clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.WallClock
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Scheduler{
		jobs:   make(map[string]*scheduledJob),
		clock:  clk,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add starts job, replacing any job with the same name.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.NotValidf("job without name or run function")
	}
	if job.Interval <= 0 {
		return errors.NotValidf("interval %v of job %q", job.Interval, job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return errors.Errorf("scheduler stopped")
	}

	if existing, exists := s.jobs[job.Name]; exists {
		existing.cancel()
	}

	jobCtx, jobCancel := context.WithCancel(s.ctx)
	scheduled := &scheduledJob{job: job, cancel: jobCancel}
	s.jobs[job.Name] = scheduled

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(jobCtx, scheduled)
	}()

	logger.Infof("added job %q every %v", job.Name, job.Interval)
	return nil
}

// Remove stops the named job.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, exists := s.jobs[name]; exists {
		job.cancel()
		delete(s.jobs, name)
		logger.Infof("removed job %q", name)
	}
}

// Stop cancels every job and waits for running ones to return.
func (s *Scheduler) Stop() {
	logger.Infof("stopping scheduler")
	s.cancel()

	s.mu.Lock()
	for _, job := range s.jobs {
		job.cancel()
	}
	s.jobs = make(map[string]*scheduledJob)
	s.mu.Unlock()

	s.wg.Wait()
	logger.Infof("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, scheduled *scheduledJob) {
	s.execute(ctx, scheduled)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(scheduled.job.Interval):
			s.execute(ctx, scheduled)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, scheduled *scheduledJob) {
	start := s.clock.Now()
	err := scheduled.job.Run(ctx)

	s.mu.Lock()
	scheduled.runs++
	if err != nil {
		scheduled.failed++
	}
	s.mu.Unlock()

	if err != nil {
		if ctx.Err() == nil {
			logger.Errorf("job %q failed: %v", scheduled.job.Name, err)
		}
		return
	}

	logger.Debugf("job %q succeeded in %v", scheduled.job.Name, s.clock.Now().Sub(start))
}

// Status summarises the scheduler for diagnostics.
type Status struct {
	Running bool                 `json:"running"`
	Jobs    map[string]JobStatus `json:"jobs"`
}

type JobStatus struct {
	Interval string `json:"interval"`
	Runs     int    `json:"runs"`
	Failures int    `json:"failures"`
}

func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := Status{
		Running: s.ctx.Err() == nil,
		Jobs:    make(map[string]JobStatus, len(s.jobs)),
	}

	for name, job := range s.jobs {
		status.Jobs[name] = JobStatus{
			Interval: job.job.Interval.String(),
			Runs:     job.runs,
			Failures: job.failed,
		}
	}

	return status
}
