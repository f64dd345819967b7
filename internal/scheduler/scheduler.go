// Package scheduler runs cron-driven jobs with retry and keeps their execution history
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/transmaint/backend/pkg/logger"
)

var (
	// ErrJobNotFound is returned for an unregistered job name
	ErrJobNotFound = errors.New("job not found")

	// ErrJobRunning is returned when a job is triggered while a previous run is active
	ErrJobRunning = errors.New("job already running")
)

const (
	triggerCron   = "cron"
	triggerManual = "manual"
)

// Options configures retries. MaxRetries counts extra attempts after the first one.
type Options struct {
	MaxRetries int
	RetryDelay time.Duration
}

type entry struct {
	job     Job
	id      cron.EntryID
	history *History
	running bool
}

// Scheduler manages scheduled jobs. A job never runs twice concurrently.
// ⭐ SSOT: la planificación de trabajos vive solo en este scheduler
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	opts    Options
	mu      sync.Mutex
	entries map[string]*entry

	// cancelado en Stop para cortar reintentos en curso
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler
func New(log *logger.Logger, opts Options) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		logger:  log,
		opts:    opts,
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddJob registers a job on its cron schedule
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() {
		if err := s.execute(s.ctx, name, triggerCron); errors.Is(err, ErrJobRunning) {
			s.logger.WithField("job", name).Warn("Previous run still active, tick skipped")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.entries[name] = &entry{job: job, id: id, history: &History{}}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job registered")
	return nil
}

// RemoveJob unregisters a job; a run in progress finishes normally
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	s.cron.Remove(e.id)
	delete(s.entries, name)

	s.logger.WithField("job", name).Info("Job removed")
	return nil
}

// Start starts the cron loop
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels pending retries and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Trigger runs a job now in the background
func (s *Scheduler) Trigger(name string) error {
	if _, ok := s.Lookup(name); !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	go func() { _ = s.execute(s.ctx, name, triggerManual) }()
	return nil
}

// RunNow runs a job in the caller's goroutine and returns its final error
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	return s.execute(ctx, name, triggerManual)
}

// claim marks a job as running
func (s *Scheduler) claim(name string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if e.running {
		return nil, fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	e.running = true
	return e, nil
}

func (s *Scheduler) release(e *entry, run Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.running = false
	e.history.record(run)
}

// execute runs one job with retries and records the outcome
func (s *Scheduler) execute(ctx context.Context, name, trigger string) error {
	e, err := s.claim(name)
	if err != nil {
		return err
	}

	log := s.logger.WithFields(map[string]interface{}{"job": name, "trigger": trigger})
	log.Info("Job started")

	run := Run{Job: name, Trigger: trigger, Started: time.Now()}
	err = s.attempt(ctx, e.job, &run, log)
	run.Duration = time.Since(run.Started)
	if err != nil {
		run.Err = err.Error()
	}
	s.release(e, run)

	log = log.WithFields(map[string]interface{}{
		"duration": run.Duration.String(),
		"attempts": run.Attempts,
	})
	if err != nil {
		log.WithError(err).Error("Job failed")
		return err
	}
	log.Info("Job completed")
	return nil
}

// attempt calls job.Run up to 1+MaxRetries times, waiting RetryDelay in between
func (s *Scheduler) attempt(ctx context.Context, job Job, run *Run, log *logger.Logger) error {
	for {
		run.Attempts++
		err := job.Run(ctx)
		if err == nil {
			return nil
		}
		if run.Attempts > s.opts.MaxRetries {
			return err
		}

		log.WithError(err).WithField("attempt", run.Attempts).Warn("Job attempt failed, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(s.opts.RetryDelay):
		}
	}
}

// Lookup returns a registered job
func (s *Scheduler) Lookup(name string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return nil, false
	}
	return e.job, true
}

// Names returns the registered job names, sorted
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// History returns a copy of a job's recorded runs, oldest first
func (s *Scheduler) History(name string) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return e.history.Runs(), nil
}

// Latest returns up to n most recent runs of a job, newest last
func (s *Scheduler) Latest(name string, n int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return e.history.Latest(n), nil
}

// Stats summarizes every job, sorted by name
func (s *Scheduler) Stats() []Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Stats, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.history.stats(e.job))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}
