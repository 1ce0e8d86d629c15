// Package scheduler repeats the sync cycle on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one sync cycle.
type Job func(ctx context.Context) error

// Scheduler wraps robfig/cron. Runs never overlap: a tick that fires while
// the previous cycle is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	job    Job
	silent bool

	mu  sync.Mutex
	ctx context.Context
}

func New(spec string, job Job, silent bool) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{
		cron:   cron.New(),
		spec:   spec,
		job:    job,
		silent: silent,
	}, nil
}

// Start registers the job and starts the scheduler. One cycle runs
// immediately so the board is updated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logf("Scheduler started (%s)", s.spec)

	go s.run()
	return nil
}

// Stop halts the schedule and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()

	// Wait out a cycle started by Start
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logf("Scheduler stopped")
}

// Next reports when the next scheduled cycle will fire.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) run() {
	if !s.mu.TryLock() {
		s.logf("Previous cycle still running, skipping")
		return
	}
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}

	start := time.Now()
	s.logf("Cycle started at %s", start.Format(time.RFC3339))
	if err := s.job(s.ctx); err != nil {
		s.logf("Cycle failed: %v", err)
		return
	}
	s.logf("Cycle finished in %s", time.Since(start).Round(time.Second))
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.silent {
		return
	}
	fmt.Printf("[scheduler] "+format+"\n", args...)
}
