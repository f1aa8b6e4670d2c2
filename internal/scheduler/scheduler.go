// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ErrEmptySchedule is returned by Start when no schedule is configured.
var ErrEmptySchedule = errors.New("schedule is empty")

// Job is one run of a scheduled job.
type Job func(ctx context.Context) error

// ValidateSchedule checks a five-field cron expression or an @descriptor.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Describe returns a human-readable description of common schedules.
func Describe(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "0 0 * * *", "@daily", "@midnight":
		return "Daily at midnight"
	case "0 3 * * *":
		return "Daily at 03:00"
	case "0 0 * * 0", "@weekly":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// NextRun computes the next activation after from.
func NextRun(schedule string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// Scheduler runs a single named Job on a cron schedule. A tick that fires
// while the previous run is still going is skipped.
type Scheduler struct {
	name     string
	schedule string
	job      Job
	timeout  time.Duration

	cron    *cron.Cron
	entryID cron.EntryID

	mu      sync.RWMutex
	running bool
	busy    bool
}

// New creates a stopped scheduler. timeout bounds each run; zero means no
// limit.
func New(name, schedule string, timeout time.Duration, job Job) *Scheduler {
	return &Scheduler{
		name:     name,
		schedule: schedule,
		job:      job,
		timeout:  timeout,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start registers the job and starts the cron loop. The scheduler stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.schedule == "" {
		return ErrEmptySchedule
	}
	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() { s.run(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", s.name, err)
	}
	s.entryID = entryID
	s.cron.Start()
	s.running = true

	next, _ := NextRun(s.schedule, time.Now())
	log.Info().
		Str("job", s.name).
		Str("schedule", s.schedule).
		Str("description", Describe(s.schedule)).
		Time("next_run", next).
		Msg("Scheduler started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits for a running job and stops the cron loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopped := s.cron.Stop()
	s.cron.Remove(s.entryID)
	s.mu.Unlock()

	// A job in flight takes mu when it finishes.
	<-stopped.Done()

	log.Info().Str("job", s.name).Msg("Scheduler stopped")
}

// RunNow triggers one run outside the schedule and waits for it. It
// returns false if a run was already in progress.
func (s *Scheduler) RunNow(ctx context.Context) bool {
	return s.run(ctx)
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) IsBusy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

// NextRunTime returns the next scheduled run, or nil when stopped.
func (s *Scheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *Scheduler) run(ctx context.Context) bool {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		log.Debug().Str("job", s.name).Msg("Skipped, previous run still in progress")
		return false
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.job(ctx); err != nil {
		log.Error().Err(err).Str("job", s.name).Msg("Scheduled job failed")
		return true
	}
	log.Info().Str("job", s.name).Dur("duration", time.Since(start)).Msg("Scheduled job finished")
	return true
}
