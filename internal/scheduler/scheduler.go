// internal/scheduler/scheduler.go
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/user/arena/internal/countdown"
)

// Scheduler runs recurring jobs on a cron ticker. Every job gets a cancel
// function bound to the lifetime of the view that registered it.
type Scheduler struct {
	cron *cron.Cron

	mu      sync.Mutex
	entries map[cron.EntryID]struct{}
	started bool
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

var _ countdown.Ticker = (*Scheduler)(nil)

// New creates a stopped Scheduler. Jobs only fire after Start.
func New() *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithParser(cronParser)),
		entries: make(map[cron.EntryID]struct{}),
	}
}

// Start starts the cron ticker. Calling it twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop stops the cron ticker and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()
	if started {
		<-s.cron.Stop().Done()
	}
}

// Every runs fn at a constant interval, rounded down to whole seconds with a
// one-second minimum.
func (s *Scheduler) Every(interval time.Duration, fn func()) countdown.CancelFunc {
	id := s.cron.Schedule(cron.Every(interval), cron.FuncJob(fn))
	return s.track(id)
}

// Cron runs fn on a cron expression or descriptor such as "@every 30s".
func (s *Scheduler) Cron(spec string, fn func()) (countdown.CancelFunc, error) {
	id, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		slog.Error("invalid cron schedule", "schedule", spec, "error", err)
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	slog.Debug("scheduled job", "schedule", spec, "entry_id", int(id))
	return s.track(id), nil
}

func (s *Scheduler) track(id cron.EntryID) countdown.CancelFunc {
	s.mu.Lock()
	s.entries[id] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.cron.Remove(id)
			s.mu.Lock()
			delete(s.entries, id)
			s.mu.Unlock()
		})
	}
}

// Active returns the number of registered, uncancelled jobs.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
