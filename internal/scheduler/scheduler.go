// Package scheduler runs the periodic background jobs: the per-minute
// reminder scan and the daily inactive-user sweep.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kshaab/Coursework-5/internal/metrics"
	"github.com/kshaab/Coursework-5/internal/service"
	"github.com/robfig/cron/v3"
)

const (
	JobReminders          = "reminders"
	JobDeactivateInactive = "deactivate_inactive"
)

type ReminderDispatcher interface {
	Dispatch(ctx context.Context, now time.Time) (service.DispatchResult, error)
}

type InactiveUserDeactivator interface {
	DeactivateInactive(ctx context.Context, after time.Duration) (int, error)
}

type Config struct {
	ReminderSchedule     string
	InactiveUserSchedule string
	InactiveUserAfter    time.Duration
	Location             *time.Location
}

type Scheduler struct {
	cron          *cron.Cron
	reminders     ReminderDispatcher
	users         InactiveUserDeactivator
	inactiveAfter time.Duration
	now           func() time.Time
}

func New(cfg Config, reminders ReminderDispatcher, users InactiveUserDeactivator) (*Scheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	log := cronLogger{log: slog.Default().With("component", "scheduler")}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log)),
		),
		reminders:     reminders,
		users:         users,
		inactiveAfter: cfg.InactiveUserAfter,
		now:           time.Now,
	}

	_, err := s.cron.AddFunc(cfg.ReminderSchedule, func() { _ = s.RunReminders(context.Background()) })
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", cfg.ReminderSchedule, err)
	}
	_, err = s.cron.AddFunc(cfg.InactiveUserSchedule, func() { _ = s.RunDeactivateInactive(context.Background()) })
	if err != nil {
		return nil, fmt.Errorf("invalid inactive user schedule %q: %w", cfg.InactiveUserSchedule, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		slog.Info("scheduler stopped")
	case <-ctx.Done():
		slog.Warn("scheduler stop timed out with jobs still running")
	}
}

// RunReminders performs one reminder scan for the current minute.
func (s *Scheduler) RunReminders(ctx context.Context) error {
	return s.run(JobReminders, func() error {
		_, err := s.reminders.Dispatch(ctx, s.now())
		return err
	})
}

// RunDeactivateInactive performs one inactive-user sweep.
func (s *Scheduler) RunDeactivateInactive(ctx context.Context) error {
	return s.run(JobDeactivateInactive, func() error {
		_, err := s.users.DeactivateInactive(ctx, s.inactiveAfter)
		return err
	})
}

func (s *Scheduler) run(job string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordJobRun(job, err, time.Since(start))
	if err != nil {
		slog.Error("job failed", "job", job, "error", err)
	}
	return err
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
