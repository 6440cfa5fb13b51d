// Package scheduler runs the periodic duel cleanup and daily review reminders.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/internal/duel"
	"github.com/example/wordduel/internal/spaced_repetition"
)

// Notifier sends review reminders
type Notifier interface {
	SendReminders(ctx context.Context, userID int64, count int) error
}

// Sweeper cleans up stale duels
type Sweeper interface {
	Sweep(ctx context.Context) (duel.SweepResult, error)
}

// Options configure job timing
type Options struct {
	SweepInterval time.Duration
	ReminderHour  int           // local hour, 0-23
	UTCOffset     time.Duration // users' fixed local offset
	JobTimeout    time.Duration
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	notifier  Notifier
	states    *database.ReviewStateRepository
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a new scheduler instance. notifier may be nil, in which case
// no reminders are sent.
func New(db *database.DB, sweeper Sweeper, notifier Notifier, opts Options, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 10 * time.Minute
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 5 * time.Minute
	}
	loc := time.FixedZone("local", int(opts.UTCOffset/time.Second))
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		sweeper:   sweeper,
		notifier:  notifier,
		states:    database.NewReviewStateRepository(db),
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the jobs and runs them in the background
func (s *Scheduler) Start() error {
	s.scheduler.SingletonModeAll()

	if _, err := s.scheduler.Every(s.opts.SweepInterval).Do(s.job("duel sweep", s.sweep)); err != nil {
		return fmt.Errorf("failed to schedule duel sweep: %w", err)
	}

	if s.notifier != nil {
		at := fmt.Sprintf("%02d:00", s.opts.ReminderHour)
		if _, err := s.scheduler.Every(1).Day().At(at).Do(s.job("review reminders", s.SendReminders)); err != nil {
			return fmt.Errorf("failed to schedule reminders: %w", err)
		}
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started",
		"sweep_interval", s.opts.SweepInterval,
		"reminder_hour", s.opts.ReminderHour,
		"reminders", s.notifier != nil)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// job adapts a context-aware task to a gocron callback
func (s *Scheduler) job(name string, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.JobTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) error {
	_, err := s.sweeper.Sweep(ctx)
	return err
}

// SendReminders notifies every user with words due today
func (s *Scheduler) SendReminders(ctx context.Context) error {
	counts, err := s.states.CountDueByUser(ctx, spaced_repetition.Today(s.now()))
	if err != nil {
		return err
	}

	sent := 0
	for _, c := range counts {
		if c.Count == 0 {
			continue
		}
		if err := s.notifier.SendReminders(ctx, c.UserID, c.Count); err != nil {
			s.logger.Warn("failed to send reminder", "user_id", c.UserID, "error", err)
			continue
		}
		sent++
	}
	s.logger.Info("review reminders sent", "users", sent)
	return nil
}
