// Package worker runs background maintenance jobs.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single cleanup run.
const jobTimeout = 30 * time.Second

// Cleaner deletes expired records. app.AuthService implements it.
type Cleaner interface {
	CleanupExpired(ctx context.Context) error
}

// Scheduler runs a Cleaner on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	cleaner Cleaner
}

// NewScheduler registers cleaner under spec, a standard five-field cron
// expression or a descriptor such as @hourly.
func NewScheduler(spec string, cleaner Cleaner) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		cleaner: cleaner,
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("schedule cleanup %q: %w", spec, err)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	slog.InfoContext(ctx, "cleanup scheduler started", slog.Int("jobs", len(s.cron.Entries())))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := s.cleaner.CleanupExpired(ctx); err != nil {
		slog.ErrorContext(ctx, "expired token cleanup failed", slog.Any("error", err))
		return
	}
	slog.DebugContext(ctx, "expired tokens cleaned", slog.Duration("took", time.Since(start)))
}
