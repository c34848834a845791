// Package jobs runs the periodic maintenance work of the server.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/internal/infrastructure/metrics"
	"accessible-env-backend/pkg/logger"
)

const (
	JobRefreshStats       = "refresh_stats"
	JobPurgeNotifications = "purge_notifications"

	purgeSpec  = "@daily"
	jobTimeout = 10 * time.Minute
)

// StatsRefresher recomputes the cached statistics of every location
type StatsRefresher interface {
	RefreshAllStats(ctx context.Context) (int, error)
}

// NotificationPurger drops old read notifications
type NotificationPurger interface {
	PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Scheduler owns the cron instance
type Scheduler struct {
	cron      *cron.Cron
	stats     StatsRefresher
	purger    NotificationPurger
	retention time.Duration
	entries   map[string]cron.EntryID
}

// NewScheduler registers the jobs. A retention of zero days disables the purge.
func NewScheduler(cfg *config.Config, stats StatsRefresher, purger NotificationPurger) (*Scheduler, error) {
	log := cronLogger{}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		stats:     stats,
		purger:    purger,
		retention: time.Duration(cfg.NotificationRetentionDays) * 24 * time.Hour,
		entries:   make(map[string]cron.EntryID),
	}

	if err := s.add(JobRefreshStats, cfg.StatsRefreshSpec, s.RefreshStats); err != nil {
		return nil, err
	}
	if s.retention > 0 {
		if err := s.add(JobPurgeNotifications, purgeSpec, s.PurgeNotifications); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) add(name, spec string, fn func(ctx context.Context) error) error {
	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		fn(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %s with %q: %w", name, spec, err)
	}
	s.entries[name] = id
	logger.Info("scheduled job %s (%s)", name, spec)
	return nil
}

// Jobs lists the registered job names
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// Next returns the next run time of a job, or zero if it is not registered
// or the scheduler is not running
func (s *Scheduler) Next(name string) time.Time {
	id, ok := s.entries[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Run starts the cron and blocks until ctx is done, then waits for running
// jobs to finish
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	logger.Info("scheduler stopped")
	return nil
}

// RefreshStats recomputes location statistics
func (s *Scheduler) RefreshStats(ctx context.Context) error {
	start := time.Now()
	n, err := s.stats.RefreshAllStats(ctx)
	metrics.JobRun(JobRefreshStats, err == nil, time.Since(start))
	if err != nil {
		logger.Error("job %s failed after %d locations: %v", JobRefreshStats, n, err)
		return err
	}
	logger.Info("job %s refreshed %d locations in %s", JobRefreshStats, n, time.Since(start))
	return nil
}

// PurgeNotifications removes read notifications past the retention window
func (s *Scheduler) PurgeNotifications(ctx context.Context) error {
	start := time.Now()
	n, err := s.purger.PurgeRead(ctx, s.retention)
	metrics.JobRun(JobPurgeNotifications, err == nil, time.Since(start))
	if err != nil {
		logger.Error("job %s failed: %v", JobPurgeNotifications, err)
		return err
	}
	logger.Debug("job %s removed %d notifications", JobPurgeNotifications, n)
	return nil
}

// cronLogger forwards cron's own messages to zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Get().Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Get().Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
