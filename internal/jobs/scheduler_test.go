package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible-env-backend/internal/infrastructure/config"
)

type fakeStats struct {
	calls atomic.Int32
	err   error
}

func (f *fakeStats) RefreshAllStats(ctx context.Context) (int, error) {
	f.calls.Add(1)
	return 3, f.err
}

type fakePurger struct {
	olderThan time.Duration
	err       error
}

func (f *fakePurger) PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return 5, f.err
}

func testConfig(spec string, retentionDays int) *config.Config {
	return &config.Config{StatsRefreshSpec: spec, NotificationRetentionDays: retentionDays}
}

func TestNewSchedulerRegistersJobs(t *testing.T) {
	s, err := NewScheduler(testConfig("@every 1h", 30), &fakeStats{}, &fakePurger{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{JobRefreshStats, JobPurgeNotifications}, s.Jobs())

	s, err = NewScheduler(testConfig("@every 1h", 0), &fakeStats{}, &fakePurger{})
	require.NoError(t, err)
	assert.Equal(t, []string{JobRefreshStats}, s.Jobs(), "zero retention disables the purge")
	assert.True(t, s.Next(JobPurgeNotifications).IsZero())
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(testConfig("every now and then", 30), &fakeStats{}, &fakePurger{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), JobRefreshStats)
}

func TestJobsCallServices(t *testing.T) {
	stats := &fakeStats{}
	purger := &fakePurger{}
	s, err := NewScheduler(testConfig("@every 1h", 7), stats, purger)
	require.NoError(t, err)

	require.NoError(t, s.RefreshStats(context.Background()))
	assert.EqualValues(t, 1, stats.calls.Load())

	require.NoError(t, s.PurgeNotifications(context.Background()))
	assert.Equal(t, 7*24*time.Hour, purger.olderThan)

	stats.err = errors.New("db down")
	assert.Error(t, s.RefreshStats(context.Background()))
	purger.err = errors.New("db down")
	assert.Error(t, s.PurgeNotifications(context.Background()))
}

func TestRunExecutesOnScheduleAndStops(t *testing.T) {
	stats := &fakeStats{}
	s, err := NewScheduler(testConfig("@every 1s", 0), stats, &fakePurger{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return stats.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
