package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New("UTC", time.Minute, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestNewInvalidTimezone(t *testing.T) {
	_, err := New("Mars/Olympus_Mons", time.Minute, zerolog.Nop())
	assert.Error(t, err)
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddExtractJob("0 */6 * * *", noop))
	assert.Error(t, s.AddExtractJob("0 * * * *", noop), "duplicate name")
	assert.Error(t, s.AddJob("bad", "not a schedule", noop))

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "extract", jobs[0].Name)
}

func TestListJobsReportsNextRun(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.AddExtractJob("@every 1h", func(context.Context) error { return nil }))

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		jobs := s.ListJobs()
		return len(jobs) == 1 && !jobs[0].NextRun.IsZero()
	}, time.Second, 10*time.Millisecond)
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.AddExtractJob("@hourly", func(context.Context) error { return nil }))

	s.RemoveJob("extract")
	s.RemoveJob("missing")
	assert.Empty(t, s.ListJobs())
}

func TestRunNow(t *testing.T) {
	s := newTestScheduler(t)

	var deadline time.Time
	err := s.RunNow("extract", func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return nil
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	boom := errors.New("boom")
	err = s.RunNow("extract", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestLocation(t *testing.T) {
	s, err := New("America/New_York", time.Minute, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", s.Location().String())
}
