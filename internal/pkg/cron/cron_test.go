package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	records []attendance.RawRecord
	err     error
}

func (f *fakeRepository) List(ctx context.Context) ([]attendance.RawRecord, error) {
	return f.records, f.err
}

func (f *fakeRepository) ListByEmail(ctx context.Context, email string) ([]attendance.RawRecord, error) {
	return nil, errors.New("not used")
}

func TestCheckStaleOpenSessions(t *testing.T) {
	repo := &fakeRepository{records: []attendance.RawRecord{
		{Email: "a@x.com", EntryTime: "2024-12-02T09:00:00Z"},
		{Email: "A@x.com", EntryTime: "2024-12-03T09:00:00Z"},
		{Email: "b@x.com", EntryTime: "2024-12-03T09:00:00Z", ExitTime: "2024-12-03T17:00:00Z"},
		{Email: "c@x.com", EntryTime: "2024-12-04T09:00:00Z"},
	}}
	m := metrics.New(nil)
	jobs := NewAttendanceJobs(repo, attendance.NewAggregator(time.UTC), m)
	jobs.now = func() time.Time { return time.Date(2024, 12, 4, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, jobs.CheckStaleOpenSessions(context.Background()))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StaleOpenSessions))
}

func TestCheckStaleOpenSessions_UpstreamError(t *testing.T) {
	jobs := NewAttendanceJobs(&fakeRepository{err: errors.New("down")}, attendance.NewAggregator(time.UTC), nil)
	assert.Error(t, jobs.CheckStaleOpenSessions(context.Background()))
}

func TestScheduler(t *testing.T) {
	t.Run("run once", func(t *testing.T) {
		s := NewScheduler(context.Background())
		var calls atomic.Int32
		s.AddJob("count", time.Hour, func(ctx context.Context) error {
			calls.Add(1)
			return nil
		})
		s.AddJob("disabled", 0, func(ctx context.Context) error {
			calls.Add(100)
			return nil
		})

		s.RunOnce(context.Background())
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("start runs immediately and stop waits", func(t *testing.T) {
		s := NewScheduler(context.Background())
		ran := make(chan struct{}, 1)
		s.AddJob("tick", time.Hour, func(ctx context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return errors.New("logged, not fatal")
		})

		s.Start()
		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			t.Fatal("job did not run on start")
		}
		s.Stop()
	})
}
