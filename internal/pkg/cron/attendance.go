package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/metrics"
)

const staleOpenSessionsJob = "stale_open_sessions"

// AttendanceJobs reports data-quality gaps in the attendance source. It only
// reads; open sessions are never closed from here.
type AttendanceJobs struct {
	attendanceRepo attendance.AttendanceRepository
	aggregator     attendance.Aggregator
	metrics        *metrics.Metrics
	now            func() time.Time
}

func NewAttendanceJobs(
	attendanceRepo attendance.AttendanceRepository,
	aggregator attendance.Aggregator,
	m *metrics.Metrics,
) *AttendanceJobs {
	if m == nil {
		m = metrics.New(nil)
	}
	return &AttendanceJobs{
		attendanceRepo: attendanceRepo,
		aggregator:     aggregator,
		metrics:        m,
		now:            time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob(staleOpenSessionsJob, interval, j.CheckStaleOpenSessions)
}

// CheckStaleOpenSessions counts sessions entered before today that never got
// an exit and publishes the count as a gauge.
func (j *AttendanceJobs) CheckStaleOpenSessions(ctx context.Context) error {
	raws, err := j.attendanceRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch attendance records: %w", err)
	}

	stale := j.aggregator.OpenSessionsBefore(j.aggregator.Normalize(raws), j.now())
	j.metrics.StaleOpenSessions.Set(float64(len(stale)))

	if len(stale) == 0 {
		slog.Debug("Cron: No stale open sessions found")
		return nil
	}

	perIdentity := make(map[string]int)
	for _, rec := range stale {
		perIdentity[rec.Identity]++
	}
	for identity, count := range perIdentity {
		slog.Warn("Cron: Open session left from a previous day", "identity", identity, "sessions", count)
	}
	slog.Info("Cron: Stale open sessions check completed", "total", len(stale), "identities", len(perIdentity))
	return nil
}
