package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/metrics"
)

const dailyHoursWindow = 7

type AttendanceServiceImpl struct {
	aggregator attendance.Aggregator
	repository attendance.AttendanceRepository
	recorder   attendance.AttendanceRecorder
	users      user.UserRepository
	metrics    *metrics.Metrics
	now        func() time.Time
}

// records fetches and normalizes the whole data set. Stats are computed on
// every call; nothing is cached.
func (s *AttendanceServiceImpl) records(ctx context.Context) ([]attendance.Record, error) {
	raws, err := s.repository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attendance records: %w", err)
	}
	return s.aggregator.Normalize(raws), nil
}

func (s *AttendanceServiceImpl) reportDataErrors(stats attendance.Stats) {
	if len(stats.DataErrors) == 0 {
		return
	}
	s.metrics.DataErrors.Add(float64(len(stats.DataErrors)))
	for _, dataErr := range stats.DataErrors {
		slog.Warn("Skipping unparseable timestamp",
			"identity", dataErr.Identity,
			"field", dataErr.Field,
			"value", dataErr.Value,
		)
	}
}

// Stats implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Stats(ctx context.Context, q attendance.StatsQuery) (attendance.StatsResponse, error) {
	if err := q.Validate(); err != nil {
		return attendance.StatsResponse{}, err
	}

	records, err := s.records(ctx)
	if err != nil {
		return attendance.StatsResponse{}, err
	}

	filtered := s.aggregator.FilterForIdentityAndPeriod(records, q.Email, q.Period)
	stats := s.aggregator.ComputeStats(filtered)
	stats.DataErrors = append(stats.DataErrors, s.aggregator.UndatedIssues(records, q.Email)...)
	s.reportDataErrors(stats)

	return attendance.StatsResponse{
		Email:  q.Email,
		Period: q.Period,
		Stats:  stats,
	}, nil
}

// Search implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Search(ctx context.Context, q attendance.SearchQuery) (attendance.SearchResponse, error) {
	if err := q.Validate(); err != nil {
		return attendance.SearchResponse{}, err
	}

	var (
		matched []attendance.Record
		undated []attendance.DataError
	)
	if q.Email != "" {
		records, scoped, err := s.recordsForEmail(ctx, q.Email)
		if err != nil {
			return attendance.SearchResponse{}, err
		}
		// The per-email endpoint already selected the identity and may omit
		// the email key, so only the full list is filtered by identity.
		if scoped {
			matched = s.aggregator.FilterByPeriod(records, q.Period)
			undated = s.aggregator.UndatedIssues(records, "")
		} else {
			matched = s.aggregator.FilterForIdentityAndPeriod(records, q.Email, q.Period)
			undated = s.aggregator.UndatedIssues(records, q.Email)
		}
		if q.Name != "" {
			matched = s.aggregator.FilterByNameAndPeriod(matched, q.Name, q.Period)
		}
	} else {
		records, err := s.records(ctx)
		if err != nil {
			return attendance.SearchResponse{}, err
		}
		matched = s.aggregator.FilterByNameAndPeriod(records, q.Name, q.Period)
	}

	if len(matched) == 0 {
		return attendance.SearchResponse{}, attendance.ErrNoRecordsFound
	}

	stats := s.aggregator.ComputeStats(matched)
	stats.DataErrors = append(stats.DataErrors, undated...)
	s.reportDataErrors(stats)

	return attendance.SearchResponse{
		Employee:   s.employeeDetails(matched, q),
		Period:     q.Period,
		Stats:      stats,
		AbsentDays: attendance.AbsentDays(stats.DaysPresent),
		DailyHours: s.aggregator.DailyHours(matched, dailyHoursWindow),
	}, nil
}

// recordsForEmail asks the per-email endpoint first and falls back to the
// full list when it fails. scoped reports whether the records came from the
// per-email endpoint.
func (s *AttendanceServiceImpl) recordsForEmail(ctx context.Context, email string) (records []attendance.Record, scoped bool, err error) {
	raws, err := s.repository.ListByEmail(ctx, email)
	if err == nil {
		return s.aggregator.Normalize(raws), true, nil
	}

	slog.Warn("Per-email lookup failed, falling back to full list", "email", email, "error", err)
	records, err = s.records(ctx)
	return records, false, err
}

func (s *AttendanceServiceImpl) employeeDetails(records []attendance.Record, q attendance.SearchQuery) attendance.EmployeeDetails {
	first := records[0]

	name := first.Name
	if name == "" {
		name = q.Name
	}
	email := first.Email
	if email == "" {
		email = q.Email
	}

	return attendance.EmployeeDetails{
		Name:         name,
		Email:        email,
		EmployeeCode: employeeCode(email),
		Status:       s.aggregator.LatestStatus(records),
		RecordCount:  len(records),
	}
}

// employeeCode is the upper-cased local part of an email.
func employeeCode(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return strings.ToUpper(local)
}

// Session implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Session(ctx context.Context, q attendance.SessionQuery) (attendance.SessionResponse, error) {
	if err := q.Validate(); err != nil {
		return attendance.SessionResponse{}, err
	}

	day := s.now().In(s.aggregator.Location())
	if q.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", q.Date, s.aggregator.Location())
		if err != nil {
			return attendance.SessionResponse{}, fmt.Errorf("invalid date %q: %w", q.Date, err)
		}
		day = parsed
	}

	records, err := s.records(ctx)
	if err != nil {
		return attendance.SessionResponse{}, err
	}

	state := s.aggregator.DayState(records, q.Email, day)
	return attendance.SessionResponse{
		Email:  q.Email,
		Date:   day.Format("2006-01-02"),
		Active: state == attendance.DayStateOpen,
		State:  state,
	}, nil
}

// HasOpenSession implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) HasOpenSession(ctx context.Context, email string, asOf time.Time) (bool, error) {
	records, err := s.records(ctx)
	if err != nil {
		return false, err
	}
	return s.aggregator.HasOpenSession(records, email, asOf), nil
}

// MarkEntry implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkEntry(ctx context.Context, req attendance.MarkRequest) (attendance.MarkResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.MarkResponse{}, err
	}

	// A failed check is not fatal; the upstream API stays the authority.
	open, err := s.HasOpenSession(ctx, req.Email, s.now())
	if err != nil {
		slog.Warn("Session check failed, assuming no active session", "email", req.Email, "error", err)
	} else if open {
		return attendance.MarkResponse{}, attendance.ErrAlreadyClockedIn
	}

	identity := s.resolveIdentity(ctx, req)
	attempts, err := s.recorder.MarkEntry(ctx, identity, req.Password)
	if err != nil {
		return attendance.MarkResponse{}, err
	}

	slog.Info("Attendance entry marked", "email", identity.Email, "attempts", attempts)
	return attendance.MarkResponse{
		Email:    identity.Email,
		Action:   attendance.ActionClockIn,
		Attempts: attempts,
		Message:  "Attendance marked successfully",
	}, nil
}

// MarkExit implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkExit(ctx context.Context, req attendance.MarkRequest) (attendance.MarkResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.MarkResponse{}, err
	}

	identity := s.resolveIdentity(ctx, req)
	if err := s.recorder.MarkExit(ctx, identity, req.Password); err != nil {
		return attendance.MarkResponse{}, err
	}

	slog.Info("Attendance exit marked", "email", identity.Email)
	return attendance.MarkResponse{
		Email:   identity.Email,
		Action:  attendance.ActionClockOut,
		Message: "Exit marked successfully",
	}, nil
}

// resolveIdentity uses the manager directory's stored casing for managers,
// since the entry endpoint may compare emails case-sensitively. Any lookup
// failure keeps the identity as given.
func (s *AttendanceServiceImpl) resolveIdentity(ctx context.Context, req attendance.MarkRequest) attendance.Identity {
	identity := attendance.Identity{Name: req.Name, Email: req.Email}
	if !req.IsManager {
		return identity
	}

	managers, err := s.users.ListManagers(ctx)
	if err != nil {
		slog.Warn("Could not load manager directory", "email", req.Email, "error", err)
		return identity
	}

	target := attendance.NormalizeIdentity(req.Email)
	for _, m := range managers {
		if attendance.NormalizeIdentity(m.Email) != target {
			continue
		}
		if m.Name != "" {
			identity.Name = m.Name
		}
		if m.Email != "" {
			identity.Email = m.Email
		}
		break
	}
	return identity
}

func NewAttendanceService(
	aggregator attendance.Aggregator,
	repository attendance.AttendanceRepository,
	recorder attendance.AttendanceRecorder,
	userRepository user.UserRepository,
	m *metrics.Metrics,
) attendance.AttendanceService {
	if m == nil {
		m = metrics.New(nil)
	}
	return &AttendanceServiceImpl{
		aggregator: aggregator,
		repository: repository,
		recorder:   recorder,
		users:      userRepository,
		metrics:    m,
		now:        time.Now,
	}
}
