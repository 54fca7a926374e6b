package attendance

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Aggregator turns normalized records into attendance stats. It holds no
// state besides the location used for calendar grouping and is safe for
// concurrent use.
type Aggregator struct {
	loc *time.Location
}

func NewAggregator(loc *time.Location) Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return Aggregator{loc: loc}
}

func (a Aggregator) Location() *time.Location {
	return a.loc
}

// Normalize maps raw upstream records using the aggregator's location.
func (a Aggregator) Normalize(raws []RawRecord) []Record {
	return NormalizeAll(raws, a.loc)
}

func (a Aggregator) dateKey(t time.Time) string {
	return t.In(a.loc).Format(dateLayout)
}

func (a Aggregator) inPeriod(rec Record, period Period) bool {
	ref := rec.ReferenceTime()
	return ref != nil && period.Contains(*ref, a.loc)
}

// FilterForIdentityAndPeriod keeps the records of one identity whose
// reference time falls in the period. Records with no parseable timestamp
// have no reference time and are dropped; see UndatedIssues.
func (a Aggregator) FilterForIdentityAndPeriod(records []Record, identity string, period Period) []Record {
	target := NormalizeIdentity(identity)
	out := make([]Record, 0)
	for _, rec := range records {
		if rec.Identity == target && a.inPeriod(rec, period) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterByPeriod keeps records whose reference time falls in the period,
// whoever they belong to.
func (a Aggregator) FilterByPeriod(records []Record, period Period) []Record {
	out := make([]Record, 0)
	for _, rec := range records {
		if a.inPeriod(rec, period) {
			out = append(out, rec)
		}
	}
	return out
}

// UndatedIssues returns the data errors of records that have no parseable
// timestamp at all. Period filters drop such records, so their errors would
// otherwise never reach Stats.DataErrors. An empty identity matches every
// record.
func (a Aggregator) UndatedIssues(records []Record, identity string) []DataError {
	target := NormalizeIdentity(identity)
	var issues []DataError
	for _, rec := range records {
		if rec.ReferenceTime() != nil {
			continue
		}
		if target != "" && rec.Identity != target {
			continue
		}
		issues = append(issues, rec.Issues...)
	}
	return issues
}

// FilterByNameAndPeriod keeps records whose name contains query,
// case-insensitively, and whose reference time falls in the period.
func (a Aggregator) FilterByNameAndPeriod(records []Record, query string, period Period) []Record {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]Record, 0)
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.Name), query) && a.inPeriod(rec, period) {
			out = append(out, rec)
		}
	}
	return out
}

// ComputeStats aggregates already-filtered records. Exit-before-entry
// records are not rejected and lower TotalHours.
func (a Aggregator) ComputeStats(records []Record) Stats {
	days := make(map[string]struct{})
	var totalHours float64
	events := make([]ActivityEvent, 0, len(records)*2)
	var dataErrors []DataError

	for _, rec := range records {
		dataErrors = append(dataErrors, rec.Issues...)

		if rec.EntryTime != nil {
			days[a.dateKey(*rec.EntryTime)] = struct{}{}
			events = append(events, a.event(*rec.EntryTime, ActionClockIn))
		}
		if rec.ExitTime != nil {
			events = append(events, a.event(*rec.ExitTime, ActionClockOut))
		}
		if rec.EntryTime != nil && rec.ExitTime != nil {
			totalHours += hoursBetween(*rec.EntryTime, *rec.ExitTime)
		}
	}

	slices.SortStableFunc(events, func(x, y ActivityEvent) int {
		return y.At.Compare(x.At)
	})
	if len(events) > RecentActivityLimit {
		events = events[:RecentActivityLimit]
	}

	return Stats{
		DaysPresent:    len(days),
		TotalHours:     roundTenth(totalHours),
		AttendanceRate: AttendanceRate(len(days)),
		RecentActivity: events,
		DataErrors:     dataErrors,
	}
}

// HasOpenSession reports whether identity has a record entered on asOf's
// calendar date without an exit. It is a plain read: a concurrent writer can
// open a second session between this check and a following entry.
func (a Aggregator) HasOpenSession(records []Record, identity string, asOf time.Time) bool {
	for _, rec := range a.recordsOn(records, identity, asOf) {
		if rec.IsOpen() {
			return true
		}
	}
	return false
}

// DayState reports where identity stands on date: no record, open or closed.
func (a Aggregator) DayState(records []Record, identity string, date time.Time) DayState {
	day := a.recordsOn(records, identity, date)
	if len(day) == 0 {
		return DayStateNoRecord
	}
	for _, rec := range day {
		if rec.IsOpen() {
			return DayStateOpen
		}
	}
	return DayStateClosed
}

func (a Aggregator) recordsOn(records []Record, identity string, date time.Time) []Record {
	target := NormalizeIdentity(identity)
	key := a.dateKey(date)
	var out []Record
	for _, rec := range records {
		if rec.Identity == target && rec.EntryTime != nil && a.dateKey(*rec.EntryTime) == key {
			out = append(out, rec)
		}
	}
	return out
}

// DailyHours sums closed-session hours per entry date and returns the last
// limit days in chronological order. limit <= 0 returns every day.
func (a Aggregator) DailyHours(records []Record, limit int) []DailyHours {
	perDay := make(map[string]float64)
	for _, rec := range records {
		if rec.EntryTime == nil || rec.ExitTime == nil {
			continue
		}
		perDay[a.dateKey(*rec.EntryTime)] += hoursBetween(*rec.EntryTime, *rec.ExitTime)
	}

	out := make([]DailyHours, 0, len(perDay))
	for date, hours := range perDay {
		out = append(out, DailyHours{Date: date, Hours: roundTenth(hours)})
	}
	slices.SortFunc(out, func(x, y DailyHours) int {
		return cmp.Compare(x.Date, y.Date)
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// OpenSessionsBefore returns open sessions entered before day's date.
func (a Aggregator) OpenSessionsBefore(records []Record, day time.Time) []Record {
	key := a.dateKey(day)
	var out []Record
	for _, rec := range records {
		if rec.IsOpen() && a.dateKey(*rec.EntryTime) < key {
			out = append(out, rec)
		}
	}
	return out
}

// LatestStatus looks at the record with the latest entry: active while it is
// open, inactive once closed.
func (a Aggregator) LatestStatus(records []Record) EmployeeStatus {
	var latest *Record
	for i := range records {
		rec := &records[i]
		if rec.EntryTime == nil {
			continue
		}
		if latest == nil || rec.EntryTime.After(*latest.EntryTime) {
			latest = rec
		}
	}
	switch {
	case latest == nil:
		return EmployeeStatusNoRecords
	case latest.ExitTime == nil:
		return EmployeeStatusActive
	default:
		return EmployeeStatusInactive
	}
}

// AbsentDays is the working days left after daysPresent, never below zero.
func AbsentDays(daysPresent int) int {
	return max(WorkingDaysPerMonth-daysPresent, 0)
}

func (a Aggregator) event(t time.Time, action Action) ActivityEvent {
	local := t.In(a.loc)
	return ActivityEvent{
		Date:   local.Format(dateLayout),
		Time:   local.Format(timeLayout),
		Action: action,
		At:     t,
	}
}

// AttendanceRate is round(daysPresent / 22 * 100). It is not clamped to 100.
func AttendanceRate(daysPresent int) int {
	return int(roundHalfUp(float64(daysPresent) / WorkingDaysPerMonth * 100))
}

func hoursBetween(entry, exit time.Time) float64 {
	return float64(exit.Sub(entry).Milliseconds()) / 3_600_000
}

func roundTenth(v float64) float64 {
	return roundHalfUp(v*10) / 10
}

// roundHalfUp rounds .5 toward positive infinity, as JavaScript Math.round.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
