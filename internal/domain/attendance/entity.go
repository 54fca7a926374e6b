package attendance

import (
	"time"
)

// WorkingDaysPerMonth is the fixed denominator of the attendance rate.
// It is not derived from the calendar.
const WorkingDaysPerMonth = 22

// RecentActivityLimit caps the activity feed.
const RecentActivityLimit = 10

// Record is the canonical shape of one attendance visit. Every upstream
// record is mapped into it once by Normalize.
type Record struct {
	Email     string
	Identity  string
	Name      string
	EntryTime *time.Time
	ExitTime  *time.Time

	// ExitMalformed is set when an exit value was supplied but could not be
	// parsed. Such a record is not an open session.
	ExitMalformed bool
	Issues        []DataError
}

// IsOpen reports whether the visit has an entry and no exit.
func (r Record) IsOpen() bool {
	return r.EntryTime != nil && r.ExitTime == nil && !r.ExitMalformed
}

// ReferenceTime is the timestamp used for period filtering: entry, else exit.
func (r Record) ReferenceTime() *time.Time {
	if r.EntryTime != nil {
		return r.EntryTime
	}
	return r.ExitTime
}

type Action string

const (
	ActionClockIn  Action = "CLOCK_IN"
	ActionClockOut Action = "CLOCK_OUT"
)

type ActivityEvent struct {
	Date   string    `json:"date"`
	Time   string    `json:"time"`
	Action Action    `json:"action"`
	At     time.Time `json:"at"`
}

// Stats is derived on every query and never cached.
type Stats struct {
	DaysPresent    int             `json:"days_present"`
	TotalHours     float64         `json:"total_hours"`
	AttendanceRate int             `json:"attendance_rate"`
	RecentActivity []ActivityEvent `json:"recent_activity"`
	DataErrors     []DataError     `json:"data_errors,omitempty"`
}

type DailyHours struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// DayState is the observed attendance state of one identity on one day.
type DayState string

const (
	DayStateNoRecord DayState = "NO_RECORD"
	DayStateOpen     DayState = "OPEN"
	DayStateClosed   DayState = "CLOSED"
)

// EmployeeStatus is derived from an employee's latest record.
type EmployeeStatus string

const (
	EmployeeStatusActive    EmployeeStatus = "ACTIVE"
	EmployeeStatusInactive  EmployeeStatus = "INACTIVE"
	EmployeeStatusNoRecords EmployeeStatus = "NO_RECORDS"
)

// Identity is who an entry or exit is recorded for.
type Identity struct {
	Name  string
	Email string
}
