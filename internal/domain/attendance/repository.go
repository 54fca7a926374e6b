package attendance

import (
	"context"
)

// AttendanceRepository is a read-only source of raw attendance records.
// Implementations return records exactly as stored; normalization happens in
// the service.
type AttendanceRepository interface {
	// List retrieves every attendance record
	List(ctx context.Context) ([]RawRecord, error)

	// ListByEmail retrieves the records of one identity, case-insensitively
	ListByEmail(ctx context.Context, email string) ([]RawRecord, error)
}

// AttendanceRecorder writes entries and exits to the system of record.
type AttendanceRecorder interface {
	// MarkEntry opens a session and returns how many request shapes were tried
	MarkEntry(ctx context.Context, identity Identity, password string) (int, error)

	MarkExit(ctx context.Context, identity Identity, password string) error
}
