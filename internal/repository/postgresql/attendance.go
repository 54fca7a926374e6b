package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

const selectRecords = `
	SELECT email, name, entry_time, exit_time
	FROM attendance_records
`

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context) ([]attendance.RawRecord, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, selectRecords+` ORDER BY entry_time`)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	return scanRecords(rows)
}

// ListByEmail implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmail(ctx context.Context, email string) ([]attendance.RawRecord, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, selectRecords+` WHERE LOWER(TRIM(email)) = LOWER(TRIM($1)) ORDER BY entry_time`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records for %s: %w", email, err)
	}
	return scanRecords(rows)
}

// scanRecords renders timestamps as RFC 3339 so the rows go through the same
// normalization as API records.
func scanRecords(rows pgx.Rows) ([]attendance.RawRecord, error) {
	defer rows.Close()

	var records []attendance.RawRecord
	for rows.Next() {
		var (
			rec       attendance.RawRecord
			name      *string
			entryTime *time.Time
			exitTime  *time.Time
		)
		if err := rows.Scan(&rec.Email, &name, &entryTime, &exitTime); err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		if name != nil {
			rec.Name = *name
		}
		if entryTime != nil {
			rec.EntryTime = entryTime.Format(time.RFC3339Nano)
		}
		if exitTime != nil {
			rec.ExitTime = exitTime.Format(time.RFC3339Nano)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}
	return records, nil
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}
