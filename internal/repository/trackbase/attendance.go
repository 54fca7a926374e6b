package trackbase

import (
	"context"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/trackbase"
)

type attendanceRepository struct {
	client *trackbase.Client
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context) ([]attendance.RawRecord, error) {
	return a.client.ListAttendance(ctx)
}

// ListByEmail implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmail(ctx context.Context, email string) ([]attendance.RawRecord, error) {
	return a.client.ListAttendanceByEmail(ctx, email)
}

func NewAttendanceRepository(client *trackbase.Client) attendance.AttendanceRepository {
	return &attendanceRepository{client: client}
}

// NewAttendanceRecorder returns the writer side. Writes always go to the API,
// whatever the read source is.
func NewAttendanceRecorder(client *trackbase.Client) attendance.AttendanceRecorder {
	return client
}
