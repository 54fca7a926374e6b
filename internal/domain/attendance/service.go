package attendance

import (
	"context"
	"io"
	"time"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// Stats computes one identity's stats for a period (employee and manager self-view)
	Stats(ctx context.Context, q StatsQuery) (StatsResponse, error)

	// Search looks up another employee by email and/or name (manager view)
	Search(ctx context.Context, q SearchQuery) (SearchResponse, error)

	// Session reports whether the identity has an open session on a date
	Session(ctx context.Context, q SessionQuery) (SessionResponse, error)

	// HasOpenSession is the read-only predicate used to avoid a double entry
	HasOpenSession(ctx context.Context, email string, asOf time.Time) (bool, error)

	// MarkEntry records an entry unless a session is already open today
	MarkEntry(ctx context.Context, req MarkRequest) (MarkResponse, error)

	// MarkExit records an exit
	MarkExit(ctx context.Context, req MarkRequest) (MarkResponse, error)

	// Export writes the stats workbook for a period and returns its file name
	Export(ctx context.Context, q StatsQuery, w io.Writer) (string, error)
}
