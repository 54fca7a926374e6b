package trackbase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/attendance"
)

// entryShape builds one of the request bodies the entry endpoint has
// accepted over its versions.
type entryShape struct {
	Name  string
	Build func(identity attendance.Identity, password string) map[string]string
}

// entryShapes are tried in order until one is accepted.
var entryShapes = []entryShape{
	{
		Name: "employee_name_lower_password",
		Build: func(id attendance.Identity, password string) map[string]string {
			return map[string]string{"EmployeeName": id.Name, "Email": id.Email, "password": password}
		},
	},
	{
		Name: "employee_name_pascal",
		Build: func(id attendance.Identity, password string) map[string]string {
			return map[string]string{"EmployeeName": id.Name, "Email": id.Email, "Password": password}
		},
	},
	{
		Name: "name_pascal",
		Build: func(id attendance.Identity, password string) map[string]string {
			return map[string]string{"Name": id.Name, "Email": id.Email, "password": password}
		},
	},
	{
		Name: "camel_lower_email",
		Build: func(id attendance.Identity, password string) map[string]string {
			return map[string]string{"name": id.Name, "email": strings.ToLower(id.Email), "password": password}
		},
	},
}

// ListAttendance fetches every attendance record.
func (c *Client) ListAttendance(ctx context.Context) ([]attendance.RawRecord, error) {
	var records []attendance.RawRecord
	if err := c.doJSON(ctx, "attendance_list", http.MethodGet, "/api/attendance", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ListAttendanceByEmail fetches one identity's records. The endpoint answers
// with either an array or a single record.
func (c *Client) ListAttendanceByEmail(ctx context.Context, email string) ([]attendance.RawRecord, error) {
	var raw json.RawMessage
	path := "/api/attendance/" + url.PathEscape(email)
	if err := c.doJSON(ctx, "attendance_by_email", http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(raw))
	switch {
	case trimmed == "" || trimmed == "null":
		return nil, nil
	case strings.HasPrefix(trimmed, "["):
		var records []attendance.RawRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("decode attendance_by_email response: %w", err)
		}
		return records, nil
	default:
		var record attendance.RawRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("decode attendance_by_email response: %w", err)
		}
		return []attendance.RawRecord{record}, nil
	}
}

// MarkEntry posts an entry, walking entryShapes until one is accepted. Any
// non-2xx answer moves on to the next shape, since the entry endpoint can
// answer a wrong field name with a 500. Transport failures and an open
// breaker stop immediately. It returns the number of shapes tried.
func (c *Client) MarkEntry(ctx context.Context, identity attendance.Identity, password string) (int, error) {
	var (
		attempts int
		lastErr  error
	)

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(uint(len(entryShapes))),
		retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
			return c.entryDelay
		}),
		retry.RetryIf(isStatusError),
	)

	err := r.Do(func() error {
		shape := entryShapes[attempts]
		attempts++

		lastErr = c.doJSON(ctx, "attendance_entry", http.MethodPost, "/api/attendance/entry", shape.Build(identity, password), nil)

		outcome := "accepted"
		switch {
		case lastErr == nil:
		case isStatusError(lastErr):
			outcome = "rejected"
		default:
			outcome = "error"
		}
		c.metrics.EntryAttempts.WithLabelValues(shape.Name, outcome).Inc()
		slog.Info("Attendance entry attempt",
			"email", identity.Email,
			"attempt", attempts,
			"shape", shape.Name,
			"outcome", outcome,
			"error", errString(lastErr),
		)
		return lastErr
	})
	if err == nil {
		return attempts, nil
	}
	if lastErr == nil {
		// Context ended before any attempt finished.
		return attempts, err
	}
	if IsRejection(lastErr) {
		return attempts, fmt.Errorf("%w after %d attempts: %w", attendance.ErrEntryRejected, attempts, lastErr)
	}
	return attempts, lastErr
}

// MarkExit posts an exit.
func (c *Client) MarkExit(ctx context.Context, identity attendance.Identity, password string) error {
	payload := map[string]string{"EmployeeName": identity.Name, "Email": identity.Email, "password": password}
	err := c.doJSON(ctx, "attendance_exit", http.MethodPost, "/api/attendance/exit", payload, nil)
	if err != nil && IsRejection(err) {
		return fmt.Errorf("%w: %w", attendance.ErrExitRejected, err)
	}
	return err
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
