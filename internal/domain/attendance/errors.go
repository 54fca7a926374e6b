package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	ErrAlreadyClockedIn = errors.New("you already have an active session today")
	ErrNoRecordsFound   = errors.New("no attendance records found")
	ErrEntryRejected    = errors.New("attendance entry was rejected")
	ErrExitRejected     = errors.New("attendance exit was rejected")
)

// DataError is an input data problem in a single upstream record. It never
// aborts aggregation.
type DataError struct {
	Identity string `json:"identity,omitempty"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

func newDataError(identity, field, value string, err error) DataError {
	return DataError{
		Identity: identity,
		Field:    field,
		Value:    value,
		Reason:   err.Error(),
		Err:      err,
	}
}

func (e DataError) Error() string {
	return fmt.Sprintf("record %q: %s %q: %s", e.Identity, e.Field, e.Value, e.Reason)
}

func (e DataError) Unwrap() error {
	return e.Err
}
