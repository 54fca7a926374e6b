package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/trackbase"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrRegistrationFailed):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, user.ErrUserEmailExists):
		Conflict(w, "Email already registered")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyClockedIn):
		Conflict(w, "You already have an active session today")
	case errors.Is(err, attendance.ErrNoRecordsFound):
		NotFound(w, "No records found for the given input")
	case errors.Is(err, attendance.ErrEntryRejected):
		BadRequest(w, upstreamMessage(err, "Attendance entry was rejected"), nil)
	case errors.Is(err, attendance.ErrExitRejected):
		BadRequest(w, upstreamMessage(err, "Exit marking failed"), nil)

	// Upstream errors
	case errors.Is(err, trackbase.ErrUpstreamUnavailable):
		slog.Error("TrackBase API unavailable", "error", err)
		ServiceUnavailable(w, "Attendance service is unavailable, please try again later")
	case isStatusError(err):
		slog.Error("TrackBase API error", "error", err)
		BadGateway(w, upstreamMessage(err, "Attendance service returned an error"))

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

func isStatusError(err error) bool {
	_, ok := trackbase.AsStatusError(err)
	return ok
}

func upstreamMessage(err error, fallback string) string {
	if statusErr, ok := trackbase.AsStatusError(err); ok && statusErr.Message != "" {
		return statusErr.Message
	}
	return fallback
}
