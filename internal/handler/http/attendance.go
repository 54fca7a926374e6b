package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AttendanceHandler interface {
	Stats(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
	Search(w http.ResponseWriter, r *http.Request)
	Session(w http.ResponseWriter, r *http.Request)
	MarkEntry(w http.ResponseWriter, r *http.Request)
	MarkExit(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	loc               *time.Location
	now               func() time.Time
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, loc *time.Location) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		loc:               loc,
		now:               time.Now,
	}
}

// periodFromQuery reads month (0-11) and year, defaulting to the current
// period.
func (h *attendanceHandlerImpl) periodFromQuery(r *http.Request) (attendance.Period, error) {
	period := attendance.PeriodOf(h.now(), h.loc)
	var errs validator.ValidationErrors

	if v := r.URL.Query().Get("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "month", Message: "month must be a number"})
		} else {
			period.Month = month
		}
	}
	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be a number"})
		} else {
			period.Year = year
		}
	}

	if len(errs) > 0 {
		return period, errs
	}
	return period, nil
}

// Stats implements AttendanceHandler.
func (h *attendanceHandlerImpl) Stats(w http.ResponseWriter, r *http.Request) {
	period, err := h.periodFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	q := attendance.StatsQuery{Email: r.URL.Query().Get("email"), Period: period}
	stats, err := h.attendanceService.Stats(r.Context(), q)
	if err != nil {
		slog.Error("Stats service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, stats)
}

// Export implements AttendanceHandler.
func (h *attendanceHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	period, err := h.periodFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// Buffer so a failure can still be reported as JSON
	var buf bytes.Buffer
	q := attendance.StatsQuery{Email: r.URL.Query().Get("email"), Period: period}
	filename, err := h.attendanceService.Export(r.Context(), q, &buf)
	if err != nil {
		slog.Error("Export service error", "error", err)
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write export", "error", err)
	}
}

// Search implements AttendanceHandler.
func (h *attendanceHandlerImpl) Search(w http.ResponseWriter, r *http.Request) {
	period, err := h.periodFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	q := attendance.SearchQuery{
		Email:  r.URL.Query().Get("email"),
		Name:   r.URL.Query().Get("name"),
		Period: period,
	}
	result, err := h.attendanceService.Search(r.Context(), q)
	if err != nil {
		slog.Error("Search service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Session implements AttendanceHandler.
func (h *attendanceHandlerImpl) Session(w http.ResponseWriter, r *http.Request) {
	q := attendance.SessionQuery{
		Email: r.URL.Query().Get("email"),
		Date:  r.URL.Query().Get("date"),
	}
	session, err := h.attendanceService.Session(r.Context(), q)
	if err != nil {
		slog.Error("Session service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, session)
}

// MarkEntry implements AttendanceHandler.
func (h *attendanceHandlerImpl) MarkEntry(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMarkRequest(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.MarkEntry(r.Context(), req)
	if err != nil {
		slog.Error("MarkEntry service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, result.Message, result)
}

// MarkExit implements AttendanceHandler.
func (h *attendanceHandlerImpl) MarkExit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMarkRequest(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.MarkExit(r.Context(), req)
	if err != nil {
		slog.Error("MarkExit service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, result.Message, result)
}

func decodeMarkRequest(w http.ResponseWriter, r *http.Request) (attendance.MarkRequest, bool) {
	var req attendance.MarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Mark request decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return req, false
	}
	req.Email = strings.TrimSpace(req.Email)
	return req, true
}
