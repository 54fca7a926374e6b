package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/config"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/trace"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/trackbase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAttendanceService struct {
	statsQuery  attendance.StatsQuery
	searchQuery attendance.SearchQuery
	err         error
}

func (f *fakeAttendanceService) Stats(ctx context.Context, q attendance.StatsQuery) (attendance.StatsResponse, error) {
	f.statsQuery = q
	if f.err != nil {
		return attendance.StatsResponse{}, f.err
	}
	return attendance.StatsResponse{Email: q.Email, Period: q.Period, Stats: attendance.Stats{DaysPresent: 3, TotalHours: 24, AttendanceRate: 14}}, nil
}

func (f *fakeAttendanceService) Search(ctx context.Context, q attendance.SearchQuery) (attendance.SearchResponse, error) {
	f.searchQuery = q
	return attendance.SearchResponse{}, f.err
}

func (f *fakeAttendanceService) Session(ctx context.Context, q attendance.SessionQuery) (attendance.SessionResponse, error) {
	return attendance.SessionResponse{Email: q.Email, Date: q.Date, Active: true, State: attendance.DayStateOpen}, f.err
}

func (f *fakeAttendanceService) HasOpenSession(ctx context.Context, email string, asOf time.Time) (bool, error) {
	return false, f.err
}

func (f *fakeAttendanceService) MarkEntry(ctx context.Context, req attendance.MarkRequest) (attendance.MarkResponse, error) {
	if f.err != nil {
		return attendance.MarkResponse{}, f.err
	}
	return attendance.MarkResponse{Email: req.Email, Action: attendance.ActionClockIn, Attempts: 1, Message: "Attendance marked successfully"}, nil
}

func (f *fakeAttendanceService) MarkExit(ctx context.Context, req attendance.MarkRequest) (attendance.MarkResponse, error) {
	return attendance.MarkResponse{Email: req.Email, Action: attendance.ActionClockOut, Message: "Exit marked successfully"}, f.err
}

func (f *fakeAttendanceService) Export(ctx context.Context, q attendance.StatsQuery, w io.Writer) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	_, _ = io.WriteString(w, "xlsx-bytes")
	return "attendance_a_2024-12.xlsx", nil
}

type fakeAuthService struct {
	err error
}

func (f *fakeAuthService) Register(ctx context.Context, req auth.RegisterRequest) (auth.RegisterResponse, error) {
	return auth.RegisterResponse{Name: req.Name, Email: req.Email, Role: user.RoleEmployee}, f.err
}

func (f *fakeAuthService) Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error) {
	if f.err != nil {
		return auth.LoginResponse{}, f.err
	}
	return auth.LoginResponse{
		User:        auth.UserResponse{Name: req.Name, Email: req.Email, Role: user.RoleEmployee},
		EntryMarked: true,
		Message:     "Login successful! Welcome back!",
	}, nil
}

type fakeForwarder struct {
	status int
	body   []byte
	err    error
	got    []byte
	path   string
}

func (f *fakeForwarder) Forward(ctx context.Context, endpoint, method, path string, body []byte) (int, []byte, error) {
	f.got = body
	f.path = path
	return f.status, f.body, f.err
}

type testServer struct {
	handler    http.Handler
	attendance *fakeAttendanceService
	auth       *fakeAuthService
	forwarder  *fakeForwarder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	ts := &testServer{
		attendance: &fakeAttendanceService{},
		auth:       &fakeAuthService{},
		forwarder:  &fakeForwarder{status: http.StatusOK, body: []byte(`{"isManager":false}`)},
	}

	attendanceHandler := NewAttendanceHandler(ts.attendance, time.UTC).(*attendanceHandlerImpl)
	attendanceHandler.now = func() time.Time { return time.Date(2024, 12, 15, 10, 0, 0, 0, time.UTC) }

	ts.handler = NewRouter(
		config.AppConfig{Env: "test", AllowedOrigins: []string{"*"}},
		reg,
		m,
		NewAuthHandler(ts.auth),
		attendanceHandler,
		NewProxyHandler(ts.forwarder),
	)
	return ts
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestStats_DefaultsToCurrentPeriod(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/attendance/stats?email=a@x.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, attendance.Period{Month: 11, Year: 2024}, ts.attendance.statsQuery.Period)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(3), data["days_present"])
	assert.NotEmpty(t, rec.Header().Get(trace.Header))
}

func TestStats_ExplicitPeriod(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/attendance/stats?email=a@x.com&month=0&year=2025", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, attendance.Period{Month: 0, Year: 2025}, ts.attendance.statsQuery.Period)
}

func TestStats_BadMonth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/attendance/stats?email=a@x.com&month=dec", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSearch_ErrorMapping(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"no records":  {attendance.ErrNoRecordsFound, http.StatusNotFound},
		"unavailable": {trackbase.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
		"upstream 5xx": {
			&trackbase.StatusError{StatusCode: 500, Message: "boom"},
			http.StatusBadGateway,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.attendance.err = tc.err

			rec := ts.do(http.MethodGet, "/api/v1/attendance/search?name=bob", "")
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, "bob", ts.attendance.searchQuery.Name)
		})
	}
}

func TestSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/attendance/session?email=a@x.com&date=2024-12-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "OPEN", data["state"])
}

func TestExport(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/attendance/stats/export?email=a@x.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="attendance_a_2024-12.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "xlsx-bytes", rec.Body.String())
}

func TestMarkEntry(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/v1/attendance/entry", `{"name":"Alice","email":"a@x.com","password":"secret"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	ts.attendance.err = attendance.ErrAlreadyClockedIn
	rec = ts.do(http.MethodPost, "/api/v1/attendance/entry", `{"name":"Alice","email":"a@x.com","password":"secret"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPost, "/api/v1/attendance/entry", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkExit_Rejected(t *testing.T) {
	ts := newTestServer(t)
	statusErr := &trackbase.StatusError{StatusCode: 404, Message: "No open session"}
	ts.attendance.err = fmt.Errorf("%w: %w", attendance.ErrExitRejected, statusErr)

	rec := ts.do(http.MethodPost, "/api/v1/attendance/exit", `{"email":"a@x.com","password":"secret"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, "No open session", errBody["message"])
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/v1/auth/login", `{"name":"Alice","email":"a@x.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Login successful! Welcome back!", body["message"])

	rec = ts.do(http.MethodPost, "/api/v1/auth/login", `{"email":"bad"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	ts.auth.err = auth.ErrInvalidCredentials
	rec = ts.do(http.MethodPost, "/api/v1/auth/login", `{"name":"Alice","email":"a@x.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/v1/auth/register", `{"name":"Bob","email":"b@x.com","password":"secret1","role":"employee"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	ts.auth.err = user.ErrUserEmailExists
	rec = ts.do(http.MethodPost, "/api/v1/auth/register", `{"name":"Bob","email":"b@x.com","password":"secret1","role":"employee"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProxyLogin_RekeysBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/user/login", `{"Name":"Alice","Email":"a@x.com","Password":"secret","extra":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isManager":false}`, rec.Body.String())
	assert.JSONEq(t, `{"Name":"Alice","Email":"a@x.com","Password":"secret"}`, string(ts.forwarder.got))
	assert.Equal(t, "/api/user/login", ts.forwarder.path)
}

func TestProxyLogin_PassesUpstreamStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.forwarder.status = http.StatusUnauthorized
	ts.forwarder.body = []byte(`{"message":"Invalid credentials"}`)

	rec := ts.do(http.MethodPost, "/api/user/login", `{"Name":"Alice","Email":"a@x.com","Password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, rec.Body.String())
}

func TestProxyLogin_TransportError(t *testing.T) {
	ts := newTestServer(t)
	ts.forwarder.err = trackbase.ErrUpstreamUnavailable

	rec := ts.do(http.MethodPost, "/api/user/login", `{"Name":"Alice","Email":"a@x.com","Password":"secret"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec), "error")
}

func TestProxyEntry_Validation(t *testing.T) {
	cases := map[string]struct {
		body   string
		errors map[string]any
	}{
		"missing both": {`{}`, map[string]any{"Email": []any{"Email is required"}, "Password": []any{"Password is required"}}},
		"missing password": {`{"Email":"a@x.com"}`, map[string]any{"Email": []any{}, "Password": []any{"Password is required"}}},
		"bad email": {`{"Email":"nope","Password":"secret"}`, map[string]any{"Email": []any{"Invalid email format"}, "Password": []any{}}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t)

			rec := ts.do(http.MethodPost, "/api/attendance/entry", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, "One or more validation errors occurred.", body["title"])
			assert.Equal(t, float64(400), body["status"])
			assert.Equal(t, "https://tools.ietf.org/html/rfc9110#section-15.5.1", body["type"])
			assert.Equal(t, tc.errors, body["errors"])
			assert.Nil(t, ts.forwarder.got)
		})
	}
}

func TestProxyEntry_RelaysBodyUntouched(t *testing.T) {
	ts := newTestServer(t)
	ts.forwarder.body = nil

	payload := `{"EmployeeName":"Alice","Email":"a@x.com","Password":"secret"}`
	rec := ts.do(http.MethodPost, "/api/attendance/entry", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, string(bytes.TrimSpace(ts.forwarder.got)))
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestHeartbeatAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.do(http.MethodGet, "/api/v1/attendance/stats?email=a@x.com", "")
	rec = ts.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_request_duration_seconds_count{method="GET",route="/api/v1/attendance/stats",status="200"} 1`)
}
