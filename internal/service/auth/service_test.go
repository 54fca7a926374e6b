package auth

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/trackbase"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepository struct {
	isManager   bool
	loginErr    error
	registerErr error
	registered  []user.Registration
	credentials []user.Credentials
}

func (f *fakeUserRepository) Login(ctx context.Context, creds user.Credentials) (bool, error) {
	f.credentials = append(f.credentials, creds)
	return f.isManager, f.loginErr
}

func (f *fakeUserRepository) Register(ctx context.Context, reg user.Registration) error {
	f.registered = append(f.registered, reg)
	return f.registerErr
}

func (f *fakeUserRepository) ListManagers(ctx context.Context) ([]user.Manager, error) {
	return nil, nil
}

type fakeAttendanceService struct {
	attendance.AttendanceService

	open          bool
	entryErr      error
	entries       []attendance.MarkRequest
	sessionChecks int
}

func (f *fakeAttendanceService) HasOpenSession(ctx context.Context, email string, asOf time.Time) (bool, error) {
	f.sessionChecks++
	return f.open, nil
}

// MarkEntry mirrors the real service: an open session answers
// ErrAlreadyClockedIn and nothing is recorded.
func (f *fakeAttendanceService) MarkEntry(ctx context.Context, req attendance.MarkRequest) (attendance.MarkResponse, error) {
	if f.open {
		return attendance.MarkResponse{}, attendance.ErrAlreadyClockedIn
	}
	if f.entryErr != nil {
		return attendance.MarkResponse{}, f.entryErr
	}
	f.entries = append(f.entries, req)
	return attendance.MarkResponse{Email: req.Email, Action: attendance.ActionClockIn, Attempts: 1}, nil
}

var validLogin = auth.LoginRequest{Name: "Alice", Email: "alice@example.com", Password: "secret1"}

func TestLogin_MarksEntry(t *testing.T) {
	users := &fakeUserRepository{isManager: true}
	attendanceSvc := &fakeAttendanceService{}
	svc := NewAuthService(users, attendanceSvc)

	resp, err := svc.Login(context.Background(), validLogin)
	require.NoError(t, err)

	assert.Equal(t, []user.Credentials{{Name: "Alice", Email: "alice@example.com", Password: "secret1"}}, users.credentials)
	assert.True(t, resp.User.IsManager)
	assert.Equal(t, user.RoleManager, resp.User.Role)
	assert.True(t, resp.EntryMarked)
	assert.True(t, resp.SessionActive)
	assert.Empty(t, resp.EntryError)
	require.Len(t, attendanceSvc.entries, 1)
	assert.True(t, attendanceSvc.entries[0].IsManager)

	// The open-session check belongs to MarkEntry; login does not repeat it
	assert.Zero(t, attendanceSvc.sessionChecks)
}

func TestLogin_ActiveSessionSkipsEntry(t *testing.T) {
	attendanceSvc := &fakeAttendanceService{open: true}
	svc := NewAuthService(&fakeUserRepository{}, attendanceSvc)

	resp, err := svc.Login(context.Background(), validLogin)
	require.NoError(t, err)

	assert.True(t, resp.SessionActive)
	assert.False(t, resp.EntryMarked)
	assert.Empty(t, resp.EntryError)
	assert.Equal(t, "Welcome back! You are already logged in.", resp.Message)
	assert.Equal(t, user.RoleEmployee, resp.User.Role)
	assert.Empty(t, attendanceSvc.entries)
	assert.Zero(t, attendanceSvc.sessionChecks)
}

func TestLogin_EntryFailureDoesNotFailLogin(t *testing.T) {
	attendanceSvc := &fakeAttendanceService{entryErr: attendance.ErrEntryRejected}
	svc := NewAuthService(&fakeUserRepository{}, attendanceSvc)

	resp, err := svc.Login(context.Background(), validLogin)
	require.NoError(t, err)

	assert.False(t, resp.EntryMarked)
	assert.False(t, resp.SessionActive)
	assert.Equal(t, attendance.ErrEntryRejected.Error(), resp.EntryError)
	assert.Equal(t, "Login successful, but could not mark entry.", resp.Message)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	users := &fakeUserRepository{loginErr: &trackbase.StatusError{StatusCode: 401, Message: "Invalid credentials"}}
	attendanceSvc := &fakeAttendanceService{}
	svc := NewAuthService(users, attendanceSvc)

	_, err := svc.Login(context.Background(), validLogin)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Empty(t, attendanceSvc.entries)
}

func TestLogin_UpstreamUnavailable(t *testing.T) {
	users := &fakeUserRepository{loginErr: trackbase.ErrUpstreamUnavailable}
	svc := NewAuthService(users, &fakeAttendanceService{})

	_, err := svc.Login(context.Background(), validLogin)
	assert.ErrorIs(t, err, trackbase.ErrUpstreamUnavailable)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_Validation(t *testing.T) {
	users := &fakeUserRepository{}
	svc := NewAuthService(users, &fakeAttendanceService{})

	_, err := svc.Login(context.Background(), auth.LoginRequest{Email: "not-an-email"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("name"))
	assert.True(t, verrs.Has("email"))
	assert.True(t, verrs.Has("password"))
	assert.Empty(t, users.credentials)
}

func TestRegister(t *testing.T) {
	users := &fakeUserRepository{}
	svc := NewAuthService(users, &fakeAttendanceService{})

	resp, err := svc.Register(context.Background(), auth.RegisterRequest{
		Name: " Bob ", Email: "bob@example.com", Password: "secret1", Role: "Manager",
	})
	require.NoError(t, err)

	assert.Equal(t, auth.RegisterResponse{Name: "Bob", Email: "bob@example.com", Role: user.RoleManager}, resp)
	assert.Equal(t, []user.Registration{{Name: "Bob", Email: "bob@example.com", Password: "secret1", Role: "Manager"}}, users.registered)
}

func TestRegister_Errors(t *testing.T) {
	valid := auth.RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: "secret1", Role: "employee"}

	t.Run("conflict", func(t *testing.T) {
		users := &fakeUserRepository{registerErr: &trackbase.StatusError{StatusCode: 409, Message: "exists"}}
		_, err := NewAuthService(users, &fakeAttendanceService{}).Register(context.Background(), valid)
		assert.ErrorIs(t, err, user.ErrUserEmailExists)
	})

	t.Run("rejected", func(t *testing.T) {
		users := &fakeUserRepository{registerErr: &trackbase.StatusError{StatusCode: 400, Message: "Email is taken"}}
		_, err := NewAuthService(users, &fakeAttendanceService{}).Register(context.Background(), valid)
		assert.ErrorIs(t, err, auth.ErrRegistrationFailed)
		assert.Contains(t, err.Error(), "Email is taken")
	})

	t.Run("validation", func(t *testing.T) {
		users := &fakeUserRepository{}
		_, err := NewAuthService(users, &fakeAttendanceService{}).Register(context.Background(), auth.RegisterRequest{
			Name: "B", Email: "bob@example.com", Password: "123", Role: "admin",
		})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.True(t, verrs.Has("name"))
		assert.True(t, verrs.Has("password"))
		assert.True(t, verrs.Has("role"))
		assert.Empty(t, users.registered)
	})
}
