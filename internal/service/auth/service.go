package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/trackbase"
)

type AuthServiceImpl struct {
	user.UserRepository
	attendanceService attendance.AttendanceService
}

func NewAuthService(userRepository user.UserRepository, attendanceService attendance.AttendanceService) auth.AuthService {
	return &AuthServiceImpl{
		UserRepository:    userRepository,
		attendanceService: attendanceService,
	}
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.LoginResponse{}, err
	}

	isManager, err := a.UserRepository.Login(ctx, user.Credentials{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if statusErr, ok := trackbase.AsStatusError(err); ok {
			switch statusErr.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound:
				return auth.LoginResponse{}, auth.ErrInvalidCredentials
			}
		}
		return auth.LoginResponse{}, fmt.Errorf("failed to login: %w", err)
	}

	account := user.User{Name: req.Name, Email: req.Email, Role: user.RoleEmployee}
	if isManager {
		account.Role = user.RoleManager
	}

	resp := auth.LoginResponse{
		User: auth.UserResponse{
			Name:      account.Name,
			Email:     account.Email,
			Role:      account.Role,
			IsManager: account.IsManager(),
		},
	}

	// MarkEntry checks for an open session itself and answers
	// ErrAlreadyClockedIn, so the records are fetched once per login.
	_, err = a.attendanceService.MarkEntry(ctx, attendance.MarkRequest{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		IsManager: isManager,
	})
	switch {
	case err == nil:
		resp.SessionActive = true
		resp.EntryMarked = true
		resp.Message = "Login successful! Welcome back!"
	case errors.Is(err, attendance.ErrAlreadyClockedIn):
		resp.SessionActive = true
		resp.Message = "Welcome back! You are already logged in."
	default:
		slog.Error("Login succeeded but entry marking failed", "email", req.Email, "error", err)
		resp.EntryError = err.Error()
		resp.Message = "Login successful, but could not mark entry."
	}

	return resp, nil
}

// Register implements auth.AuthService.
func (a *AuthServiceImpl) Register(ctx context.Context, req auth.RegisterRequest) (auth.RegisterResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.RegisterResponse{}, err
	}

	err := a.UserRepository.Register(ctx, user.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		if statusErr, ok := trackbase.AsStatusError(err); ok && trackbase.IsRejection(err) {
			if statusErr.StatusCode == http.StatusConflict {
				return auth.RegisterResponse{}, user.ErrUserEmailExists
			}
			return auth.RegisterResponse{}, fmt.Errorf("%w: %s", auth.ErrRegistrationFailed, statusErr.Message)
		}
		return auth.RegisterResponse{}, fmt.Errorf("failed to register: %w", err)
	}

	role, _ := user.ParseRole(req.Role)
	slog.Info("User registered", "email", req.Email, "role", role)

	return auth.RegisterResponse{
		Name:  req.Name,
		Email: req.Email,
		Role:  role,
	}, nil
}
