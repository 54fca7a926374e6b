package auth

import (
	"context"
)

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error)

	// Login verifies credentials upstream and marks today's entry when no
	// session is open yet.
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
}
