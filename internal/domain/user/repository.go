package user

import (
	"context"
)

// UserRepository is backed by the upstream TrackBase user API.
type UserRepository interface {
	// Login verifies credentials and reports whether the account is a manager
	Login(ctx context.Context, creds Credentials) (bool, error)

	Register(ctx context.Context, reg Registration) error

	// ListManagers returns the manager directory with its stored email casing
	ListManagers(ctx context.Context) ([]Manager, error)
}
