package user

import (
	"strings"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/validator"
)

type Role string

const (
	RoleManager  Role = "manager"  // Can look up other employees
	RoleEmployee Role = "employee" // Regular employee
)

// ParseRole accepts the role names the registration form sends.
func ParseRole(s string) (Role, bool) {
	role := strings.ToLower(strings.TrimSpace(s))
	if !validator.IsInSlice(role, []string{string(RoleManager), string(RoleEmployee)}) {
		return "", false
	}
	return Role(role), true
}

// User is a TrackBase account as seen by this service. The upstream API owns
// the account; nothing here is persisted.
type User struct {
	Name  string
	Email string
	Role  Role
}

// IsManager checks if user is manager
func (u User) IsManager() bool {
	return u.Role == RoleManager
}

// Manager is an entry of the upstream manager directory.
type Manager struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
