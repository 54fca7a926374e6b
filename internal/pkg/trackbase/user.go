package trackbase

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/user"
)

type loginResponse struct {
	IsManager bool `json:"isManager"`
}

// Login verifies credentials and reports whether the account is a manager.
func (c *Client) Login(ctx context.Context, creds user.Credentials) (bool, error) {
	var resp loginResponse
	if err := c.doJSON(ctx, "user_login", http.MethodPost, "/api/user/login", creds, &resp); err != nil {
		return false, err
	}
	return resp.IsManager, nil
}

// Register creates an account upstream.
func (c *Client) Register(ctx context.Context, reg user.Registration) error {
	return c.doJSON(ctx, "user_register", http.MethodPost, "/api/user/register", reg, nil)
}

type managerRecord struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UnmarshalJSON accepts both camelCase and PascalCase keys.
func (m *managerRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	m.Name = firstString(fields, "name", "Name", "employeeName", "EmployeeName")
	m.Email = firstString(fields, "email", "Email")
	return nil
}

// ListManagers returns the manager directory.
func (c *Client) ListManagers(ctx context.Context) ([]user.Manager, error) {
	var records []managerRecord
	if err := c.doJSON(ctx, "manager_list", http.MethodGet, "/api/manager", nil, &records); err != nil {
		return nil, err
	}

	managers := make([]user.Manager, 0, len(records))
	for _, r := range records {
		managers = append(managers, user.Manager{Name: r.Name, Email: r.Email})
	}
	return managers, nil
}

func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := fields[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
