package attendance

import (
	"strings"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/validator"
)

// ========================================
// QUERIES
// ========================================

// StatsQuery selects one identity's stats for a period. It backs both the
// employee and the manager self-view.
type StatsQuery struct {
	Email  string `json:"email"`
	Period Period `json:"period"`
}

func (q *StatsQuery) Validate() error {
	var errs validator.ValidationErrors

	q.Email = strings.TrimSpace(q.Email)
	if validator.IsEmpty(q.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is required",
		})
	} else if !validator.IsValidEmail(q.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "invalid email format",
		})
	}

	errs = append(errs, validatePeriod(q.Period)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SearchQuery is the manager lookup of another employee, by email, name or both.
type SearchQuery struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Period Period `json:"period"`
}

func (q *SearchQuery) Validate() error {
	var errs validator.ValidationErrors

	q.Email = strings.TrimSpace(q.Email)
	q.Name = strings.TrimSpace(q.Name)

	if q.Email == "" && q.Name == "" {
		errs = append(errs, validator.ValidationError{
			Field:   "query",
			Message: "enter name or email to search",
		})
	}
	if q.Email != "" && !validator.IsValidEmail(q.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "invalid email format",
		})
	}

	errs = append(errs, validatePeriod(q.Period)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validatePeriod(p Period) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if !validator.IsValidMonth(p.Month) {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 0 and 11",
		})
	}
	if !validator.IsValidYear(p.Year) {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be between 1970 and 9999",
		})
	}
	return errs
}

type SessionQuery struct {
	Email string `json:"email"`
	Date  string `json:"date"` // YYYY-MM-DD, empty means today
}

func (q *SessionQuery) Validate() error {
	var errs validator.ValidationErrors

	q.Email = strings.TrimSpace(q.Email)
	if validator.IsEmpty(q.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is required",
		})
	}
	if q.Date != "" {
		if _, ok := validator.IsValidDate(q.Date); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// COMMANDS
// ========================================

// MarkRequest records an entry or an exit. The upstream API authenticates
// the call with the employee's password.
type MarkRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	IsManager bool   `json:"is_manager"`
}

func (r *MarkRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Password = strings.TrimSpace(r.Password)

	if validator.IsEmpty(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is required",
		})
	} else if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "invalid email format",
		})
	}

	if validator.IsEmpty(r.Password) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// RESPONSES
// ========================================

type StatsResponse struct {
	Email  string `json:"email"`
	Period Period `json:"period"`
	Stats
}

type EmployeeDetails struct {
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	EmployeeCode string         `json:"employee_code"`
	Status       EmployeeStatus `json:"status"`
	RecordCount  int            `json:"record_count"`
}

type SearchResponse struct {
	Employee   EmployeeDetails `json:"employee"`
	Period     Period          `json:"period"`
	Stats      Stats           `json:"stats"`
	AbsentDays int             `json:"absent_days"`
	DailyHours []DailyHours    `json:"daily_hours"`
}

type SessionResponse struct {
	Email  string   `json:"email"`
	Date   string   `json:"date"`
	Active bool     `json:"active"`
	State  DayState `json:"state"`
}

type MarkResponse struct {
	Email    string `json:"email"`
	Action   Action `json:"action"`
	Attempts int    `json:"attempts,omitempty"`
	Message  string `json:"message,omitempty"`
}
