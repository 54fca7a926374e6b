package trackbase

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUpstreamUnavailable covers transport failures and an open circuit
// breaker: the TrackBase API could not be asked at all.
var ErrUpstreamUnavailable = errors.New("trackbase API unavailable")

// StatusError is a non-2xx answer from the TrackBase API.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("trackbase API error [%d] %s %s: %s", e.StatusCode, e.Method, e.Path, e.Message)
}

// IsRejection reports whether err is an upstream answer below 500, i.e. the
// request reached the API and was refused.
func IsRejection(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError
}

func isStatusError(err error) bool {
	_, ok := AsStatusError(err)
	return ok
}

// AsStatusError unwraps err into a *StatusError.
func AsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}

func newStatusError(method, path string, status int, body []byte) *StatusError {
	return &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Message:    messageFrom(body, status),
		Body:       body,
	}
}

// messageFrom picks a human message from an error body: "message", then
// "error", then an ASP.NET problem "title", then the raw text.
func messageFrom(body []byte, status int) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"message", "Message", "error", "title"} {
			if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	var quoted string
	if err := json.Unmarshal(body, &quoted); err == nil && strings.TrimSpace(quoted) != "" {
		return quoted
	}
	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}
