package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/trace"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/validator"
)

const maxProxyBody = 1 << 20

// Forwarder relays a request to the TrackBase API and returns its answer
// unchanged.
type Forwarder interface {
	Forward(ctx context.Context, endpoint, method, path string, body []byte) (int, []byte, error)
}

// ProxyHandler serves the legacy routes the static dashboard calls directly.
type ProxyHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	MarkEntry(w http.ResponseWriter, r *http.Request)
}

type proxyHandlerImpl struct {
	forwarder Forwarder
}

func NewProxyHandler(forwarder Forwarder) ProxyHandler {
	return &proxyHandlerImpl{forwarder: forwarder}
}

type legacyLogin struct {
	Name     string `json:"Name"`
	Email    string `json:"Email"`
	Password string `json:"Password"`
}

// Login re-keys the body to {Name, Email, Password} and relays it.
func (h *proxyHandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var req legacyLogin
	if err := json.NewDecoder(io.LimitReader(r.Body, maxProxyBody)).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	body, err := json.Marshal(req)
	if err != nil {
		proxyError(w, err)
		return
	}
	h.relay(w, r, "user_login", "/api/user/login", body)
}

// MarkEntry checks Email and Password, answering like the upstream ASP.NET
// API would, then relays the body untouched.
func (h *proxyHandlerImpl) MarkEntry(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxProxyBody))
	if err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	email, _ := fields["Email"].(string)
	password, _ := fields["Password"].(string)

	if email == "" || password == "" {
		errs := map[string][]string{"Email": {}, "Password": {}}
		if email == "" {
			errs["Email"] = []string{"Email is required"}
		}
		if password == "" {
			errs["Password"] = []string{"Password is required"}
		}
		response.ValidationProblem(w, errs, trace.FromContext(r.Context()))
		return
	}
	if !validator.IsValidEmail(email) {
		response.ValidationProblem(w, map[string][]string{
			"Email":    {"Invalid email format"},
			"Password": {},
		}, trace.FromContext(r.Context()))
		return
	}

	h.relay(w, r, "attendance_entry", "/api/attendance/entry", body)
}

func (h *proxyHandlerImpl) relay(w http.ResponseWriter, r *http.Request, endpoint, path string, body []byte) {
	status, respBody, err := h.forwarder.Forward(r.Context(), endpoint, http.MethodPost, path, body)
	if err != nil {
		proxyError(w, err)
		return
	}
	if len(respBody) == 0 {
		respBody = []byte("{}")
	}
	response.Raw(w, status, respBody)
}

func proxyError(w http.ResponseWriter, err error) {
	slog.Error("Proxy error", "error", err)
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	response.Raw(w, http.StatusInternalServerError, body)
}
