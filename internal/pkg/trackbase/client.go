package trackbase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/config"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/trace"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 8 << 20

// Client talks to the TrackBase attendance API. Every call goes through a
// rate limiter and a circuit breaker; only 5xx answers and transport errors
// count as breaker failures.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker
	metrics    *metrics.Metrics
	entryDelay time.Duration
}

// NewClient creates a new TrackBase client
func NewClient(cfg config.TrackbaseConfig, m *metrics.Metrics) *Client {
	if m == nil {
		m = metrics.New(nil)
	}

	c := &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		metrics:    m,
		entryDelay: cfg.EntryRetryDelay,
	}

	failures := uint32(cfg.BreakerFailures)
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "trackbase",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsRejection(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	m.CircuitBreakerState.WithLabelValues("trackbase").Set(float64(gobreaker.StateClosed))

	return c
}

type response struct {
	StatusCode int
	Body       []byte
}

// send performs one call. A non-2xx answer is returned together with a
// *StatusError so callers can still read the body.
func (c *Client) send(ctx context.Context, endpoint, method, path string, body []byte) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, method, path, body)
	})
	c.metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	resp, _ := result.(*response)
	switch {
	case resp != nil:
		c.metrics.UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	case err != nil:
		c.metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.Header, traceID)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUpstreamUnavailable, method, path, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %w", ErrUpstreamUnavailable, method, path, err)
	}

	resp := &response{StatusCode: httpResp.StatusCode, Body: respBody}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return resp, newStatusError(method, path, httpResp.StatusCode, respBody)
	}
	return resp, nil
}

// doJSON sends payload as JSON and decodes a 2xx answer into out. out may
// be nil when the body is not needed.
func (c *Client) doJSON(ctx context.Context, endpoint, method, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
	}

	resp, err := c.send(ctx, endpoint, method, path, body)
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// Forward relays a raw request and returns the upstream status and body
// whatever the status is. Only transport failures are errors.
func (c *Client) Forward(ctx context.Context, endpoint, method, path string, body []byte) (int, []byte, error) {
	resp, err := c.send(ctx, endpoint, method, path, body)
	if resp != nil {
		return resp.StatusCode, resp.Body, nil
	}
	return 0, nil, err
}

// BreakerState exposes the breaker state for health reporting.
func (c *Client) BreakerState() gobreaker.State {
	return c.cb.State()
}
