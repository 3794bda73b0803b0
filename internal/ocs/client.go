// Package ocs is the anti-corruption layer between the aggregation logic and
// the upstream Online Charging System. All outbound calls go through Client,
// which enforces a uniform request shape (single POST endpoint, operation
// selected by the top-level payload key, token as a query parameter), a
// per-call timeout via context cancellation, circuit breaking, and consistent
// error surfacing.
//
// There are no automatic retries: a single failed call is a single failure.
package ocs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"teltrip/internal/types"

	"github.com/sony/gobreaker/v2"
)

// Caller is the minimal contract the aggregation layer depends on.
// Implemented by Client; mocked in tests.
type Caller interface {
	Call(ctx context.Context, payload map[string]any) (map[string]any, error)
}

// DefaultTimeout is the per-call upstream timeout when none is configured.
const DefaultTimeout = 25 * time.Second

// errorBodyLimit caps how much of a failed response body is embedded in the
// returned error for diagnostics.
const errorBodyLimit = 300

// ClientConfig holds the settings for creating a Client.
type ClientConfig struct {
	BaseURL string
	Token   types.SecretString
	Timeout time.Duration // defaults to DefaultTimeout
	Logger  *slog.Logger
}

// Client issues authenticated JSON requests to the OCS endpoint.
//
// BaseURL and Token are validated lazily on each call rather than at
// construction, so a misconfigured process starts fine and surfaces a
// descriptive configuration error on first use.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	baseURL    string
	token      types.SecretString
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates an OCS client. The httpClient's own Timeout may be zero;
// the per-call deadline is enforced through context cancellation instead.
func NewClient(httpClient *http.Client, cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "ocs",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		httpClient: httpClient,
		breaker:    cb,
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		timeout:    timeout,
		logger:     logger,
	}
}

// Call sends the payload as a JSON POST body to the OCS endpoint and returns
// the parsed response object.
//
// Response handling mirrors the upstream's loose contract: the body is read
// as text first and parsed tolerantly (a malformed body is treated as
// absent). A non-2xx status always fails, with the status code, status text,
// and up to 300 characters of raw body embedded for diagnostics. An empty
// successful body yields an empty object.
func (c *Client) Call(ctx context.Context, payload map[string]any) (map[string]any, error) {
	if c.baseURL == "" {
		return nil, types.NewAppError(types.ErrCodeConfigMissing, "OCS_BASE_URL missing", nil)
	}
	if c.token.Unmask() == "" {
		return nil, types.NewAppError(types.ErrCodeConfigMissing, "OCS_TOKEN missing", nil)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to serialize OCS payload", err)
	}

	endpoint := c.baseURL + "?token=" + url.QueryEscape(c.token.Unmask())

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create OCS request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if reqID := types.GetRequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-Id", reqID)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		// 5xx counts against the breaker; the response is still inspected
		// below so the caller sees the body excerpt.
		if r.StatusCode >= 500 {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})
	if err != nil && resp == nil {
		return nil, c.mapTransportError(err)
	}
	defer resp.Body.Close()

	text, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamUnavailable, "failed to read OCS response body", readErr)
	}

	// Tolerant parse: a malformed body is treated as absent, unless it masks
	// a non-2xx status (which still fails below).
	var parsed map[string]any
	if len(text) > 0 {
		_ = json.Unmarshal(text, &parsed)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := string(text)
		if len(excerpt) > errorBodyLimit {
			excerpt = excerpt[:errorBodyLimit]
		}
		msg := fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		if excerpt != "" {
			msg += " :: " + excerpt
		}
		return nil, types.NewAppError(types.ErrCodeUpstreamStatus, msg, nil)
	}

	if parsed == nil {
		return map[string]any{}, nil
	}
	return parsed, nil
}

// mapTransportError translates network-level failures into domain errors.
func (c *Client) mapTransportError(err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeUpstreamRateLimited,
			"circuit breaker is open; OCS unavailable",
			err,
		)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("OCS call timed out after %s", c.timeout),
			err,
		)
	}
	return types.NewAppError(types.ErrCodeUpstreamUnavailable, "OCS request failed", err)
}

// Compile-time interface compliance check.
var _ Caller = (*Client)(nil)
