// Package institute implements the institute management server API client.
package institute

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
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	"github.com/coaching-hub/attendance-hub/pkg/circuitbreaker"
	"github.com/coaching-hub/attendance-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the institute API client.
type ClientConfig struct {
	// BaseURL is the institute server base URL
	BaseURL string

	// APIToken is the bearer token of the service account
	APIToken string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimiterConfig for API rate limiting
	RateLimiterConfig RateLimiterConfig

	// Retrier controls retry behavior; nil uses InstituteAPIRetrier
	Retrier *retry.Retrier

	// Breaker is the circuit breaker; nil uses InstituteAPIBreaker
	Breaker *circuitbreaker.CircuitBreaker

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables per-request debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL, apiToken string) ClientConfig {
	return ClientConfig{
		BaseURL:           baseURL,
		APIToken:          apiToken,
		Timeout:           30 * time.Second,
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the institute management server API client.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	rateLimiter *RateLimiter
	retrier     *retry.Retrier
	breaker     *circuitbreaker.CircuitBreaker
}

// NewClient creates a new institute API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:      config.Logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		retrier:     config.Retrier,
		breaker:     config.Breaker,
	}
	if c.retrier == nil {
		c.retrier = retry.InstituteAPIRetrier()
	}
	if c.breaker == nil {
		c.breaker = circuitbreaker.InstituteAPIBreaker(func(name string, from, to circuitbreaker.State) {
			config.Logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		})
	}
	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// ListSessions fetches class sessions for a date with optional filters.
func (c *Client) ListSessions(ctx context.Context, req SessionsRequestDTO) ([]SessionDTO, *Meta, error) {
	params := url.Values{}
	if req.Date != "" {
		params.Set("date", req.Date)
	}
	if req.Subject != "" {
		params.Set("subject", req.Subject)
	}
	if req.Batch != "" {
		params.Set("batch", req.Batch)
	}
	if req.OnlyUnmarked {
		params.Set("only_unmarked", "true")
	}
	if req.IncludeRoster {
		params.Set("include_roster", "true")
	}

	path := "/api/v1/sessions"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var response APIResponse[[]SessionDTO]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &response); err != nil {
		return nil, nil, fmt.Errorf("list sessions: %w", err)
	}

	if !response.Success {
		return nil, nil, apiError("ListSessions", response.Error)
	}

	return response.Data, response.Meta, nil
}

// GetSession fetches a single session with its roster.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*SessionDTO, error) {
	path := fmt.Sprintf("/api/v1/sessions/%s?include_roster=true", url.PathEscape(sessionID))

	var response APIResponse[SessionDTO]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &response); err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	if !response.Success {
		return nil, apiError("GetSession", response.Error)
	}

	return &response.Data, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MARKING OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// SubmitMarking submits a complete set of attendance decisions for a
// session. The idempotency key makes a retried submit a no-op on the
// server, so a timeout after commit cannot double-mark a session.
func (c *Client) SubmitMarking(ctx context.Context, req SubmitMarkingRequestDTO, idempotencyKey string) (*SubmitMarkingResponseDTO, error) {
	path := fmt.Sprintf("/api/v1/sessions/%s/attendance", url.PathEscape(req.SessionID))

	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}

	var response APIResponse[SubmitMarkingResponseDTO]
	if err := c.doRequest(ctx, http.MethodPost, path, req, headers, &response); err != nil {
		return nil, fmt.Errorf("submit marking for %s: %w", req.SessionID, err)
	}

	if !response.Success {
		return nil, apiError("SubmitMarking", response.Error)
	}

	return &response.Data, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// ListRecords fetches historical attendance records with filters.
func (c *Client) ListRecords(ctx context.Context, req HistoryRequestDTO) ([]RecordDTO, *Meta, error) {
	params := url.Values{}
	if req.StudentSearch != "" {
		params.Set("student", req.StudentSearch)
	}
	if req.Subject != "" {
		params.Set("subject", req.Subject)
	}
	if req.Batch != "" {
		params.Set("batch", req.Batch)
	}
	if req.DateFrom != "" {
		params.Set("date_from", req.DateFrom)
	}
	if req.DateTo != "" {
		params.Set("date_to", req.DateTo)
	}
	if req.Page > 0 {
		params.Set("page", strconv.Itoa(req.Page))
	}
	if req.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(req.PerPage))
	}

	path := "/api/v1/attendance/records"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var response APIResponse[[]RecordDTO]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &response); err != nil {
		return nil, nil, fmt.Errorf("list records: %w", err)
	}

	if !response.Success {
		return nil, nil, apiError("ListRecords", response.Error)
	}

	return response.Data, response.Meta, nil
}

// ListAllRecords fetches every record page matching the filters.
func (c *Client) ListAllRecords(ctx context.Context, req HistoryRequestDTO) ([]RecordDTO, error) {
	var all []RecordDTO
	req.Page = 1
	if req.PerPage <= 0 {
		req.PerPage = 200
	}

	for {
		records, meta, err := c.ListRecords(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("list all records page %d: %w", req.Page, err)
		}

		all = append(all, records...)

		if len(records) < req.PerPage || (meta != nil && req.Page >= meta.TotalPages) {
			break
		}
		req.Page++
	}

	return all, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetStatistics fetches the server's pre-aggregated statistics for a window.
func (c *Client) GetStatistics(ctx context.Context, req StatisticsRequestDTO) (*StatisticsDTO, error) {
	params := url.Values{}
	if req.From != "" {
		params.Set("from", req.From)
	}
	if req.To != "" {
		params.Set("to", req.To)
	}
	if req.Batch != "" {
		params.Set("batch", req.Batch)
	}

	path := "/api/v1/attendance/statistics"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var response APIResponse[StatisticsDTO]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &response); err != nil {
		return nil, fmt.Errorf("get statistics: %w", err)
	}

	if !response.Success {
		return nil, apiError("GetStatistics", response.Error)
	}

	return &response.Data, nil
}

// GetLowAttendanceAlerts fetches students below the attendance threshold.
func (c *Client) GetLowAttendanceAlerts(ctx context.Context, req AlertsRequestDTO) ([]AlertDTO, error) {
	params := url.Values{}
	if req.Threshold > 0 {
		params.Set("threshold", strconv.FormatFloat(req.Threshold, 'f', 1, 64))
	}
	if req.Limit > 0 {
		params.Set("limit", strconv.Itoa(req.Limit))
	}

	path := "/api/v1/attendance/alerts"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var response APIResponse[[]AlertDTO]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &response); err != nil {
		return nil, fmt.Errorf("get low attendance alerts: %w", err)
	}

	if !response.Success {
		return nil, apiError("GetLowAttendanceAlerts", response.Error)
	}

	return response.Data, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// CreateExport asks the server to render a history export and returns the
// download handle. The file itself never passes through this client.
func (c *Client) CreateExport(ctx context.Context, req ExportRequestDTO) (*ExportResultDTO, error) {
	body := map[string]any{
		"format": req.Format,
	}
	filters := map[string]string{}
	if req.Filters.StudentSearch != "" {
		filters["student"] = req.Filters.StudentSearch
	}
	if req.Filters.Subject != "" {
		filters["subject"] = req.Filters.Subject
	}
	if req.Filters.Batch != "" {
		filters["batch"] = req.Filters.Batch
	}
	if req.Filters.DateFrom != "" {
		filters["date_from"] = req.Filters.DateFrom
	}
	if req.Filters.DateTo != "" {
		filters["date_to"] = req.Filters.DateTo
	}
	if len(filters) > 0 {
		body["filters"] = filters
	}

	var response APIResponse[ExportResultDTO]
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/attendance/export", body, nil, &response); err != nil {
		return nil, fmt.Errorf("create export: %w", err)
	}

	if !response.Success {
		return nil, apiError("CreateExport", response.Error)
	}

	return &response.Data, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs an HTTP request with rate limiting, circuit breaking,
// and retries. Errors carry shared error kinds so callers can classify
// them with errors.Is.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, headers map[string]string, result any) error {
	err := c.execute(ctx, method, path, body, headers, result)
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return shared.WrapError("institute", "Request", shared.ErrServiceUnavailable, "circuit breaker open", err)
	}
	return err
}

func (c *Client) execute(ctx context.Context, method, path string, body any, headers map[string]string, result any) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			if err := c.rateLimiter.Allow(ctx); err != nil {
				var rateErr *RateLimitError
				if errors.As(err, &rateErr) {
					return shared.WrapError("institute", "Request", shared.ErrRateLimited, "client-side rate limit", err)
				}
				return err
			}

			err := c.doSingleRequest(ctx, method, path, body, headers, result)
			if err == nil {
				return nil
			}

			var rateErr *RateLimitError
			if errors.As(err, &rateErr) {
				c.rateLimiter.RecordRateLimitHit(rateErr.RetryAfter)
			}

			if shared.IsRetryable(err) {
				return retry.Retryable(err)
			}
			return retry.Permanent(err)
		})
	})
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, method, path string, body any, headers map[string]string, result any) error {
	fullURL := c.config.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if c.config.Debug {
		c.logger.Debug("institute api request", "method", method, "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return shared.WrapError("institute", "Request", shared.ErrTimeout, "request deadline exceeded", err)
		}
		return shared.WrapError("institute", "Request", shared.ErrNetwork, "transport failure", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return shared.WrapError("institute", "Request", shared.ErrNetwork, "read response", err)
	}

	if err := c.checkStatus(resp, respBody); err != nil {
		return err
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return shared.WrapError("institute", "Parse", shared.ErrServer, "unmarshal response", err)
		}
	}

	return nil
}

// checkStatus maps HTTP status codes to shared error kinds.
// apiError classifies a 2xx envelope that still reports failure. The
// transport succeeded, so the server is breaking its own contract; the
// error carries the server kind so callers can classify it.
func apiError(op, message string) error {
	if message == "" {
		message = "api reported failure without detail"
	}
	return shared.NewDomainError("institute", op, shared.ErrServer, message)
}

func (c *Client) checkStatus(resp *http.Response, respBody []byte) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var apiErr APIErrorDTO
	_ = json.Unmarshal(respBody, &apiErr)
	detail := apiErr.Message
	if detail == "" {
		detail = fmt.Sprintf("status %d", resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return shared.WrapError("institute", "Request", shared.ErrUnauthorized, detail, &apiErr)
	case resp.StatusCode == http.StatusForbidden:
		return shared.WrapError("institute", "Request", shared.ErrForbidden, detail, &apiErr)
	case resp.StatusCode == http.StatusNotFound:
		return shared.WrapError("institute", "Request", shared.ErrNotFound, detail, &apiErr)
	case resp.StatusCode == http.StatusRequestTimeout:
		return shared.WrapError("institute", "Request", shared.ErrTimeout, detail, &apiErr)
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := 60 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return shared.WrapError("institute", "Request", shared.ErrRateLimited, detail, &RateLimitError{
			RetryAfter: retryAfter,
			Message:    "server rate limit",
		})
	case resp.StatusCode == http.StatusUnprocessableEntity, resp.StatusCode == http.StatusBadRequest:
		return shared.WrapError("institute", "Request", shared.ErrInvalidInput, detail, &apiErr)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return shared.WrapError("institute", "Request", shared.ErrServiceUnavailable, detail, &apiErr)
	default:
		return shared.WrapError("institute", "Request", shared.ErrServer, detail, &apiErr)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

// IsHealthy checks if the institute server is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	var response APIResponse[map[string]any]
	err := c.doSingleRequest(ctx, http.MethodGet, "/api/v1/health", nil, nil, &response)
	return err == nil && response.Success
}

// ClientStatus is a point-in-time view of the client's protection layers.
type ClientStatus struct {
	RateLimiter  RateLimiterStatus
	BreakerState circuitbreaker.State
	IsHealthy    bool
}

// Status returns the current status of the client.
func (c *Client) Status(ctx context.Context) ClientStatus {
	return ClientStatus{
		RateLimiter:  c.rateLimiter.Status(),
		BreakerState: c.breaker.State(),
		IsHealthy:    c.IsHealthy(ctx),
	}
}

// Reset resets the rate limiter and circuit breaker.
func (c *Client) Reset() {
	c.rateLimiter.Reset()
	c.breaker.Reset()
}
