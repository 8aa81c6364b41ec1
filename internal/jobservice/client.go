// Package jobservice implements the HTTP client for the remote job
// service that owns and executes background tasks. It satisfies the
// task.JobClient interface consumed by the sync engine.
package jobservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/knollbase/taskmirror/internal/task"
)

const (
	defaultTimeout = 10 * time.Second

	// maxBodySize bounds response reads; task lists are small and anything
	// bigger indicates a misbehaving endpoint.
	maxBodySize = 8 << 20
)

// StatusError is returned when the job service answers with a non-2xx
// status. The message comes from the service's error envelope when present.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("job service returned %d: %s", e.Code, e.Message)
}

// Config holds the connection settings for the job service.
type Config struct {
	// BaseURL is the service root, e.g. "http://jobs.internal/api".
	BaseURL string

	// AuthToken is attached as a bearer token when non-empty. The service
	// expects an admin JWT but the client treats it as opaque beyond a
	// best-effort expiry warning.
	AuthToken string

	// RequestTimeout bounds each request. Zero means defaultTimeout.
	RequestTimeout time.Duration
}

// Client talks to the remote job service over HTTP.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  *slog.Logger
}

// New creates a job-service client. When the configured token is a JWT
// that has already expired, a warning is logged so the operator learns
// about the coming 401s before the first poll does.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("jobservice: base URL is required")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.AuthToken,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
	c.warnIfTokenExpired()
	return c, nil
}

// FetchTasks lists tasks matching params by calling GET {base}/tasks.
// A response without a task list is treated as an empty list.
func (c *Client) FetchTasks(ctx context.Context, params task.ListParams) (*task.TaskList, error) {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	var envelope struct {
		Tasks   []task.RawTask    `json:"tasks"`
		Summary *task.ListSummary `json:"summary"`
	}
	if err := c.do(ctx, http.MethodGet, "/tasks", query, &envelope); err != nil {
		return nil, err
	}
	return &task.TaskList{Tasks: envelope.Tasks, Summary: envelope.Summary}, nil
}

// FetchTaskDetail retrieves one task by calling GET {base}/tasks/{id}.
func (c *Client) FetchTaskDetail(ctx context.Context, taskID string) (*task.RawTask, error) {
	var envelope struct {
		Task *task.RawTask `json:"task"`
	}
	path := "/tasks/" + url.PathEscape(taskID)
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Task, nil
}

// CancelTask requests cancellation via POST {base}/tasks/{id}/cancel. The
// service answers 400 when the task is already terminal; that arrives here
// as a *StatusError.
func (c *Client) CancelTask(ctx context.Context, taskID string) error {
	path := "/tasks/" + url.PathEscape(taskID) + "/cancel"
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("failed to close response body", "error", cerr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts a human-readable message from the service's error
// envelope ({"detail": ...} or {"error": ...}), falling back to the raw
// body.
func errorMessage(body []byte) string {
	var envelope struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Detail != "" {
			return envelope.Detail
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return strings.TrimSpace(string(body))
}

func (c *Client) warnIfTokenExpired() {
	if c.token == "" {
		return
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, claims); err != nil {
		// Opaque token, not a JWT; let the service judge it.
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	if time.Now().After(exp.Time) {
		c.logger.Warn("job service token is expired, requests will likely be rejected",
			"expired_at", exp.Time)
	}
}
