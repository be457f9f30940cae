package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck/internal/task"
)

const defaultTimeout = 10 * time.Second

// Client talks to the taskdeckd REST surface over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption customizes client construction.
type ClientOption func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client, for tests.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient returns a gateway client rooted at baseURL
// (e.g. "http://localhost:8080").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ListTasks implements Gateway.
func (c *Client) ListTasks(ctx context.Context) ([]task.Task, error) {
	var tasks []task.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask implements Gateway.
func (c *Client) CreateTask(ctx context.Context, title, description string) (task.Task, error) {
	var created task.Task
	body := createRequest{Title: title, Description: description}
	if err := c.do(ctx, http.MethodPost, "/api/tasks", body, &created); err != nil {
		return task.Task{}, err
	}
	return created, nil
}

// UpdateTask implements Gateway. Nil patch fields are omitted from the
// request body so the service leaves them unchanged.
func (c *Client) UpdateTask(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	var updated task.Task
	if err := c.do(ctx, http.MethodPut, c.taskPath(id), patch, &updated); err != nil {
		return task.Task{}, err
	}
	return updated, nil
}

// DeleteTask implements Gateway.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.taskPath(id), nil, nil)
}

func (c *Client) taskPath(id string) string {
	return "/api/tasks/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("gateway: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("gateway: build %s %s: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway: %s %s: %s", method, path, remoteError(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gateway: decode %s %s response: %w", method, path, err)
	}
	return nil
}

func remoteError(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var parsed errorResponse
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error != "" {
			return fmt.Sprintf("%s (status %d)", parsed.Error, resp.StatusCode)
		}
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Sprintf("%s (status %d)", msg, resp.StatusCode)
		}
	}
	return fmt.Sprintf("unexpected status %d", resp.StatusCode)
}
