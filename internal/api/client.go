// Package api is the HTTP client for the CRM task API consumed by the
// notifier: the per-employee task list and the employee metadata record.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ariel-frischer/tasknotify/internal/task"
)

// ErrMalformedResponse is returned when a response body cannot be decoded
// into the expected shape.
var ErrMalformedResponse = errors.New("malformed API response")

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: unexpected status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	// Token is sent as a bearer token when non-empty
	Token string
	// Timeout bounds each request (default 15s)
	Timeout time.Duration
	// HTTPClient overrides the underlying client (tests)
	HTTPClient *http.Client
}

// Client fetches tasks and employee metadata.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q must be http or https", baseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	hc := &http.Client{}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		hc = &copied
	}
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.Token,
			TokenType:   "Bearer",
		}))
	}
	hc.Timeout = timeout

	return &Client{baseURL: u, http: hc}, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchTasks returns the task list of the given employee.
// The endpoint may answer with {"tasks": [...]} or a bare array.
func (c *Client) FetchTasks(ctx context.Context, employeeID string) ([]task.Task, error) {
	q := url.Values{}
	q.Set("employee_id", employeeID)
	body, err := c.get(ctx, "/tasks", q)
	if err != nil {
		return nil, err
	}
	return decodeTasks(body)
}

// FetchEmployee returns the display metadata of the given employee.
func (c *Client) FetchEmployee(ctx context.Context, employeeID string) (task.Employee, error) {
	body, err := c.get(ctx, "/employees/"+url.PathEscape(employeeID), nil)
	if err != nil {
		return task.Employee{}, err
	}

	var emp task.Employee
	if err := json.Unmarshal(body, &emp); err != nil {
		return task.Employee{}, fmt.Errorf("%w: employee: %v", ErrMalformedResponse, err)
	}
	if emp.ID == "" {
		emp.ID = employeeID
	}
	return emp, nil
}

// Ping checks that the API root answers at all. Any HTTP status counts as
// reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL.String(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reaching %s: %w", c.baseURL, err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			URL:        u.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(truncate(string(body), 200)),
		}
	}
	return body, nil
}

// taskEnvelope is the documented response shape of the tasks endpoint.
type taskEnvelope struct {
	Tasks *[]task.Task `json:"tasks"`
}

func decodeTasks(body []byte) ([]task.Task, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	if trimmed[0] == '[' {
		var tasks []task.Task
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return nil, fmt.Errorf("%w: tasks: %v", ErrMalformedResponse, err)
		}
		return tasks, nil
	}

	var env taskEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: tasks: %v", ErrMalformedResponse, err)
	}
	if env.Tasks == nil {
		return nil, fmt.Errorf("%w: missing \"tasks\" field", ErrMalformedResponse)
	}
	return *env.Tasks, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
