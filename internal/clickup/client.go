// Package clickup wraps the remote time-tracking service's HTTP API.
// The engines consume it through the API interface so tests can inject a
// fake; Client is the real bearer-token implementation.
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/wagetrack/wagetrack/internal/errs"
)

// API is the remote capability consumed by the sync engine, the navigation
// machine and the timer controller. Every call can fail with a remote-auth,
// remote-unavailable or remote-not-found error from the errs package.
type API interface {
	ListSpaces(ctx context.Context) ([]Space, error)
	ListFolders(ctx context.Context, spaceID string) ([]Folder, error)
	// ListLists returns a folder's lists, or the folderless lists of a
	// space when folderID is empty.
	ListLists(ctx context.Context, spaceID, folderID string) ([]List, error)
	// ListTasks returns the list's tasks restricted to the given assignee.
	// An empty assignee means the token's own user. statusFilter is one of
	// the StatusFilters values or a literal status name.
	ListTasks(ctx context.Context, listID, statusFilter, assignee string) ([]Task, error)
	GetTaskDetail(ctx context.Context, taskID string) (*Task, error)
	StartTimer(ctx context.Context, taskID string) (*TimeEntry, error)
	StopTimer(ctx context.Context) (*TimeEntry, error)
	ListTimeEntries(ctx context.Context, from, to time.Time) ([]TimeEntry, error)
	SetTaskStatus(ctx context.Context, taskID, status string) error
}

// Status filter choices offered by the navigation machine.
const (
	FilterOpen   = "open"
	FilterClosed = "closed"
	FilterAll    = "all"
)

// StatusFilters lists the built-in task status filters.
var StatusFilters = []string{FilterOpen, FilterClosed, FilterAll}

// Client is an authenticated ClickUp API client scoped to one workspace.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	workspaceID string

	// selfID caches the token's user id for assignee filtering.
	selfID string
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a client sending the personal API token as a bearer
// credential on every request.
func NewClient(ctx context.Context, token, workspaceID string, opts ...Option) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	c := &Client{
		httpClient:  oauth2.NewClient(ctx, ts),
		baseURL:     "https://api.clickup.com/api/v2",
		workspaceID: workspaceID,
	}
	c.httpClient.Timeout = 15 * time.Second
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is the remote service's error envelope.
type apiError struct {
	Err   string `json:"err"`
	ECode string `json:"ECODE"`
}

// do performs the request and decodes a 2xx body into out (when non-nil),
// mapping failures onto the error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failures and client timeouts are retryable.
		return errs.RemoteUnavailable(fmt.Sprintf("%s %s", method, path), err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return errs.RemoteUnavailable(fmt.Sprintf("%s %s: reading response", method, path), err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errs.RemoteAuth("token rejected by remote service", remoteErr(resp.StatusCode, data))
	case resp.StatusCode == http.StatusNotFound:
		return errs.RemoteNotFound("resource", path)
	case resp.StatusCode >= 300:
		return errs.RemoteUnavailable(fmt.Sprintf("%s %s", method, path), remoteErr(resp.StatusCode, data))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errs.RemoteUnavailable(fmt.Sprintf("%s %s: decoding response", method, path), err)
	}
	return nil
}

func remoteErr(status int, body []byte) error {
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Err != "" {
		return fmt.Errorf("remote error %d (%s): %s", status, ae.ECode, ae.Err)
	}
	return fmt.Errorf("remote error %d: %s", status, string(body))
}

// ListSpaces returns the workspace's spaces.
func (c *Client) ListSpaces(ctx context.Context) ([]Space, error) {
	var resp spacesResponse
	if err := c.do(ctx, http.MethodGet, "/team/"+c.workspaceID+"/space", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Spaces, nil
}

// ListFolders returns a space's folders.
func (c *Client) ListFolders(ctx context.Context, spaceID string) ([]Folder, error) {
	var resp foldersResponse
	if err := c.do(ctx, http.MethodGet, "/space/"+spaceID+"/folder", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Folders, nil
}

// ListLists returns a folder's lists, or folderless lists when folderID is
// empty.
func (c *Client) ListLists(ctx context.Context, spaceID, folderID string) ([]List, error) {
	path := "/space/" + spaceID + "/list"
	if folderID != "" {
		path = "/folder/" + folderID + "/list"
	}
	var resp listsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Lists, nil
}

// ListTasks returns the list's tasks assigned to assignee (the token's own
// user when empty), paging until the remote reports the last page.
func (c *Client) ListTasks(ctx context.Context, listID, statusFilter, assignee string) ([]Task, error) {
	if assignee == "" {
		self, err := c.authorizedUserID(ctx)
		if err != nil {
			return nil, err
		}
		assignee = self
	}

	query := url.Values{}
	query.Set("assignees[]", assignee)
	switch statusFilter {
	case FilterOpen, "":
		// Default remote behaviour already excludes closed tasks.
	case FilterAll:
		query.Set("include_closed", "true")
	case FilterClosed:
		query.Set("include_closed", "true")
		query.Set("statuses[]", "closed")
	default:
		query.Set("statuses[]", statusFilter)
	}

	var all []Task
	for page := 0; ; page++ {
		query.Set("page", strconv.Itoa(page))
		var resp tasksResponse
		if err := c.do(ctx, http.MethodGet, "/list/"+listID+"/task", query, nil, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Tasks...)
		if resp.LastPage || len(resp.Tasks) == 0 {
			return all, nil
		}
	}
}

// GetTaskDetail returns one task.
func (c *Client) GetTaskDetail(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodGet, "/task/"+taskID, nil, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// StartTimer starts the workspace timer on the given task and returns the
// running entry.
func (c *Client) StartTimer(ctx context.Context, taskID string) (*TimeEntry, error) {
	var resp entryResponse
	body := map[string]string{"tid": taskID}
	if err := c.do(ctx, http.MethodPost, "/team/"+c.workspaceID+"/time_entries/start", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// StopTimer stops the running workspace timer and returns the completed
// entry.
func (c *Client) StopTimer(ctx context.Context) (*TimeEntry, error) {
	var resp entryResponse
	if err := c.do(ctx, http.MethodPost, "/team/"+c.workspaceID+"/time_entries/stop", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ListTimeEntries returns the token user's entries starting in [from, to].
func (c *Client) ListTimeEntries(ctx context.Context, from, to time.Time) ([]TimeEntry, error) {
	query := url.Values{}
	query.Set("start_date", strconv.FormatInt(from.UnixMilli(), 10))
	query.Set("end_date", strconv.FormatInt(to.UnixMilli(), 10))
	var resp entriesResponse
	if err := c.do(ctx, http.MethodGet, "/team/"+c.workspaceID+"/time_entries", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SetTaskStatus updates a task's status.
func (c *Client) SetTaskStatus(ctx context.Context, taskID, status string) error {
	body := map[string]string{"status": status}
	return c.do(ctx, http.MethodPut, "/task/"+taskID, nil, body, nil)
}

// authorizedUserID resolves and caches the token's own user id.
func (c *Client) authorizedUserID(ctx context.Context) (string, error) {
	if c.selfID != "" {
		return c.selfID, nil
	}
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/user", nil, nil, &resp); err != nil {
		return "", err
	}
	c.selfID = strconv.Itoa(resp.User.ID)
	return c.selfID, nil
}
