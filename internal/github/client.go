package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ludo-technologies/qgate/internal/logging"
	"github.com/ludo-technologies/qgate/internal/version"
	"go.uber.org/zap"
)

// DefaultAPIURL is the public GitHub API
const DefaultAPIURL = "https://api.github.com"

// Commit status states
const (
	StatePending = "pending"
	StateSuccess = "success"
	StateFailure = "failure"
	StateError   = "error"
)

// maxErrorBody caps how much of an error response is kept
const maxErrorBody = 512

// APIError is a non-2xx response
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Comment is an issue or pull request comment
type Comment struct {
	ID   int64  `json:"id,omitempty"`
	Body string `json:"body"`
}

// Status is a commit status
type Status struct {
	State       string `json:"state"`
	Description string `json:"description,omitempty"`
	Context     string `json:"context,omitempty"`
	TargetURL   string `json:"target_url,omitempty"`
}

// Issue is a created issue
type Issue struct {
	Number int      `json:"number,omitempty"`
	Title  string   `json:"title"`
	Body   string   `json:"body,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

// PullFile is one file changed by a pull request
type PullFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Client talks to the GitHub REST API for one repository
type Client struct {
	baseURL    string
	token      string
	owner      string
	repo       string
	httpClient *http.Client
	policy     RetryPolicy
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy replaces the retry policy
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.policy = p }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(l) }
}

// NewClient creates a client for repository "owner/repo"
func NewClient(baseURL, token, repository string, opts ...Option) (*Client, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("repository must be owner/repo, got %q", repository)
	}
	if token == "" {
		return nil, fmt.Errorf("a GitHub token is required")
	}
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		owner:      owner,
		repo:       repo,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		policy:     DefaultRetryPolicy(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreateComment posts a comment on an issue or pull request
func (c *Client) CreateComment(ctx context.Context, number int, body string) (*Comment, error) {
	var out Comment
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", c.owner, c.repo, number)
	if err := c.do(ctx, http.MethodPost, path, Comment{Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListComments lists the comments of an issue or pull request
func (c *Client) ListComments(ctx context.Context, number int) ([]Comment, error) {
	var out []Comment
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", c.owner, c.repo, number)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus sets a commit status on sha
func (c *Client) SetStatus(ctx context.Context, sha string, status Status) error {
	path := fmt.Sprintf("/repos/%s/%s/statuses/%s", c.owner, c.repo, sha)
	return c.do(ctx, http.MethodPost, path, status, nil)
}

// CreateIssue opens an issue
func (c *Client) CreateIssue(ctx context.Context, issue Issue) (*Issue, error) {
	var out Issue
	path := fmt.Sprintf("/repos/%s/%s/issues", c.owner, c.repo)
	if err := c.do(ctx, http.MethodPost, path, issue, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPullFiles lists the files changed by a pull request
func (c *Client) ListPullFiles(ctx context.Context, number int) ([]PullFile, error) {
	var out []PullFile
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/files", c.owner, c.repo, number)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	attempt := 0
	return retry(ctx, c.policy, func() error {
		attempt++
		return c.send(ctx, method, path, payload, out)
	}, func(err error, wait time.Duration) {
		c.logger.Warn("github request failed, retrying",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	})
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build %s request: %w", path, err))
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "qgate/"+version.GetVersion())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode %s response: %w", path, err))
	}
	return nil
}
