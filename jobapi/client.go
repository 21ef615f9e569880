// Package jobapi is a narrow client for the external job-management API.
// The bridge only touches the identity endpoint and the small job surface
// its tools proxy; everything else the upstream offers is out of scope.
package jobapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	// ErrUnauthorized reports that the upstream rejected the API key.
	ErrUnauthorized = errors.New("job api rejected credential")

	// ErrUpstream reports any other upstream failure (network, 5xx).
	ErrUpstream = errors.New("job api unavailable")
)

const defaultTimeout = 30 * time.Second

// User is the upstream account behind an API key.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Agent is a job-running agent listed by the upstream.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Job is a submitted job and its current state.
type Job struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agentId"`
	Status    string    `json:"status"`
	Input     string    `json:"input,omitempty"`
	Output    string    `json:"output,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Client calls the job-management API. Every call is bounded by the
// configured timeout and authenticated with a caller-supplied API key.
type Client struct {
	baseURL      string
	apiKeyHeader string
	httpClient   *http.Client
	logger       zerolog.Logger
}

type ClientOption func(*Client)

// WithTimeout overrides the default 30s request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the logger for upstream call diagnostics.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client (for tests).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(baseURL, apiKeyHeader string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKeyHeader: apiKeyHeader,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		logger:       zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Me resolves the account behind an API key via the identity endpoint.
func (c *Client) Me(ctx context.Context, apiKey string) (*User, error) {
	var user User
	if err := c.get(ctx, apiKey, "/api/v1/users/me", &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, errors.Wrap(ErrUpstream, "identity response missing user id")
	}
	return &user, nil
}

// ListAgents returns the agents available to the API key's account.
func (c *Client) ListAgents(ctx context.Context, apiKey string) ([]Agent, error) {
	var agents []Agent
	if err := c.get(ctx, apiKey, "/api/v1/agents", &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// SubmitJob starts a job on the given agent.
func (c *Client) SubmitJob(ctx context.Context, apiKey, agentID, input string) (*Job, error) {
	body := map[string]string{"input": input}
	var job Job
	if err := c.post(ctx, apiKey, fmt.Sprintf("/api/v1/agents/%s/jobs", agentID), body, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJob fetches a job's current state.
func (c *Client) GetJob(ctx context.Context, apiKey, jobID string) (*Job, error) {
	var job Job
	if err := c.get(ctx, apiKey, fmt.Sprintf("/api/v1/jobs/%s", jobID), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) get(ctx context.Context, apiKey, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "jobapi new request")
	}
	return c.do(req, apiKey, out)
}

func (c *Client) post(ctx context.Context, apiKey, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "jobapi encode body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(string(encoded)))
	if err != nil {
		return errors.Wrap(err, "jobapi new request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, apiKey, out)
}

func (c *Client) do(req *http.Request, apiKey string, out any) error {
	req.Header.Set(c.apiKeyHeader, apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", req.URL.Path).Msg("job api request failed")
		return errors.Wrap(ErrUpstream, err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 400:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("path", req.URL.Path).
			Str("body", string(snippet)).
			Msg("job api error response")
		return errors.Wrapf(ErrUpstream, "status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(ErrUpstream, "decode response")
	}
	return nil
}
