// Package sublinesdk is a minimal HTTP client for the Subline API.
package sublinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal Subline HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// EventInput is one event to apply.
type EventInput struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is one committed event.
type Event struct {
	ID           string          `json:"event_id"`
	SubmissionID int64           `json:"submission_id"`
	Type         string          `json:"type"`
	Created      string          `json:"created"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// Submission is the API submission model (partial).
type Submission struct {
	SubmissionID int64  `json:"submission_id"`
	Status       string `json:"status"`
	Metadata     struct {
		Title    string `json:"title,omitempty"`
		Abstract string `json:"abstract,omitempty"`
	} `json:"metadata"`
	PaperID string `json:"paper_id,omitempty"`
}

// SubmissionResponse wraps state plus the events of the call.
type SubmissionResponse struct {
	Submission Submission `json:"submission"`
	Events     []Event    `json:"events,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Create starts a new submission from the given events. The first event
// must be a creation event.
func (c *Client) Create(ctx context.Context, events []EventInput) (SubmissionResponse, error) {
	var resp SubmissionResponse
	err := c.do(ctx, http.MethodPost, "submission/", map[string]any{"events": events}, &resp)
	return resp, err
}

// Apply applies events to an existing submission.
func (c *Client) Apply(ctx context.Context, submissionID int64, events []EventInput) (SubmissionResponse, error) {
	var resp SubmissionResponse
	endpoint := fmt.Sprintf("submission/%d/events", submissionID)
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"events": events}, &resp)
	return resp, err
}

// Get reads the materialized state of a submission.
func (c *Client) Get(ctx context.Context, submissionID int64) (SubmissionResponse, error) {
	var resp SubmissionResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("submission/%d", submissionID), nil, &resp)
	return resp, err
}

// History replays the event log and returns state plus every event.
func (c *Client) History(ctx context.Context, submissionID int64) (SubmissionResponse, error) {
	var resp SubmissionResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("submission/%d/history", submissionID), nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
