// Package backend talks to the remote Q&A service. The service is an
// opaque collaborator: one POST /ask call per question, no conversation
// identifier, no streaming.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// StatusLowConfidence marks answers the service refuses to stand
	// behind; they are treated as failures regardless of HTTP status.
	StatusLowConfidence = "low_confidence"

	defaultTimeout = 30 * time.Second
)

// ErrLowConfidence is returned when the service reports a low-confidence
// answer.
var ErrLowConfidence = errors.New("low confidence answer")

// LowConfidenceError carries the service's own refusal message, when the
// envelope includes one. It matches ErrLowConfidence under errors.Is.
type LowConfidenceError struct {
	Message string
}

func (e *LowConfidenceError) Error() string {
	if e.Message == "" {
		return ErrLowConfidence.Error()
	}
	return fmt.Sprintf("%s: %s", e.Message, ErrLowConfidence)
}

func (e *LowConfidenceError) Unwrap() error {
	return ErrLowConfidence
}

// Answer is a successful response from the Q&A service.
type Answer struct {
	Text       string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

// Client is an HTTP client for the Q&A service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client; tests use this to
// inject httptest transports.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    Answer `json:"data"`
}

// Ask submits a question and returns the service's answer. A transport
// failure, a non-2xx status, or a low-confidence envelope all yield an
// error; low confidence is distinguishable via errors.Is(err,
// ErrLowConfidence).
func (c *Client) Ask(ctx context.Context, question string) (*Answer, error) {
	body, err := json.Marshal(askRequest{Question: question})
	if err != nil {
		return nil, fmt.Errorf("failed to encode question: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ask", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ask request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ask request failed with status %d", resp.StatusCode)
	}

	var envelope askResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode ask response: %w", err)
	}

	if envelope.Status == StatusLowConfidence {
		return nil, &LowConfidenceError{Message: envelope.Message}
	}

	answer := envelope.Data
	return &answer, nil
}

// Health probes the service's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
