// Package client talks to the cafe HTTP API from the table and staff side.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yeremiapane/cafe-ordering/apperror"
)

const httpCallTimeout = 10 * time.Second

// APIError is a non-2xx answer from the server, decoded from the response
// envelope.
type APIError struct {
	StatusCode int
	Kind       apperror.Kind
	Message    string
	IsExpired  bool
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("cafe api: %d %s: %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("cafe api: %d: %s", e.StatusCode, e.Message)
}

// SessionRejected reports whether the server refused a table session token.
func (e *APIError) SessionRejected() bool {
	return e.Kind == apperror.KindSessionInvalid
}

type envelope struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	IsExpired *bool           `json:"is_expired"`
}

// Client is a thin JSON client for the cafe API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: httpCallTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// do sends body as JSON and decodes the envelope's data into out. Transport
// failures come back unwrapped; server rejections come back as *APIError.
func (c *Client) do(ctx context.Context, method, path, bearer string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Kind:       apperror.Kind(env.Error),
			Message:    env.Message,
		}
		if env.IsExpired != nil {
			apiErr.IsExpired = *env.IsExpired
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// isServerAnswer separates a definite server verdict from a transport or
// availability failure.
func isServerAnswer(err error) (*APIError, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return nil, false
	}
	if apiErr.StatusCode >= 500 {
		return apiErr, false
	}
	return apiErr, true
}
