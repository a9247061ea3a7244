package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody caps how much of a failed response ends up in the error.
const maxErrorBody = 512

// HTTPClient posts JSON bodies with a single attempt per call.
// Retries happen at the drain level on the next tick.
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient creates a client whose requests time out after timeout.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// SendResult contains the result of a send operation.
type SendResult struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Post sends body to url. Transport failures and non-2xx statuses are errors.
func (c *HTTPClient) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*SendResult, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "DriverHelper/1.0")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	result := &SendResult{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Duration:   time.Since(start),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(respBody))}
	}
	return result, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return "rate limited (HTTP 429)"
	case e.StatusCode >= 500:
		return fmt.Sprintf("server error (HTTP %d): %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("client error (HTTP %d): %s", e.StatusCode, e.Body)
	}
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
