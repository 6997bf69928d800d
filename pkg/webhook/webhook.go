// Package webhook posts query reports to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ccollicutt/trackstat/pkg/output"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// maxResponseBody caps how much of the endpoint's reply is kept.
const maxResponseBody = 1024 * 1024

// EventQueryCompleted is the event name of every payload.
const EventQueryCompleted = "query.completed"

// Trigger names accepted by ShouldFire.
const (
	TriggerOnResults = "on_results"
	TriggerAlways    = "always"
	TriggerNever     = "never"
)

// Payload is the JSON body posted to an endpoint.
type Payload struct {
	Event   string         `json:"event"`
	Query   string         `json:"query"`
	Matched int            `json:"matched"`
	Report  *output.Report `json:"report"`
}

// NewPayload wraps a report for delivery.
func NewPayload(report *output.Report) *Payload {
	return &Payload{
		Event:   EventQueryCompleted,
		Query:   report.Query,
		Matched: report.Summary.Matched,
		Report:  report,
	}
}

// ShouldFire reports whether a webhook with the given trigger fires for a
// query that did or did not match tracks. An empty trigger means on_results.
func ShouldFire(trigger string, hasResults bool) bool {
	switch trigger {
	case TriggerAlways:
		return true
	case TriggerNever:
		return false
	default:
		return hasResults
	}
}

// Client sends query reports to webhook endpoints.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new webhook client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
		userAgent:  "trackstat-webhook",
	}
}

// SendOptions configures a webhook request.
type SendOptions struct {
	URL     string
	Token   string        // Bearer token (optional)
	Timeout time.Duration // Request timeout (uses DefaultTimeout if zero)
}

// Response contains the result of a webhook request.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Error      error
}

// Success returns true if the webhook was sent successfully (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts a query report to a webhook endpoint.
func (c *Client) Send(ctx context.Context, report *output.Report, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{}
	fail := func(err error) *Response {
		resp.Error = err
		resp.Duration = time.Since(start)
		return resp
	}

	payload, err := json.Marshal(NewPayload(report))
	if err != nil {
		return fail(fmt.Errorf("marshaling report: %w", err))
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(payload))
	if err != nil {
		return fail(fmt.Errorf("creating request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("request failed: %w", err))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return fail(fmt.Errorf("reading response: %w", err))
	}

	resp.StatusCode = httpResp.StatusCode
	resp.Body = string(body)
	resp.Duration = time.Since(start)

	if resp.StatusCode >= 400 {
		resp.Error = fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return resp
}
