package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dagbolade/echoguard/internal/accesslog"
	"github.com/google/uuid"
)

const (
	pathData = "/data"
	pathLog  = "/log"

	maxResponseBytes = 4 << 20
)

// Client talks to the EchoGuard backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch returns the backend's log set for q. A success:false payload comes
// back as *accesslog.BackendError, anything unreadable as *accesslog.TransportError.
func (c *Client) Fetch(ctx context.Context, q accesslog.Query) ([]accesslog.Entry, error) {
	target := c.baseURL + pathData
	if enc := q.Values().Encode(); enc != "" {
		target += "?" + enc
	}

	httpReq, err := c.buildRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	var payload accesslog.FetchResponse
	if err := c.do(httpReq, &payload); err != nil {
		return nil, err
	}

	if !payload.Success {
		return nil, &accesslog.BackendError{Message: payload.Error}
	}
	if payload.Logs == nil {
		payload.Logs = []accesslog.Entry{}
	}
	return payload.Logs, nil
}

// Submit posts one access event. Backend rejections are returned as a
// payload with Success false, not as an error.
func (c *Client) Submit(ctx context.Context, req accesslog.SubmitRequest) (accesslog.SubmitResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return accesslog.SubmitResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := c.buildRequest(ctx, http.MethodPost, c.baseURL+pathLog, body)
	if err != nil {
		return accesslog.SubmitResponse{}, err
	}

	var payload accesslog.SubmitResponse
	if err := c.do(httpReq, &payload); err != nil {
		return accesslog.SubmitResponse{}, err
	}
	return payload, nil
}

func (c *Client) buildRequest(ctx context.Context, method, target string, payload []byte) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// do decodes the body whatever the status code: the backend reports
// failures as JSON payloads on 4xx/5xx too.
func (c *Client) do(req *http.Request, out any) error {
	op := req.Method + " " + req.URL.Path

	resp, err := c.http.Do(req)
	if err != nil {
		return &accesslog.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &accesslog.TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &accesslog.TransportError{
			Op:  op,
			Err: fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err),
		}
	}
	return nil
}
