/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package client talks to a pagesmith server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/NissesSenap/pagesmith/pkg/api"
)

const (
	unknownErrorMessage = "unknown error"
	maxResponseBytes    = 1 << 20
)

// APIError is a non-200 answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// IsForbidden reports whether err is a 403 from the server.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client, which has a 30s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Client communicates with the pagesmith API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SubmitTask posts a build request to /task.
func (c *Client) SubmitTask(ctx context.Context, task api.TaskRequest) (*api.TaskResponse, error) {
	body, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/task", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp api.TaskResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &resp, nil
}

// Health checks GET / and returns the server's message.
func (c *Client) Health(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var msg api.MessageResponse
	if err := json.Unmarshal(body, &msg); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	return msg.Message, nil
}

// Events streams the events of a job, starting after sequence number
// after, and calls fn for each message until the server closes the
// stream. It returns nil after a job_complete message.
func (c *Client) Events(ctx context.Context, jobID string, after int64, fn func(api.WSMessage)) error {
	u, err := url.Parse(c.baseURL + "/tasks/" + url.PathEscape(jobID) + "/events")
	if err != nil {
		return fmt.Errorf("parsing URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if after > 0 {
		q := u.Query()
		q.Set("after", strconv.FormatInt(after, 10))
		u.RawQuery = q.Encode()
	}

	conn, resp, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("dialing event stream: %w", err)
	}
	defer conn.CloseNow() //nolint:errcheck

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("reading event stream: %w", err)
		}
		var msg api.WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("parsing event: %w", err)
		}
		fn(msg)
		if msg.Type == api.MessageJobComplete {
			return nil
		}
	}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

func errorMessage(body []byte) string {
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return errResp.Error
	}
	msg := string(bytes.TrimSpace(body))
	if len(msg) > 1024 {
		msg = msg[:1024]
	}
	if msg == "" {
		msg = unknownErrorMessage
	}
	return msg
}
