// Copyright 2025 The filecat Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package agent is the HTTP client for a running filecatd instance. The
// dispatcher and the CLI both go through it; nothing in here touches the
// local filesystem except file uploads and downloads.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/opsforge/filecat/pkg/log"
	"github.com/opsforge/filecat/pkg/web/model"
)

// Client interacts with the filecatd API.
type Client struct {
	BaseURL    string
	httpClient *http.Client
	token      string
}

type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithToken configures the client with an access token.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a new agent client instance.
func NewClient(baseURL string, options ...ClientOption) *Client {
	client := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// APIError is a non-2xx response decoded from the agent's error envelope.
type APIError struct {
	StatusCode int
	Code       model.ErrorCode
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("agent responded %d (%s)", e.StatusCode, e.Code)
	}
	return e.Message
}

// Ping checks that the agent is up and the access token is accepted.
func (c *Client) Ping(ctx context.Context) error {
	var status map[string]string
	if err := c.doJSON(ctx, http.MethodGet, "/ping", nil, nil, &status); err != nil {
		return err
	}
	if status["status"] != "ok" {
		return fmt.Errorf("unexpected ping response: %v", status)
	}
	return nil
}

// WaitReady polls the agent until it answers pings or the timeout expires.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) error {
	return wait.PollUntilContextTimeout(ctx, 500*time.Millisecond, timeout, true,
		func(ctx context.Context) (bool, error) {
			if err := c.Ping(ctx); err != nil {
				log.Debug("Agent %s not ready yet: %v", c.BaseURL, err)
				return false, nil
			}
			return true, nil
		})
}

// Metrics fetches a system metrics snapshot from the agent.
func (c *Client) Metrics(ctx context.Context) (*model.Metrics, error) {
	metrics := &model.Metrics{}
	if err := c.doJSON(ctx, http.MethodGet, "/metrics", nil, nil, metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to serialize request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set(model.ApiAccessTokenHeader, c.token)
	}
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Code: model.ErrorCodeUnknown}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiErr
	}

	var envelope model.ErrorResponse
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Code != "" {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
