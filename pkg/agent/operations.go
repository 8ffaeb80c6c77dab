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

package agent

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/opsforge/filecat/pkg/util/safego"
	"github.com/opsforge/filecat/pkg/web/model"
)

// Concat runs the append operation on the agent with raw module arguments
// and returns the flat result map.
func (c *Client) Concat(ctx context.Context, args map[string]any) (map[string]any, error) {
	result := map[string]any{}
	if err := c.doJSON(ctx, http.MethodPost, "/operations/concat", nil, args, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// WatchOperations streams operation events from the agent. The returned
// channel closes when the connection drops or ctx is cancelled.
func (c *Client) WatchOperations(ctx context.Context) (<-chan model.OperationEvent, error) {
	wsURL, err := c.websocketURL("/operations/watch")
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if c.token != "" {
		header.Set(model.ApiAccessTokenHeader, c.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if resp != nil && err != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to operation watch: %w", err)
	}

	events := make(chan model.OperationEvent)
	done := make(chan struct{})

	safego.Go(func() {
		defer close(events)
		defer close(done)
		for {
			var event model.OperationEvent
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	})
	safego.Go(func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		conn.Close()
	})

	return events, nil
}

func (c *Client) websocketURL(path string) (string, error) {
	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	scheme := "ws"
	if parsedURL.Scheme == "https" {
		scheme = "wss"
	}

	return fmt.Sprintf("%s://%s%s", scheme, parsedURL.Host, path), nil
}
