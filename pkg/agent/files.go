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
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/opsforge/filecat/pkg/web/model"
)

// FilesInfo fetches metadata for the given paths.
func (c *Client) FilesInfo(ctx context.Context, paths []string, follow bool) (map[string]model.FileInfo, error) {
	query := url.Values{"path": paths}
	if follow {
		query.Set("follow", strconv.FormatBool(follow))
	}

	info := map[string]model.FileInfo{}
	if err := c.doJSON(ctx, http.MethodGet, "/files/info", query, nil, &info); err != nil {
		return nil, err
	}
	return info, nil
}

// Chmod applies a mode expression to a path on the agent.
func (c *Client) Chmod(ctx context.Context, path, mode string) error {
	body := []model.PermissionChange{{Path: path, Mode: mode}}
	return c.doJSON(ctx, http.MethodPost, "/files/permissions", nil, body, nil)
}

// SearchFiles lists files under dir whose names match pattern.
func (c *Client) SearchFiles(ctx context.Context, dir, pattern string) ([]model.FileInfo, error) {
	query := url.Values{
		"path":    []string{dir},
		"pattern": []string{pattern},
	}

	var files []model.FileInfo
	if err := c.doJSON(ctx, http.MethodGet, "/files/search", query, nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// Download copies a remote file to localPath.
func (c *Client) Download(ctx context.Context, remotePath, localPath string) error {
	query := url.Values{"path": []string{remotePath}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/files/download", nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = query.Encode()
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}

	out, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	return out.Close()
}
