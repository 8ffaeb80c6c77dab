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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"

	"github.com/opsforge/filecat/pkg/log"
	"github.com/opsforge/filecat/pkg/web/model"
)

var uploadBackoff = wait.Backoff{
	Steps:    5,
	Duration: 500 * time.Millisecond,
	Factor:   1.5,
	Jitter:   0.1,
}

// CreateStaging asks the agent for a fresh staging directory.
func (c *Client) CreateStaging(ctx context.Context) (string, error) {
	var dir model.StagingDir
	if err := c.doJSON(ctx, http.MethodPost, "/staging", nil, nil, &dir); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	return dir.Path, nil
}

// RemoveStaging deletes a staging directory on the agent.
func (c *Client) RemoveStaging(ctx context.Context, dir string) error {
	query := url.Values{"path": []string{dir}}
	return c.doJSON(ctx, http.MethodDelete, "/staging", query, nil, nil)
}

// UploadFile transfers a local file into a staging directory and returns the
// staged path. Transient failures are retried; the agent rejecting the
// request is not.
func (c *Client) UploadFile(ctx context.Context, dir, localPath string) (string, error) {
	var staged string
	err := retry.OnError(uploadBackoff, func(err error) bool {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return false
		}
		log.Warn("Failed to upload %s, retrying: %v", localPath, err)
		return true
	}, func() error {
		var err error
		staged, err = c.uploadFile(ctx, dir, localPath)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", localPath, err)
	}
	return staged, nil
}

func (c *Client) uploadFile(ctx context.Context, dir, localPath string) (string, error) {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	meta, err := form.CreateFormFile("metadata", "metadata.json")
	if err != nil {
		return "", err
	}
	if err := json.NewEncoder(meta).Encode(model.StagingUploadMetadata{Dir: dir}); err != nil {
		return "", err
	}

	file, err := form.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return "", err
	}
	if _, err := file.Write(content); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/staging/files", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", decodeAPIError(resp)
	}

	var staged []model.StagedFile
	if err := json.NewDecoder(resp.Body).Decode(&staged); err != nil {
		return "", err
	}
	if len(staged) != 1 {
		return "", fmt.Errorf("expected one staged file, agent reported %d", len(staged))
	}
	return staged[0].Path, nil
}
