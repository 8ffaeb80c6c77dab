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

package dispatch

import (
	"context"
	"fmt"
	"os"

	"github.com/opsforge/filecat/pkg/concat"
	"github.com/opsforge/filecat/pkg/fileattr"
	"github.com/opsforge/filecat/pkg/staging"
)

// LocalTransport runs operations in-process against the local filesystem,
// the equivalent of managing the machine the dispatcher runs on.
type LocalTransport struct {
	// StagingRoot overrides where staging directories are created. Empty
	// means the system temp directory.
	StagingRoot string
}

func (t *LocalTransport) root() string {
	if t.StagingRoot != "" {
		return t.StagingRoot
	}
	return os.TempDir()
}

func (t *LocalTransport) CreateStaging(ctx context.Context) (string, error) {
	return staging.Dir(t.root())
}

func (t *LocalTransport) RemoveStaging(ctx context.Context, dir string) error {
	return staging.Remove(t.root(), dir)
}

func (t *LocalTransport) UploadFile(ctx context.Context, dir, localPath string) (string, error) {
	if err := staging.Validate(t.root(), dir); err != nil {
		return "", err
	}

	content, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", localPath, err)
	}

	staged := staging.Join(dir, localPath)
	if err := os.WriteFile(staged, content, 0o600); err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", localPath, err)
	}
	return staged, nil
}

func (t *LocalTransport) Chmod(ctx context.Context, path, mode string) error {
	_, err := fileattr.Apply(fileattr.Spec{Path: path, Mode: mode}, false)
	return err
}

func (t *LocalTransport) Concat(ctx context.Context, args map[string]any) (map[string]any, error) {
	req, err := concat.ParseArgs(args)
	if err != nil {
		return nil, err
	}
	result, err := concat.Run(req)
	if err != nil {
		return nil, err
	}
	return result.AsMap()
}
