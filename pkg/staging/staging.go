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

// Package staging manages the short-lived directories dispatched files land
// in before an operation consumes them. Directory names carry a "-tmp-"
// marker; a handle without it is not reusable and callers create a fresh
// directory instead.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opsforge/filecat/pkg/util/pathutil"
)

// Dir creates a fresh staging directory under root and returns its path.
func Dir(root string) (string, error) {
	name := fmt.Sprintf("filecat-tmp-%d-%s", time.Now().Unix(), uuid.NewString())
	path := filepath.Join(root, name)
	if err := os.Mkdir(path, 0o700); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	return path, nil
}

// ValidHandle reports whether handle has the shape of a staging path.
func ValidHandle(handle string) bool {
	return strings.Contains(handle, "-tmp-")
}

// Join returns the staged path for a source file. Only the source's base
// name is kept, so a crafted name cannot point outside dir.
func Join(dir, src string) string {
	return filepath.Join(dir, filepath.Base(src))
}

// Validate checks that dir is an existing staging directory under root.
func Validate(root, dir string) error {
	if !ValidHandle(dir) {
		return fmt.Errorf("not a staging directory: %s", dir)
	}
	if !pathutil.Within(root, dir) || filepath.Clean(dir) == filepath.Clean(root) {
		return fmt.Errorf("staging directory %s escapes %s", dir, root)
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}
	return nil
}

// Remove deletes a staging directory and everything in it after validating
// the path against root.
func Remove(root, dir string) error {
	if err := Validate(root, dir); err != nil {
		return err
	}
	return os.RemoveAll(dir)
}
