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

// Package dispatch stages source files and drives append operations through
// a transport. It owns the controller-side half of an append: resolving the
// play's src against role and base directories, moving the file into a
// staging directory on the target and handing the rewritten arguments to the
// operator.
package dispatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opsforge/filecat/pkg/concat"
	"github.com/opsforge/filecat/pkg/log"
	"github.com/opsforge/filecat/pkg/staging"
	"github.com/opsforge/filecat/pkg/util/pathutil"
)

// Transport moves files to the target and runs operations there.
type Transport interface {
	CreateStaging(ctx context.Context) (string, error)
	RemoveStaging(ctx context.Context, dir string) error
	UploadFile(ctx context.Context, dir, localPath string) (string, error)
	Chmod(ctx context.Context, path, mode string) error
	Concat(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Options describe one dispatched append task.
type Options struct {
	// Args are the task's module arguments, untouched. The dispatcher only
	// rewrites src and check before handing them to the operator.
	Args map[string]any

	CheckMode  bool
	Become     bool
	BecomeUser string

	// RoleDir is the running role's directory; relative sources resolve
	// against its files/ subdirectory first. BaseDir is the fallback used
	// outside of roles.
	RoleDir string
	BaseDir string

	// Staging reuses an existing staging directory instead of creating one.
	// The caller keeps ownership: reused directories are never removed.
	Staging string
}

// Dispatcher runs append tasks through a transport.
type Dispatcher struct {
	transport Transport
}

func New(transport Transport) *Dispatcher {
	return &Dispatcher{transport: transport}
}

// Dispatch stages the task's source file and runs the append operation.
//
// The returned map always carries the staging directory and staged source
// path; on success the operator's result is merged over them.
func (d *Dispatcher) Dispatch(ctx context.Context, opts Options) (map[string]any, error) {
	src, _ := opts.Args["src"].(string)
	if src == "" {
		return nil, &concat.ValidationError{Msg: "src is required"}
	}

	localSrc, err := resolveSource(src, opts)
	if err != nil {
		return nil, err
	}

	dir := opts.Staging
	createdStaging := false
	if dir == "" || !staging.ValidHandle(dir) {
		dir, err = d.transport.CreateStaging(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create staging directory: %w", err)
		}
		createdStaging = true
	}
	if createdStaging {
		defer func() {
			if err := d.transport.RemoveStaging(ctx, dir); err != nil {
				log.Warn("Failed to remove staging directory %s: %v", dir, err)
			}
		}()
	}

	staged, err := d.transport.UploadFile(ctx, dir, localSrc)
	if err != nil {
		return nil, err
	}

	// A privileged run under a non-root user needs the staged file readable
	// once the operator drops privileges.
	if opts.Become && opts.BecomeUser != "" && opts.BecomeUser != "root" && !opts.CheckMode {
		if err := d.transport.Chmod(ctx, staged, "a+r"); err != nil {
			return nil, fmt.Errorf("failed to make %s readable: %w", staged, err)
		}
	}

	moduleArgs := make(map[string]any, len(opts.Args)+2)
	for k, v := range opts.Args {
		moduleArgs[k] = v
	}
	moduleArgs["src"] = staged
	if opts.CheckMode {
		moduleArgs["check"] = true
	}

	out := map[string]any{
		"staging": dir,
		"src":     staged,
	}

	result, err := d.transport.Concat(ctx, moduleArgs)
	if err != nil {
		return out, err
	}
	for k, v := range result {
		out[k] = v
	}
	return out, nil
}

// resolveSource locates the play's src on the controller. Relative sources
// look in the role's files/ directory, then the role directory itself, then
// the same pair under the base directory.
func resolveSource(src string, opts Options) (string, error) {
	expanded := pathutil.ExpandUser(src)
	if filepath.IsAbs(expanded) {
		return expanded, nil
	}

	var candidates []string
	if opts.RoleDir != "" {
		candidates = append(candidates,
			filepath.Join(opts.RoleDir, "files", expanded),
			filepath.Join(opts.RoleDir, expanded),
		)
	}
	base := opts.BaseDir
	if base == "" {
		base = "."
	}
	candidates = append(candidates,
		filepath.Join(base, "files", expanded),
		filepath.Join(base, expanded),
	)

	for _, candidate := range candidates {
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
	}
	return "", &concat.PreconditionError{Msg: fmt.Sprintf("Source %s not found", src)}
}
