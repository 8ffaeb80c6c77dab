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

// Package fileattr reconciles ownership and permission bits on target files
// and reports their final state. Reconciliation is difference-driven: nothing
// is touched when the file already matches the requested attributes, and
// check mode predicts without touching anything.
package fileattr

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"
)

// Spec is the requested ownership and mode for a path. Empty fields mean
// "leave as is". Follow selects whether a symlink path is reconciled itself
// or resolved to its target first.
type Spec struct {
	Path   string
	Owner  string
	Group  string
	Mode   string
	Follow bool
}

// Empty reports whether the spec requests no attribute at all.
func (s Spec) Empty() bool {
	return s.Owner == "" && s.Group == "" && s.Mode == ""
}

// Apply reconciles the file at spec.Path with the requested attributes and
// reports whether anything differed. In check mode differences are detected
// but not applied. Unknown owner or group names are an error.
func Apply(spec Spec, check bool) (bool, error) {
	if spec.Empty() {
		return false, nil
	}

	path, err := filepath.Abs(spec.Path)
	if err != nil {
		return false, fmt.Errorf("invalid path: %w", err)
	}

	target := path
	fi, err := os.Lstat(path)
	if err != nil {
		return false, err
	}

	isLink := fi.Mode()&os.ModeSymlink != 0
	if isLink && spec.Follow {
		target, err = filepath.EvalSymlinks(path)
		if err != nil {
			return false, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		fi, err = os.Stat(target)
		if err != nil {
			return false, err
		}
	}

	changed := false

	// Permission bits cannot be set on the link itself, only on its target.
	if spec.Mode != "" && (!isLink || spec.Follow) {
		desired, err := ParseMode(spec.Mode, fi.Mode())
		if err != nil {
			return false, err
		}
		if desired&modeMask != fi.Mode()&modeMask {
			changed = true
			if !check {
				if err := os.Chmod(target, desired); err != nil {
					return changed, fmt.Errorf("failed to set mode for %s: %w", target, err)
				}
			}
		}
	}

	if spec.Owner != "" || spec.Group != "" {
		stat, ok := fi.Sys().(*syscall.Stat_t)
		if !ok {
			return changed, fmt.Errorf("no ownership information for %s", target)
		}

		uid, gid := -1, -1
		if spec.Owner != "" {
			if uid, err = lookupUID(spec.Owner); err != nil {
				return changed, err
			}
		}
		if spec.Group != "" {
			if gid, err = lookupGID(spec.Group); err != nil {
				return changed, err
			}
		}

		differs := (uid != -1 && uint32(uid) != stat.Uid) || (gid != -1 && uint32(gid) != stat.Gid)
		if differs {
			changed = true
			if !check {
				chown := os.Chown
				if isLink && !spec.Follow {
					chown = os.Lchown
				}
				if err := chown(target, uid, gid); err != nil {
					return changed, fmt.Errorf("failed to set owner/group for %s: %w", target, err)
				}
			}
		}
	}

	return changed, nil
}

func lookupUID(owner string) (int, error) {
	if userInfo, err := user.Lookup(owner); err == nil {
		uid, err := strconv.Atoi(userInfo.Uid)
		if err != nil {
			return -1, fmt.Errorf("non-numeric uid for user %s: %w", owner, err)
		}
		return uid, nil
	}
	if uid, err := strconv.Atoi(owner); err == nil && uid >= 0 {
		return uid, nil
	}
	return -1, fmt.Errorf("unknown user: %s", owner)
}

func lookupGID(group string) (int, error) {
	if groupInfo, err := user.LookupGroup(group); err == nil {
		gid, err := strconv.Atoi(groupInfo.Gid)
		if err != nil {
			return -1, fmt.Errorf("non-numeric gid for group %s: %w", group, err)
		}
		return gid, nil
	}
	if gid, err := strconv.Atoi(group); err == nil && gid >= 0 {
		return gid, nil
	}
	return -1, fmt.Errorf("unknown group: %s", group)
}
