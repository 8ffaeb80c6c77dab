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

package pathutil

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// ExpandUser replaces a leading "~" or "~name" with the matching home
// directory. Paths that cannot be expanded are returned untouched.
func ExpandUser(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	var name, rest string
	if slash := strings.IndexByte(path, '/'); slash < 0 {
		name = path[1:]
	} else {
		name, rest = path[1:slash], path[slash+1:]
	}

	var home string
	if name == "" {
		home, _ = os.UserHomeDir()
	} else if u, err := user.Lookup(name); err == nil {
		home = u.HomeDir
	}
	if home == "" {
		return path
	}
	if rest == "" {
		return home
	}
	return filepath.Join(home, rest)
}

// Within reports whether path sits at or below root after lexical
// cleaning. It never consults the filesystem, so symlinked escapes must be
// handled by the caller.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}
