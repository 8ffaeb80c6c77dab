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

package fileattr

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"syscall"
)

// State is the observed ownership, mode and shape of a path, as embedded in
// operation results. Owner and group fall back to numeric strings when the
// id has no name on the host.
type State struct {
	Owner string `json:"owner"`
	Group string `json:"group"`
	UID   uint32 `json:"uid"`
	GID   uint32 `json:"gid"`
	Mode  string `json:"mode"`
	Size  int64  `json:"size"`
	State string `json:"state"`
}

// Stat reports the state of path. With follow set, symlinks are resolved
// and the target is described; otherwise the link itself is.
func Stat(path string, follow bool) (State, error) {
	statFn := os.Lstat
	if follow {
		statFn = os.Stat
	}

	fi, err := statFn(path)
	if err != nil {
		return State{}, err
	}

	stat, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return State{}, fmt.Errorf("no ownership information for %s", path)
	}

	owner := strconv.FormatUint(uint64(stat.Uid), 10)
	if ownerUser, err := user.LookupId(owner); err == nil {
		owner = ownerUser.Username
	}

	group := strconv.FormatUint(uint64(stat.Gid), 10)
	if groupInfo, err := user.LookupGroupId(group); err == nil {
		group = groupInfo.Name
	}

	return State{
		Owner: owner,
		Group: group,
		UID:   stat.Uid,
		GID:   stat.Gid,
		Mode:  FormatMode(fi.Mode()),
		Size:  fi.Size(),
		State: shape(fi.Mode()),
	}, nil
}

func shape(m os.FileMode) string {
	switch {
	case m&os.ModeSymlink != 0:
		return "link"
	case m.IsDir():
		return "directory"
	default:
		return "file"
	}
}
