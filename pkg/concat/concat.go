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

// Package concat implements the append operation performed on target hosts:
// append the content of a staged source file to an existing destination
// file, optionally only when that content is not already present, with
// optional timestamped backup and file attribute reconciliation.
package concat

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opsforge/filecat/pkg/digest"
	"github.com/opsforge/filecat/pkg/fileattr"
	"github.com/opsforge/filecat/pkg/log"
	"github.com/opsforge/filecat/pkg/util/pathutil"
)

// Run executes one append operation against the local filesystem.
//
// Preconditions fail with *PreconditionError before anything is touched. In
// check mode the filesystem is never modified and changed reports whether
// the source content is absent from the destination, regardless of force.
// I/O failures past the precondition stage fail with *AppendError.
func Run(req *Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	dest := pathutil.ExpandUser(req.Dest)

	// source checks run before the destination is looked at
	if _, err := os.Stat(req.Src); err != nil {
		return nil, &PreconditionError{Msg: fmt.Sprintf("Source %s not found", req.Src)}
	}
	if !readable(req.Src) {
		return nil, &PreconditionError{Msg: fmt.Sprintf("Source %s not readable", req.Src)}
	}

	srcSum, err := digest.Primary(req.Src)
	if err != nil {
		return nil, fmt.Errorf("failed to digest source %s: %w", req.Src, err)
	}
	md5Sum, err := digest.Legacy(req.Src)
	if err != nil {
		if !errors.Is(err, digest.ErrUnavailable) {
			return nil, fmt.Errorf("failed to digest source %s: %w", req.Src, err)
		}
		md5Sum = ""
		log.Debug("legacy digest unavailable, omitting md5sum for %s", req.Src)
	}

	// os.Stat follows links, so a dangling destination link counts as absent
	if _, err := os.Stat(dest); err != nil {
		return nil, &PreconditionError{Msg: fmt.Sprintf("Destination %s doesn't exist", dest)}
	}

	linfo, err := os.Lstat(dest)
	if err != nil {
		return nil, err
	}
	isLink := linfo.Mode()&os.ModeSymlink != 0

	readPath := dest
	if isLink {
		if readPath, err = filepath.EvalSymlinks(dest); err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", dest, err)
		}
	}

	if fi, err := os.Stat(readPath); err == nil && fi.IsDir() {
		return nil, &PreconditionError{Msg: fmt.Sprintf("Destination %s is a directory, must be a file", readPath)}
	}

	destSum := ""
	if readable(readPath) {
		if destSum, err = digest.Primary(readPath); err != nil {
			return nil, fmt.Errorf("failed to digest destination %s: %w", readPath, err)
		}
	}

	out, err := apply(req, dest, readPath, isLink)
	if err != nil {
		return nil, err
	}

	attrPath := dest
	if req.Check && isLink {
		// a real run converts the link first, so predict against its target
		attrPath = readPath
	}
	attrChanged, err := fileattr.Apply(fileattr.Spec{
		Path:   attrPath,
		Owner:  req.Owner,
		Group:  req.Group,
		Mode:   req.Mode,
		Follow: req.Follow,
	}, req.Check)
	if err != nil {
		return nil, err
	}
	out.changed = out.changed || attrChanged

	return buildResult(req, dest, srcSum, destSum, md5Sum, out)
}

// apply runs the decision procedure and mutates the destination when the
// branch calls for it. A symlink destination is converted to a regular file
// holding the target's content before any branch runs; the conversion alone
// never reports a change.
func apply(req *Request, dest, readPath string, isLink bool) (outcome, error) {
	srcContent, err := os.ReadFile(req.Src)
	if err != nil {
		return outcome{}, &AppendError{Src: req.Src, Dest: dest, Err: err}
	}

	if req.Check {
		destContent, err := os.ReadFile(readPath)
		if err != nil {
			return outcome{}, &AppendError{Src: req.Src, Dest: dest, Err: err}
		}
		return outcome{changed: !bytes.Contains(destContent, srcContent)}, nil
	}

	if isLink {
		if err := convertLink(dest, readPath); err != nil {
			return outcome{}, &AppendError{Src: req.Src, Dest: dest, Err: err}
		}
	}

	if !req.Forced() {
		destContent, err := os.ReadFile(dest)
		if err != nil {
			return outcome{}, &AppendError{Src: req.Src, Dest: dest, Err: err}
		}
		if bytes.Contains(destContent, srcContent) {
			return outcome{}, nil
		}
	}

	var backupFile string
	if req.Backup {
		if backupFile, err = BackupLocal(dest); err != nil {
			return outcome{}, &AppendError{Src: req.Src, Dest: dest, Err: err}
		}
	}
	if err := appendContent(dest, srcContent); err != nil {
		return outcome{backupFile: backupFile}, &AppendError{Src: req.Src, Dest: dest, Err: err}
	}
	return outcome{changed: true, backupFile: backupFile}, nil
}

// convertLink replaces the symlink at dest with a regular file holding the
// link target's content, so the append lands at the requested path instead
// of writing through the link.
func convertLink(dest, target string) error {
	content, err := os.ReadFile(target)
	if err != nil {
		return err
	}
	fi, err := os.Stat(target)
	if err != nil {
		return err
	}
	if err := os.Remove(dest); err != nil {
		return err
	}
	return os.WriteFile(dest, content, fi.Mode().Perm())
}

func appendContent(dest string, content []byte) error {
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readable mirrors an access(R_OK) probe by actually opening the path.
func readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
