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

package concat

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(raw)
}

func boolPtr(v bool) *bool {
	return &v
}

func sha1Hex(content string) string {
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestRunAppendsWhenContentAbsent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snippet")
	dest := filepath.Join(dir, "bashrc")
	writeFile(t, src, "alias ll='ls -la'\n")
	writeFile(t, dest, "# login shell setup\n")

	res, err := Run(&Request{Src: src, Dest: dest, Force: boolPtr(false)})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !res.Changed {
		t.Fatal("first append should report changed")
	}
	if got := readFile(t, dest); got != "# login shell setup\nalias ll='ls -la'\n" {
		t.Fatalf("dest content = %q", got)
	}
	if res.Checksum != sha1Hex("alias ll='ls -la'\n") {
		t.Fatalf("checksum = %q, want sha1 of source", res.Checksum)
	}
	if res.DestChecksum != sha1Hex("# login shell setup\n") {
		t.Fatalf("dest_checksum = %q, want sha1 of pre-append destination", res.DestChecksum)
	}
	if res.MD5Sum == "" {
		t.Fatal("md5sum should be reported outside FIPS-only mode")
	}
	if res.State.State != "file" {
		t.Fatalf("state = %q, want file", res.State.State)
	}
}

func TestRunIdempotentWhenNotForced(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snippet")
	dest := filepath.Join(dir, "bashrc")
	writeFile(t, src, "alias ll='ls -la'\n")
	writeFile(t, dest, "# base\n")

	req := &Request{Src: src, Dest: dest, Force: boolPtr(false)}
	if _, err := Run(req); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	afterFirst := readFile(t, dest)

	res, err := Run(req)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if res.Changed {
		t.Fatal("second run should be a no-op")
	}
	if got := readFile(t, dest); got != afterFirst {
		t.Fatalf("second run modified the destination: %q -> %q", afterFirst, got)
	}
}

func TestRunForcedAppendDoublesContent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snippet")
	dest := filepath.Join(dir, "bashrc")
	snippet := "alias ll='ls -la'\n"
	writeFile(t, src, snippet)
	writeFile(t, dest, snippet)

	// Force left nil defaults to true.
	res, err := Run(&Request{Src: src, Dest: dest})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !res.Changed {
		t.Fatal("forced append should always report changed")
	}
	if got := readFile(t, dest); got != snippet+snippet {
		t.Fatalf("dest content = %q, want snippet twice", got)
	}
	if n := strings.Count(readFile(t, dest), snippet); n != 2 {
		t.Fatalf("snippet occurs %d times, want 2", n)
	}
}

func TestRunBackupArtifact(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snippet")
	dest := filepath.Join(dir, "conf")
	writeFile(t, src, "new line\n")
	writeFile(t, dest, "original content\n")

	res, err := Run(&Request{Src: src, Dest: dest, Backup: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.BackupFile == "" {
		t.Fatal("backup_file should be reported")
	}
	if res.BackupFile == dest {
		t.Fatal("backup must not shadow the destination")
	}

	namePattern := regexp.MustCompile("^" + regexp.QuoteMeta(dest) + `\.\d{4}-\d{2}-\d{2}@\d{2}:\d{2}:\d{2}~$`)
	if !namePattern.MatchString(res.BackupFile) {
		t.Fatalf("backup name %q does not carry a timestamp suffix", res.BackupFile)
	}
	if got := readFile(t, res.BackupFile); got != "original content\n" {
		t.Fatalf("backup content = %q, want pre-append destination content", got)
	}
	if got := readFile(t, dest); got != "original content\nnew line\n" {
		t.Fatalf("dest content = %q", got)
	}
}

func TestRunNoBackupWhenNothingAppended(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snippet")
	dest := filepath.Join(dir, "conf")
	writeFile(t, src, "present\n")
	writeFile(t, dest, "already present\npresent\n")

	res, err := Run(&Request{Src: src, Dest: dest, Backup: true, Force: boolPtr(false)})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Changed {
		t.Fatal("contained content should not change the destination")
	}
	if res.BackupFile != "" {
		t.Fatalf("no backup should exist for a no-op run, got %q", res.BackupFile)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to list dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("unexpected files appeared: %d entries", len(entries))
	}
}

func TestRunCheckModeNeverWrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snippet")
	dest := filepath.Join(dir, "conf")
	writeFile(t, src, "wanted\n")
	writeFile(t, dest, "base\n")

	res, err := Run(&Request{Src: src, Dest: dest, Backup: true, Check: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !res.Changed {
		t.Fatal("check mode should predict an append for absent content")
	}
	if !res.Check {
		t.Fatal("result should carry the check flag")
	}
	if res.BackupFile != "" {
		t.Fatal("check mode must not create backups")
	}
	if got := readFile(t, dest); got != "base\n" {
		t.Fatalf("check mode modified the destination: %q", got)
	}
}

func TestRunCheckModeIgnoresForceForPrediction(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snippet")
	dest := filepath.Join(dir, "conf")
	writeFile(t, src, "present\n")
	writeFile(t, dest, "present\n")

	// force=true would append on a real run, but the prediction only asks
	// whether the content is already there
	res, err := Run(&Request{Src: src, Dest: dest, Force: boolPtr(true), Check: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Changed {
		t.Fatal("contained content should predict no change")
	}
	if got := readFile(t, dest); got != "present\n" {
		t.Fatalf("check mode modified the destination: %q", got)
	}
}

func TestRunSourceCheckedBeforeDestination(t *testing.T) {
	dir := t.TempDir()

	_, err := Run(&Request{
		Src:  filepath.Join(dir, "missing-src"),
		Dest: filepath.Join(dir, "missing-dest"),
	})
	var pre *PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("error = %v, want PreconditionError", err)
	}
	if !strings.HasPrefix(pre.Msg, "Source ") || !strings.HasSuffix(pre.Msg, " not found") {
		t.Fatalf("msg = %q, want the source failure to win", pre.Msg)
	}
}

func TestRunPreconditionMessages(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snippet")
	writeFile(t, src, "x\n")

	t.Run("missing destination", func(t *testing.T) {
		dest := filepath.Join(dir, "absent")
		_, err := Run(&Request{Src: src, Dest: dest})
		var pre *PreconditionError
		if !errors.As(err, &pre) {
			t.Fatalf("error = %v, want PreconditionError", err)
		}
		if pre.Msg != "Destination "+dest+" doesn't exist" {
			t.Fatalf("msg = %q", pre.Msg)
		}
	})

	t.Run("destination is a directory", func(t *testing.T) {
		dest := filepath.Join(dir, "subdir")
		if err := os.Mkdir(dest, 0o755); err != nil {
			t.Fatalf("mkdir failed: %v", err)
		}
		_, err := Run(&Request{Src: src, Dest: dest})
		var pre *PreconditionError
		if !errors.As(err, &pre) {
			t.Fatalf("error = %v, want PreconditionError", err)
		}
		if pre.Msg != "Destination "+dest+" is a directory, must be a file" {
			t.Fatalf("msg = %q", pre.Msg)
		}
	})

	t.Run("dangling destination link", func(t *testing.T) {
		dest := filepath.Join(dir, "dangling")
		if err := os.Symlink(filepath.Join(dir, "nowhere"), dest); err != nil {
			t.Fatalf("symlink failed: %v", err)
		}
		_, err := Run(&Request{Src: src, Dest: dest})
		var pre *PreconditionError
		if !errors.As(err, &pre) {
			t.Fatalf("error = %v, want PreconditionError", err)
		}
		if pre.Msg != "Destination "+dest+" doesn't exist" {
			t.Fatalf("msg = %q", pre.Msg)
		}
	})
}

func TestRunUnreadableSource(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root reads anything")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "secret")
	dest := filepath.Join(dir, "conf")
	writeFile(t, src, "x\n")
	writeFile(t, dest, "y\n")
	if err := os.Chmod(src, 0o000); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}

	_, err := Run(&Request{Src: src, Dest: dest})
	var pre *PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("error = %v, want PreconditionError", err)
	}
	if pre.Msg != "Source "+src+" not readable" {
		t.Fatalf("msg = %q", pre.Msg)
	}
	if got := readFile(t, dest); got != "y\n" {
		t.Fatalf("precondition failure modified the destination: %q", got)
	}
}

func TestRunConvertsSymlinkEvenWithoutAppend(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snippet")
	target := filepath.Join(dir, "real.conf")
	link := filepath.Join(dir, "alias.conf")
	writeFile(t, src, "present\n")
	writeFile(t, target, "present\nand more\n")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink failed: %v", err)
	}

	res, err := Run(&Request{Src: src, Dest: link, Force: boolPtr(false)})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Changed {
		t.Fatal("contained content should report no change even though the link was converted")
	}

	fi, err := os.Lstat(link)
	if err != nil {
		t.Fatalf("lstat failed: %v", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		t.Fatal("destination should have been converted to a regular file")
	}
	if got := readFile(t, link); got != "present\nand more\n" {
		t.Fatalf("converted file content = %q, want the link target's content", got)
	}
	if got := readFile(t, target); got != "present\nand more\n" {
		t.Fatalf("link target was modified: %q", got)
	}
}

func TestRunAppendsAtLinkPathAfterConversion(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snippet")
	target := filepath.Join(dir, "real.conf")
	link := filepath.Join(dir, "alias.conf")
	writeFile(t, src, "added\n")
	writeFile(t, target, "base\n")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink failed: %v", err)
	}

	res, err := Run(&Request{Src: src, Dest: link, Force: boolPtr(false)})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !res.Changed {
		t.Fatal("append should report changed")
	}
	if got := readFile(t, link); got != "base\nadded\n" {
		t.Fatalf("converted file content = %q", got)
	}
	if got := readFile(t, target); got != "base\n" {
		t.Fatalf("append leaked through to the link target: %q", got)
	}
}

func TestRunCheckModeLeavesSymlinkAlone(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snippet")
	target := filepath.Join(dir, "real.conf")
	link := filepath.Join(dir, "alias.conf")
	writeFile(t, src, "added\n")
	writeFile(t, target, "base\n")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink failed: %v", err)
	}

	res, err := Run(&Request{Src: src, Dest: link, Check: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !res.Changed {
		t.Fatal("check mode should predict the append")
	}

	fi, err := os.Lstat(link)
	if err != nil {
		t.Fatalf("lstat failed: %v", err)
	}
	if fi.Mode()&os.ModeSymlink == 0 {
		t.Fatal("check mode must not convert the link")
	}
	if got := readFile(t, target); got != "base\n" {
		t.Fatalf("check mode modified the link target: %q", got)
	}
}

func TestRunAttributeOnlyChange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snippet")
	dest := filepath.Join(dir, "conf")
	writeFile(t, src, "present\n")
	writeFile(t, dest, "present\n")
	if err := os.Chmod(dest, 0o600); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}

	res, err := Run(&Request{Src: src, Dest: dest, Force: boolPtr(false), Mode: "0644"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !res.Changed {
		t.Fatal("attribute reconciliation should flip changed")
	}
	if got := readFile(t, dest); got != "present\n" {
		t.Fatalf("content should be untouched, got %q", got)
	}
	fi, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if fi.Mode().Perm() != 0o644 {
		t.Fatalf("mode = %v, want 0644", fi.Mode().Perm())
	}
	if res.State.Mode != "0644" {
		t.Fatalf("reported mode = %q, want 0644", res.State.Mode)
	}
}

func TestRunMD5OmittedInFipsOnlyMode(t *testing.T) {
	t.Setenv("GODEBUG", "fips140=only")

	dir := t.TempDir()
	src := filepath.Join(dir, "snippet")
	dest := filepath.Join(dir, "conf")
	writeFile(t, src, "data\n")
	writeFile(t, dest, "base\n")

	res, err := Run(&Request{Src: src, Dest: dest})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.MD5Sum != "" {
		t.Fatalf("md5sum = %q, want omitted in FIPS-only mode", res.MD5Sum)
	}
	if res.Checksum == "" {
		t.Fatal("primary checksum must still be reported")
	}
}

func TestRunAppendFailureMessage(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root writes anything")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "snippet")
	dest := filepath.Join(dir, "conf")
	writeFile(t, src, "data\n")
	writeFile(t, dest, "base\n")
	if err := os.Chmod(dest, 0o444); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}

	_, err := Run(&Request{Src: src, Dest: dest})
	var appendErr *AppendError
	if !errors.As(err, &appendErr) {
		t.Fatalf("error = %v, want AppendError", err)
	}
	if want := "failed to append: " + src + " to " + dest; appendErr.Error() != want {
		t.Fatalf("message = %q, want %q", appendErr.Error(), want)
	}
	if appendErr.Unwrap() == nil {
		t.Fatal("append errors should carry their cause")
	}
}

func TestResultAsMap(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snippet")
	dest := filepath.Join(dir, "conf")
	writeFile(t, src, "data\n")
	writeFile(t, dest, "base\n")

	res, err := Run(&Request{Src: src, Dest: dest})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	m, err := res.AsMap()
	if err != nil {
		t.Fatalf("AsMap failed: %v", err)
	}
	for _, key := range []string{"dest", "src", "checksum", "check", "changed", "owner", "group", "uid", "gid", "mode", "size", "state"} {
		if _, ok := m[key]; !ok {
			t.Fatalf("result map missing key %q", key)
		}
	}
	if m["changed"] != true {
		t.Fatalf("changed = %v, want true", m["changed"])
	}
}
