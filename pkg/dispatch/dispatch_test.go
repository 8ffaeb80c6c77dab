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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/opsforge/filecat/pkg/concat"
)

// fakeTransport records calls and plays back canned answers.
type fakeTransport struct {
	stagingDir string
	concatOut  map[string]any
	concatErr  error

	created    int
	removed    []string
	uploaded   []string
	chmodPaths []string
	chmodModes []string
	concatArgs map[string]any
}

func (f *fakeTransport) CreateStaging(ctx context.Context) (string, error) {
	f.created++
	return f.stagingDir, nil
}

func (f *fakeTransport) RemoveStaging(ctx context.Context, dir string) error {
	f.removed = append(f.removed, dir)
	return nil
}

func (f *fakeTransport) UploadFile(ctx context.Context, dir, localPath string) (string, error) {
	f.uploaded = append(f.uploaded, localPath)
	return filepath.Join(dir, filepath.Base(localPath)), nil
}

func (f *fakeTransport) Chmod(ctx context.Context, path, mode string) error {
	f.chmodPaths = append(f.chmodPaths, path)
	f.chmodModes = append(f.chmodModes, mode)
	return nil
}

func (f *fakeTransport) Concat(ctx context.Context, args map[string]any) (map[string]any, error) {
	f.concatArgs = args
	return f.concatOut, f.concatErr
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDispatchRequiresSrc(t *testing.T) {
	d := New(&fakeTransport{})

	_, err := d.Dispatch(context.Background(), Options{Args: map[string]any{"dest": "/etc/motd"}})
	if err == nil {
		t.Fatal("expected an error for missing src")
	}
	var validationErr *concat.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if err.Error() != "src is required" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestDispatchStagesAndMergesResult(t *testing.T) {
	roleDir := t.TempDir()
	writeSource(t, roleDir, filepath.Join("files", "banner.txt"), "hello\n")

	transport := &fakeTransport{
		stagingDir: "/target/filecat-tmp-1-x",
		concatOut:  map[string]any{"changed": true, "dest": "/etc/motd"},
	}
	d := New(transport)

	out, err := d.Dispatch(context.Background(), Options{
		Args:    map[string]any{"src": "banner.txt", "dest": "/etc/motd"},
		RoleDir: roleDir,
	})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	if transport.created != 1 {
		t.Fatalf("expected one staging dir, got %d", transport.created)
	}
	if len(transport.uploaded) != 1 || transport.uploaded[0] != filepath.Join(roleDir, "files", "banner.txt") {
		t.Fatalf("unexpected uploads: %v", transport.uploaded)
	}
	if transport.concatArgs["src"] != "/target/filecat-tmp-1-x/banner.txt" {
		t.Fatalf("operator got src %v", transport.concatArgs["src"])
	}

	if out["staging"] != "/target/filecat-tmp-1-x" {
		t.Fatalf("missing staging in result: %v", out)
	}
	if out["src"] != "/target/filecat-tmp-1-x/banner.txt" {
		t.Fatalf("missing staged src in result: %v", out)
	}
	if out["changed"] != true || out["dest"] != "/etc/motd" {
		t.Fatalf("operator result not merged: %v", out)
	}

	if len(transport.removed) != 1 || transport.removed[0] != "/target/filecat-tmp-1-x" {
		t.Fatalf("staging dir not cleaned up: %v", transport.removed)
	}
}

func TestDispatchReusesStaging(t *testing.T) {
	baseDir := t.TempDir()
	writeSource(t, baseDir, "banner.txt", "hello\n")

	transport := &fakeTransport{concatOut: map[string]any{"changed": false}}
	d := New(transport)

	out, err := d.Dispatch(context.Background(), Options{
		Args:    map[string]any{"src": "banner.txt", "dest": "/etc/motd"},
		BaseDir: baseDir,
		Staging: "/target/filecat-tmp-7-reuse",
	})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	if transport.created != 0 {
		t.Fatal("must not create a staging dir when reusing one")
	}
	if len(transport.removed) != 0 {
		t.Fatalf("must not remove a reused staging dir: %v", transport.removed)
	}
	if out["staging"] != "/target/filecat-tmp-7-reuse" {
		t.Fatalf("unexpected staging in result: %v", out)
	}
}

func TestDispatchIgnoresBogusStagingHandle(t *testing.T) {
	baseDir := t.TempDir()
	writeSource(t, baseDir, "banner.txt", "hello\n")

	transport := &fakeTransport{
		stagingDir: "/target/filecat-tmp-2-fresh",
		concatOut:  map[string]any{"changed": true},
	}
	d := New(transport)

	_, err := d.Dispatch(context.Background(), Options{
		Args:    map[string]any{"src": "banner.txt", "dest": "/etc/motd"},
		BaseDir: baseDir,
		Staging: "/target/not-a-staging-dir",
	})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if transport.created != 1 {
		t.Fatal("expected a fresh staging dir for a bogus handle")
	}
}

func TestDispatchChmodsForBecome(t *testing.T) {
	baseDir := t.TempDir()
	writeSource(t, baseDir, "banner.txt", "hello\n")

	cases := []struct {
		name       string
		become     bool
		becomeUser string
		checkMode  bool
		wantChmod  bool
	}{
		{name: "become non-root", become: true, becomeUser: "deploy", wantChmod: true},
		{name: "become root", become: true, becomeUser: "root", wantChmod: false},
		{name: "no become", become: false, becomeUser: "deploy", wantChmod: false},
		{name: "check mode", become: true, becomeUser: "deploy", checkMode: true, wantChmod: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transport := &fakeTransport{
				stagingDir: "/target/filecat-tmp-3-x",
				concatOut:  map[string]any{"changed": true},
			}
			d := New(transport)

			_, err := d.Dispatch(context.Background(), Options{
				Args:       map[string]any{"src": "banner.txt", "dest": "/etc/motd"},
				BaseDir:    baseDir,
				Become:     tc.become,
				BecomeUser: tc.becomeUser,
				CheckMode:  tc.checkMode,
			})
			if err != nil {
				t.Fatalf("Dispatch returned error: %v", err)
			}

			if tc.wantChmod {
				if len(transport.chmodPaths) != 1 || transport.chmodModes[0] != "a+r" {
					t.Fatalf("expected a+r chmod, got %v %v", transport.chmodPaths, transport.chmodModes)
				}
			} else if len(transport.chmodPaths) != 0 {
				t.Fatalf("unexpected chmod: %v", transport.chmodPaths)
			}
		})
	}
}

func TestDispatchCheckModeFlagsOperator(t *testing.T) {
	baseDir := t.TempDir()
	writeSource(t, baseDir, "banner.txt", "hello\n")

	transport := &fakeTransport{
		stagingDir: "/target/filecat-tmp-4-x",
		concatOut:  map[string]any{"changed": true, "check": true},
	}
	d := New(transport)

	args := map[string]any{"src": "banner.txt", "dest": "/etc/motd"}
	_, err := d.Dispatch(context.Background(), Options{
		Args:      args,
		BaseDir:   baseDir,
		CheckMode: true,
	})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	if transport.concatArgs["check"] != true {
		t.Fatalf("operator not flagged for check mode: %v", transport.concatArgs)
	}
	if _, ok := args["check"]; ok {
		t.Fatal("caller's argument map was mutated")
	}
	if _, ok := args["src"]; !ok || args["src"] != "banner.txt" {
		t.Fatal("caller's src was rewritten")
	}
}

func TestDispatchCleansUpOnOperatorFailure(t *testing.T) {
	baseDir := t.TempDir()
	writeSource(t, baseDir, "banner.txt", "hello\n")

	transport := &fakeTransport{
		stagingDir: "/target/filecat-tmp-5-x",
		concatErr:  &concat.PreconditionError{Msg: "Destination /etc/motd doesn't exist"},
	}
	d := New(transport)

	out, err := d.Dispatch(context.Background(), Options{
		Args:    map[string]any{"src": "banner.txt", "dest": "/etc/motd"},
		BaseDir: baseDir,
	})
	if err == nil {
		t.Fatal("expected operator error to propagate")
	}
	if out["staging"] != "/target/filecat-tmp-5-x" {
		t.Fatalf("partial result missing staging: %v", out)
	}
	if len(transport.removed) != 1 {
		t.Fatalf("staging dir not cleaned up on failure: %v", transport.removed)
	}
}

func TestDispatchPrefersRoleFilesDir(t *testing.T) {
	roleDir := t.TempDir()
	inFiles := writeSource(t, roleDir, filepath.Join("files", "banner.txt"), "from files\n")
	writeSource(t, roleDir, "banner.txt", "from role root\n")

	transport := &fakeTransport{
		stagingDir: "/target/filecat-tmp-6-x",
		concatOut:  map[string]any{"changed": true},
	}
	d := New(transport)

	_, err := d.Dispatch(context.Background(), Options{
		Args:    map[string]any{"src": "banner.txt", "dest": "/etc/motd"},
		RoleDir: roleDir,
	})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if len(transport.uploaded) != 1 || transport.uploaded[0] != inFiles {
		t.Fatalf("expected %s to win, got %v", inFiles, transport.uploaded)
	}
}

func TestDispatchMissingSource(t *testing.T) {
	d := New(&fakeTransport{})

	_, err := d.Dispatch(context.Background(), Options{
		Args:    map[string]any{"src": "ghost.txt", "dest": "/etc/motd"},
		BaseDir: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected an error for a missing source")
	}
	var preconditionErr *concat.PreconditionError
	if !errors.As(err, &preconditionErr) {
		t.Fatalf("expected PreconditionError, got %T: %v", err, err)
	}
}

func TestDispatchLocalEndToEnd(t *testing.T) {
	baseDir := t.TempDir()
	writeSource(t, baseDir, filepath.Join("files", "extra.conf"), "color on\n")
	dest := writeSource(t, t.TempDir(), "app.conf", "debug off\n")

	transport := &LocalTransport{StagingRoot: t.TempDir()}
	d := New(transport)

	out, err := d.Dispatch(context.Background(), Options{
		Args:    map[string]any{"src": "extra.conf", "dest": dest, "force": false},
		BaseDir: baseDir,
	})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	if out["changed"] != true {
		t.Fatalf("expected a change, got %v", out)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(data) != "debug off\ncolor on\n" {
		t.Fatalf("unexpected dest content: %q", string(data))
	}

	dir, _ := out["staging"].(string)
	if dir == "" {
		t.Fatalf("missing staging dir in result: %v", out)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("staging dir %s should be cleaned up: %v", dir, err)
	}

	// A second non-forced run over the same content reports no change.
	out, err = d.Dispatch(context.Background(), Options{
		Args:    map[string]any{"src": "extra.conf", "dest": dest, "force": false},
		BaseDir: baseDir,
	})
	if err != nil {
		t.Fatalf("second Dispatch returned error: %v", err)
	}
	if out["changed"] != false {
		t.Fatalf("expected no change, got %v", out)
	}
}
