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
	"fmt"
	"io"
	"os"
	"time"
)

// backupTimeLayout names backup artifacts after local wall-clock time,
// e.g. "file.txt.2026-08-22@14:03:59~".
const backupTimeLayout = "2006-01-02@15:04:05~"

// BackupLocal copies path to a timestamped sibling and returns the new
// name. Mode and modification time carry over; backups are never pruned.
func BackupLocal(path string) (string, error) {
	backupDest := fmt.Sprintf("%s.%s", path, time.Now().Format(backupTimeLayout))

	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return "", err
	}

	out, err := os.OpenFile(backupDest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	if err := os.Chtimes(backupDest, time.Now(), fi.ModTime()); err != nil {
		return "", err
	}
	return backupDest, nil
}
