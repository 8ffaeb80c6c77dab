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

// Package digest computes the file digests reported by concat results:
// SHA-1 as the primary content identifier and MD5 as a legacy convenience
// that some environments forbid.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"hash"
	"io"
	"os"
	"strings"
)

// ErrUnavailable marks a digest algorithm the runtime refuses to provide.
// Callers treat it as "omit the value", never as an operation failure.
var ErrUnavailable = errors.New("digest algorithm unavailable in this environment")

// Primary returns the hex SHA-1 digest of the file at path.
func Primary(path string) (string, error) {
	return fileDigest(path, sha1.New())
}

// Legacy returns the hex MD5 digest of the file at path. In FIPS-only
// runtimes MD5 is forbidden at use time, so Legacy reports ErrUnavailable
// instead of computing it.
func Legacy(path string) (string, error) {
	if !legacyAllowed() {
		return "", ErrUnavailable
	}
	return fileDigest(path, md5.New())
}

// legacyAllowed reports whether the process may use MD5. GODEBUG
// fips140=only restricts the process to approved algorithms.
func legacyAllowed() bool {
	for _, kv := range strings.Split(os.Getenv("GODEBUG"), ",") {
		if strings.TrimSpace(kv) == "fips140=only" {
			return false
		}
	}
	return true
}

func fileDigest(path string, h hash.Hash) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
