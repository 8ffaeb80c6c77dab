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

package model

import (
	"time"

	"github.com/opsforge/filecat/pkg/fileattr"
)

// FileInfo describes one path on the target host.
type FileInfo struct {
	Path           string    `json:"path,omitempty"`
	ModifiedAt     time.Time `json:"modified_at,omitempty"`
	fileattr.State `json:",inline"`
}
