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

import "encoding/json"

// OperationEvent is emitted to watch subscribers when an operation
// completes, whether it succeeded or not.
type OperationEvent struct {
	Op        string `json:"op"`
	Dest      string `json:"dest,omitempty"`
	Src       string `json:"src,omitempty"`
	Changed   bool   `json:"changed"`
	Failed    bool   `json:"failed"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ToJSON serializes the event for streaming.
func (e OperationEvent) ToJSON() []byte {
	bytes, _ := json.Marshal(e)
	return bytes
}
