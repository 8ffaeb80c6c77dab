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

import "fmt"

// ValidationError reports a malformed or incomplete request. Nothing has
// been touched when it is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// PreconditionError reports a source or destination that fails the checks
// run before any mutation.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string {
	return e.Msg
}

// AppendError reports an I/O failure while reading, backing up or appending
// once preconditions have passed. The destination may have been partially
// modified.
type AppendError struct {
	Src  string
	Dest string
	Err  error
}

func (e *AppendError) Error() string {
	return fmt.Sprintf("failed to append: %s to %s", e.Src, e.Dest)
}

func (e *AppendError) Unwrap() error {
	return e.Err
}
